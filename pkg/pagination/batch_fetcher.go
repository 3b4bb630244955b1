package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex/pkg/logging"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int
	// PageSize is the limit sent with every page request.
	PageSize int
	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a configuration that lists all species in a
// handful of requests.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		PageSize:       100,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches one page of a listing.
type PageFetcher[T any] interface {
	// FetchPage returns the items at [offset, offset+limit) and the total
	// number of items in the listing.
	FetchPage(ctx context.Context, offset, limit int) (items []T, total int, err error)
}

// PageResult represents the result of fetching a single page.
type PageResult[T any] struct {
	PageNumber int
	Items      []T
	Error      error
}

// BatchFetcher fetches all pages of a listing with a worker pool.
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
	logger  zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// FetchAll returns every item of the listing in order. When a worker fails
// the items of all pages fetched so far are returned alongside the error;
// pages after a gap are dropped so the result stays a prefix of the listing.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	pageSize := bf.config.PageSize

	first, total, err := bf.fetcher.FetchPage(ctx, 0, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages <= 1 {
		bf.logger.Debug().
			Int("items", len(first)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first, nil
	}

	bf.logger.Info().
		Int("total_items", total).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	pages := make([][]T, totalPages)
	pages[0] = first
	if first == nil {
		pages[0] = []T{}
	}

	pageQueue := make(chan int, totalPages)
	pageResults := make(chan PageResult[T], totalPages)
	errs := make(chan error, bf.config.MaxConcurrency)

	for page := 1; page < totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, errs, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
		close(errs)
	}()

	fetchedPages := 1
	for result := range pageResults {
		pages[result.PageNumber] = result.Items
		fetchedPages++
	}

	var items []T
	complete := true
	for _, page := range pages {
		if page == nil {
			complete = false
			break
		}
		items = append(items, page...)
	}

	if err, ok := <-errs; ok && err != nil {
		bf.logger.Warn().
			Err(err).
			Int("fetched_pages", fetchedPages).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return items, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
	}
	if !complete {
		return items, fmt.Errorf("fetch interrupted (partial data: %d/%d pages): %w", fetchedPages, totalPages, ctx.Err())
	}

	bf.logger.Info().
		Int("items", len(items)).
		Int("pages", fetchedPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// worker processes pages from the queue until it is drained, the context
// ends or a fetch fails.
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], errs chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			bf.logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, pageNum*bf.config.PageSize, bf.config.PageSize)
		cancel()

		if err != nil {
			bf.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			select {
			case errs <- err:
			default:
			}
			return
		}

		if items == nil {
			items = []T{}
		}
		results <- PageResult[T]{PageNumber: pageNum, Items: items}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		bf.logger.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
