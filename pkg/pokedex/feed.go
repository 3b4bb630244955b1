package pokedex

import (
	"context"
	"sync"
)

// FeedSnapshot is a copy of a feed's state.
type FeedSnapshot struct {
	Cards   []Card `json:"cards"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
	Loading bool   `json:"loading"`
	HasMore bool   `json:"has_more"`
}

// Feed accumulates catalog pages for one infinite-scroll session.
type Feed struct {
	catalog *Catalog
	types   []string

	mu         sync.Mutex
	cards      []Card
	seen       map[int]bool
	total      int
	nextOffset int
	loaded     bool
	loading    bool
	err        string
}

// NewFeed creates an empty feed, optionally filtered to types.
func NewFeed(catalog *Catalog, types ...string) *Feed {
	return &Feed{
		catalog: catalog,
		types:   types,
		seen:    make(map[int]bool),
	}
}

// LoadMore appends the next page. It returns ErrBusy while another load is
// in flight and ErrExhausted once the whole listing has been read. On
// failure the accumulated cards are kept and Snapshot reports the error.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.loaded && f.nextOffset >= f.total {
		f.mu.Unlock()
		return ErrExhausted
	}
	f.loading = true
	f.err = ""
	offset := f.nextOffset
	f.mu.Unlock()

	page, err := f.catalog.Page(ctx, PageRequest{Offset: offset, Types: f.types})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	if err != nil {
		f.err = MsgListFailed
		return err
	}

	if offset == 0 {
		f.cards = nil
		f.seen = make(map[int]bool)
	}
	for _, card := range page.Cards {
		if f.seen[card.ID] {
			continue
		}
		f.seen[card.ID] = true
		f.cards = append(f.cards, card)
	}

	f.total = page.Total
	f.nextOffset = page.NextOffset
	if !page.HasMore {
		f.nextOffset = max(f.nextOffset, f.total)
	}
	f.loaded = true
	return nil
}

// Reload discards the accumulated cards and loads the first page again.
func (f *Feed) Reload(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.nextOffset = 0
	f.loaded = false
	f.mu.Unlock()

	return f.LoadMore(ctx)
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	cards := make([]Card, len(f.cards))
	copy(cards, f.cards)

	return FeedSnapshot{
		Cards:   cards,
		Total:   f.total,
		Error:   f.err,
		Loading: f.loading,
		HasMore: !f.loaded || f.nextOffset < f.total,
	}
}
