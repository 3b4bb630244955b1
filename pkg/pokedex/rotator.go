package pokedex

import (
	"context"
	"sync"
	"time"
)

// DefaultRotationInterval is how long each featured slide is shown.
const DefaultRotationInterval = 7 * time.Second

// Rotator advances the featured carousel index on a fixed interval and
// notifies subscribers. A carousel of zero or one slide never rotates.
type Rotator struct {
	size     int
	interval time.Duration

	mu      sync.RWMutex
	current int
	subs    map[chan int]struct{}
}

// NewRotator creates a rotator over size slides.
func NewRotator(size int, interval time.Duration) *Rotator {
	if interval <= 0 {
		interval = DefaultRotationInterval
	}
	return &Rotator{
		size:     size,
		interval: interval,
		subs:     make(map[chan int]struct{}),
	}
}

// Current returns the index of the slide on show.
func (r *Rotator) Current() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Size returns the number of slides.
func (r *Rotator) Size() int {
	return r.size
}

// Interval returns how long each slide is shown.
func (r *Rotator) Interval() time.Duration {
	return r.interval
}

// Select jumps to slide i, as a carousel dot does.
func (r *Rotator) Select(i int) bool {
	if i < 0 || i >= r.size {
		return false
	}
	r.set(i)
	return true
}

// Advance moves to the next slide, wrapping around, and returns it.
func (r *Rotator) Advance() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.current
	if r.size > 1 {
		next = (next + 1) % r.size
	}
	r.publishLocked(next)
	return next
}

func (r *Rotator) set(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishLocked(i)
}

// publishLocked stores i and notifies subscribers. r.mu must be held.
func (r *Rotator) publishLocked(i int) {
	r.current = i
	for ch := range r.subs {
		// Slow subscribers only need the latest index.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- i:
		default:
		}
	}
}

// Subscribe returns a channel receiving every new index and a function
// that unsubscribes and closes it.
func (r *Rotator) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 1)

	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, ch)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Run advances the carousel every interval until ctx is done.
func (r *Rotator) Run(ctx context.Context) {
	if r.size <= 1 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Advance()
		}
	}
}
