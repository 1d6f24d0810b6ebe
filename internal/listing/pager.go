// Package listing is the filter and pagination state behind every list
// screen.
package listing

import (
	"sync"
)

// DefaultPerPage is the page size used when Options leaves it unset.
const DefaultPerPage = 5

// Options configures a Pager.
type Options struct {
	PerPage int
	// Unpaginated makes Page return every filtered item.
	Unpaginated bool
}

// Pager pages through a filtered view of a slice. Safe for concurrent use.
type Pager[T any] struct {
	mu       sync.RWMutex
	all      []T
	filtered []T
	page     int
	opts     Options
}

// NewPager starts on page 1 with no filter applied.
func NewPager[T any](items []T, opts Options) *Pager[T] {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	return &Pager[T]{all: items, filtered: items, page: 1, opts: opts}
}

// ApplyFilter replaces the view with filter(all items) and returns to
// page 1. A nil filter shows every item.
func (p *Pager[T]) ApplyFilter(filter func([]T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if filter == nil {
		p.filtered = p.all
	} else {
		p.filtered = filter(append([]T(nil), p.all...))
	}
	p.page = 1
}

// GoTo moves to page n, clamped to the existing pages.
func (p *Pager[T]) GoTo(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = p.clamp(n)
}

func (p *Pager[T]) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = p.clamp(p.page + 1)
}

func (p *Pager[T]) Prev() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.page = p.clamp(p.page - 1)
}

// Current returns the current page number, starting at 1.
func (p *Pager[T]) Current() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page
}

// Page returns the items on the current page.
func (p *Pager[T]) Page() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.opts.Unpaginated {
		return append([]T(nil), p.filtered...)
	}
	start := (p.page - 1) * p.opts.PerPage
	if start >= len(p.filtered) {
		return []T{}
	}
	end := min(start+p.opts.PerPage, len(p.filtered))
	return append([]T(nil), p.filtered[start:end]...)
}

// TotalItems counts the filtered items.
func (p *Pager[T]) TotalItems() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.filtered)
}

// TotalPages is the filtered item count divided by the page size, rounded
// up.
func (p *Pager[T]) TotalPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPages()
}

func (p *Pager[T]) totalPages() int {
	return (len(p.filtered) + p.opts.PerPage - 1) / p.opts.PerPage
}

func (p *Pager[T]) clamp(n int) int {
	return max(1, min(n, p.totalPages()))
}
