package store

import (
	"sync"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

// ReadFunc loads the raw dataset from the underlying source.
type ReadFunc func() ([]domain.Event, error)

// Loader reads the dataset at most once per process and caches the result,
// errors included. Subsequent calls return the cached outcome.
type Loader struct {
	read   ReadFunc
	once   sync.Once
	events []domain.Event
	err    error
}

// NewLoader wraps a read function with once-per-process caching.
func NewLoader(read ReadFunc) *Loader {
	return &Loader{read: read}
}

// Load returns the dataset, reading it on the first call only. The returned
// slice is shared; callers hand it to New, which copies.
func (l *Loader) Load() ([]domain.Event, error) {
	l.once.Do(func() {
		l.events, l.err = l.read()
	})
	return l.events, l.err
}
