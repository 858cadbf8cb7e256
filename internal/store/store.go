// Package store holds the ordered event timeline and its densified variant.
//
// A Store is append-only from the replay engine's point of view: the sequence
// never shrinks, and the only in-place mutation permitted is an injection
// against the already-revealed prefix. The raw and dense granularities are
// independent timelines; a cursor position in one is meaningless in the other.
package store

import (
	"fmt"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

// Granularity identifies which timeline a store represents.
type Granularity string

const (
	// GranularityRaw is the source-native sampling interval.
	GranularityRaw Granularity = "raw"
	// GranularityDense is the upsampled fixed-step timeline produced by Densify.
	GranularityDense Granularity = "dense"
)

// ParseGranularity validates a granularity name from config or API input.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityRaw, GranularityDense:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Store is an ordered sequence of events at a single sampling granularity.
type Store struct {
	events          []domain.Event
	granularity     Granularity
	intervalMinutes int
	regions         []string
}

// New copies and canonically sorts events into a store. intervalMinutes is the
// sampling step of this timeline (native interval for raw, target interval
// for dense).
func New(events []domain.Event, g Granularity, intervalMinutes int) *Store {
	sorted := make([]domain.Event, len(events))
	copy(sorted, events)
	domain.SortEvents(sorted)
	return &Store{
		events:          sorted,
		granularity:     g,
		intervalMinutes: intervalMinutes,
		regions:         domain.Regions(sorted),
	}
}

// Len returns the number of events in the store.
func (s *Store) Len() int { return len(s.events) }

// Granularity returns the timeline this store represents.
func (s *Store) Granularity() Granularity { return s.granularity }

// IntervalMinutes returns the sampling step of this timeline in minutes.
func (s *Store) IntervalMinutes() int { return s.intervalMinutes }

// Regions returns the distinct region identifiers, sorted.
func (s *Store) Regions() []string { return s.regions }

// RegionCount returns the number of distinct regions.
func (s *Store) RegionCount() int { return len(s.regions) }

// Prefix returns the first n events without copying. Callers must respect the
// single-writer discipline: only the session owner may mutate the returned
// slice (injections), and readers must go through snapshot copies instead.
func (s *Store) Prefix(n int) []domain.Event {
	if n > len(s.events) {
		n = len(s.events)
	}
	if n < 0 {
		n = 0
	}
	return s.events[:n]
}

// MergeIntoPrefix merges a batch of same-schema events into the revealed
// prefix of length n and re-sorts that prefix by the canonical key. The
// unrevealed tail is left untouched. Returns the new prefix length.
func (s *Store) MergeIntoPrefix(n int, batch []domain.Event) int {
	if n > len(s.events) {
		n = len(s.events)
	}
	if n < 0 {
		n = 0
	}
	if len(batch) == 0 {
		return n
	}

	merged := make([]domain.Event, 0, len(s.events)+len(batch))
	merged = append(merged, s.events[:n]...)
	merged = append(merged, batch...)
	domain.SortEvents(merged[:n+len(batch)])
	merged = append(merged, s.events[n:]...)

	s.events = merged
	s.regions = domain.Regions(s.events)
	return n + len(batch)
}
