package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

func TestNew_SortsCanonically(t *testing.T) {
	s := store.New([]domain.Event{
		rawEvent("B", 15, 2),
		rawEvent("A", 15, 1),
		rawEvent("A", 0, 0),
	}, store.GranularityRaw, 15)

	rows := s.Prefix(s.Len())
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Region)
	assert.Equal(t, at(0), rows[0].Timestamp)
	assert.Equal(t, "A", rows[1].Region)
	assert.Equal(t, "B", rows[2].Region)
	assert.Equal(t, []string{"A", "B"}, s.Regions())
	assert.Equal(t, 2, s.RegionCount())
}

func TestPrefix_ClampsBounds(t *testing.T) {
	s := store.New([]domain.Event{rawEvent("A", 0, 0)}, store.GranularityRaw, 15)

	assert.Empty(t, s.Prefix(-1))
	assert.Len(t, s.Prefix(0), 0)
	assert.Len(t, s.Prefix(99), 1)
}

func TestMergeIntoPrefix(t *testing.T) {
	s := store.New([]domain.Event{
		rawEvent("A", 0, 0),
		rawEvent("A", 15, 1),
		rawEvent("A", 30, 2), // unrevealed tail
	}, store.GranularityRaw, 15)

	batch := []domain.Event{
		rawEvent("B", 5, 50),
		rawEvent("B", 1, 10),
	}
	n := s.MergeIntoPrefix(2, batch)

	assert.Equal(t, 4, n)
	assert.Equal(t, 5, s.Len())

	rows := s.Prefix(n)
	// Prefix re-sorted by canonical key.
	assert.Equal(t, at(0), rows[0].Timestamp)
	assert.Equal(t, at(1), rows[1].Timestamp)
	assert.Equal(t, at(5), rows[2].Timestamp)
	assert.Equal(t, at(15), rows[3].Timestamp)

	// Tail untouched and still after the prefix.
	all := s.Prefix(s.Len())
	assert.Equal(t, at(30), all[4].Timestamp)
	assert.Equal(t, []string{"A", "B"}, s.Regions())
}

func TestMergeIntoPrefix_EmptyBatch(t *testing.T) {
	s := store.New([]domain.Event{rawEvent("A", 0, 0)}, store.GranularityRaw, 15)
	assert.Equal(t, 1, s.MergeIntoPrefix(1, nil))
	assert.Equal(t, 1, s.Len())
}

func TestLoader_ReadsOnce(t *testing.T) {
	calls := 0
	l := store.NewLoader(func() ([]domain.Event, error) {
		calls++
		return []domain.Event{rawEvent("A", 0, 0)}, nil
	})

	first, err := l.Load()
	require.NoError(t, err)
	second, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestLoader_CachesError(t *testing.T) {
	calls := 0
	l := store.NewLoader(func() ([]domain.Event, error) {
		calls++
		return nil, errors.New("boom")
	})

	_, err1 := l.Load()
	_, err2 := l.Load()

	assert.Equal(t, 1, calls)
	require.Error(t, err1)
	assert.Equal(t, err1, err2)
}

func TestParseGranularity(t *testing.T) {
	g, err := store.ParseGranularity("raw")
	require.NoError(t, err)
	assert.Equal(t, store.GranularityRaw, g)

	g, err = store.ParseGranularity("dense")
	require.NoError(t, err)
	assert.Equal(t, store.GranularityDense, g)

	_, err = store.ParseGranularity("hourly")
	assert.Error(t, err)
}
