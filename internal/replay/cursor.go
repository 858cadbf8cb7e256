// Package replay implements the replay engine: the cursor state machine over
// the event timeline, trailing-window selection, alert detection,
// recommendation rules, and the single-writer session loop that owns them.
package replay

import (
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

// State is the cursor's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Cursor is a monotonically non-decreasing offset into the active timeline,
// marking how many events have been revealed. Position only ever moves
// forward; Reset starts a fresh replay rather than rewinding this one.
type Cursor struct {
	state    State
	position int
	length   int
}

// NewCursor creates an Idle cursor at position 0 over a timeline of the
// given length.
func NewCursor(length int) *Cursor {
	return &Cursor{state: StateIdle, length: length}
}

// State returns the current lifecycle state.
func (c *Cursor) State() State { return c.state }

// Position returns the number of revealed events.
func (c *Cursor) Position() int { return c.position }

// Length returns the timeline length the cursor is clamped to.
func (c *Cursor) Length() int { return c.length }

// AtEnd reports whether the whole timeline has been revealed.
func (c *Cursor) AtEnd() bool { return c.position >= c.length }

// Start transitions Idle or Paused to Running. Position is unchanged;
// starting an already-running cursor is a no-op.
func (c *Cursor) Start() {
	if c.state == StateIdle || c.state == StatePaused {
		c.state = StateRunning
	}
}

// Stop transitions Running to Paused without moving the position. Stopping
// an idle or paused cursor is a no-op.
func (c *Cursor) Stop() {
	if c.state == StateRunning {
		c.state = StatePaused
	}
}

// Reset returns to Idle at position 0 from any state.
func (c *Cursor) Reset() {
	c.state = StateIdle
	c.position = 0
}

// Tick advances the position by batch while Running, clamped to the timeline
// length, and returns the new position. Reaching the end auto-pauses the
// cursor: end-of-data is a deliberate stop, not a busy loop over a spent
// timeline. Ticks in any other state do nothing.
func (c *Cursor) Tick(batch int) int {
	if c.state != StateRunning || batch <= 0 {
		return c.position
	}
	c.advance(batch)
	if c.AtEnd() {
		c.state = StatePaused
	}
	return c.position
}

// FastForward advances the position by n regardless of state, clamped to the
// timeline length. It never changes the lifecycle state.
func (c *Cursor) FastForward(n int) int {
	if n > 0 {
		c.advance(n)
	}
	return c.position
}

// AbsorbAppend grows both the timeline length and the position by n, keeping
// the revealed set stable when a batch is merged into the revealed prefix.
func (c *Cursor) AbsorbAppend(n int) {
	if n <= 0 {
		return
	}
	c.length += n
	c.position += n
}

func (c *Cursor) advance(n int) {
	c.position += n
	if c.position > c.length {
		c.position = c.length
	}
}

// MinutesToRows converts a wall-clock span into a row count for the given
// timeline, so that advancing "5 minutes" reveals the same span of data at
// either granularity. Dense data carries one row per region per minute; raw
// data carries one row per region per native interval, floored to at least
// one row per minute so small deployments still move.
func MinutesToRows(minutes, regionCount, intervalMinutes int, g store.Granularity) int {
	if minutes <= 0 || regionCount <= 0 {
		return 0
	}
	if g == store.GranularityDense {
		return minutes * regionCount
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 1
	}
	rowsPerMinute := regionCount / intervalMinutes
	if rowsPerMinute < 1 {
		rowsPerMinute = 1
	}
	return minutes * rowsPerMinute
}
