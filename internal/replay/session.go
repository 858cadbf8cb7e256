package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/observability"
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

// Snapshot is an immutable view of one evaluation cycle, handed to readers
// and downstream sinks. Rows are copies; holding a Snapshot never observes a
// later mutation.
type Snapshot struct {
	Rows            []ScoredEvent     `json:"rows"`
	Alerts          []Alert           `json:"alerts"`
	Recommendations []Recommendation  `json:"recommendations"`
	Aggregates      []RegionAggregate `json:"aggregates"`

	Position      int               `json:"position"`
	Length        int               `json:"length"`
	State         State             `json:"state"`
	Granularity   store.Granularity `json:"granularity"`
	WindowMinutes int               `json:"window_minutes"`
	Weights       domain.Weights    `json:"weights"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// SnapshotSink receives the result of each evaluation cycle. Publish must not
// block the session loop; sinks that talk to slow consumers buffer or drop.
type SnapshotSink interface {
	Publish(ctx context.Context, snap Snapshot)
}

// ScoringUpdate carries operator-tunable evaluation parameters. Nil fields
// keep their current values.
type ScoringUpdate struct {
	Weights            *domain.Weights
	WindowMinutes      *int
	CompositeThreshold *float64
	RiskThreshold      *float64
	AlertLimit         *int
}

// Options configure a Session.
type Options struct {
	TickInterval   time.Duration
	AdvanceMinutes int // wall-clock span revealed per tick
	PreloadMinutes int // span revealed at startup so the view is non-empty
	WindowMinutes  int
	Weights        domain.Weights
	Alerts         AlertConfig
	Granularity    store.Granularity
	Clock          clockwork.Clock
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdReset
	cmdFastForward
	cmdInject
	cmdAppend
	cmdSetScoring
	cmdSetGranularity
	cmdSnapshot
)

type commandResult struct {
	snap   Snapshot
	inject domain.Injection
	merged int
	err    error
}

type command struct {
	kind            commandKind
	minutes         int
	region          string
	magnitude       float64
	durationMinutes int
	batch           []domain.Event
	scoring         ScoringUpdate
	granularity     store.Granularity
	reply           chan commandResult
}

// Session owns the event stores, the replay cursor, and the scoring
// parameters. All mutation happens inside Run's loop (single-writer
// discipline); the exported methods are thin command senders, so callers on
// any goroutine observe consistent snapshots and never a torn prefix.
type Session struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	opts    Options

	raw    *store.Store
	dense  *store.Store
	active *store.Store
	cursor *Cursor

	weights       domain.Weights
	windowMinutes int
	alertCfg      AlertConfig

	sinks    []SnapshotSink
	commands chan command
	last     Snapshot
	ready    atomic.Bool
}

// NewSession wires a session over the raw and dense timelines. The cursor
// starts with PreloadMinutes of data revealed so the first render is
// non-empty, and in the Idle state: replay begins on an explicit Start.
func NewSession(raw, dense *store.Store, opts Options, sinks []SnapshotSink, logger *slog.Logger, metrics *observability.Metrics) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	s := &Session{
		logger:        logger,
		metrics:       metrics,
		clock:         opts.Clock,
		opts:          opts,
		raw:           raw,
		dense:         dense,
		weights:       opts.Weights,
		windowMinutes: opts.WindowMinutes,
		alertCfg:      opts.Alerts,
		sinks:         sinks,
		commands:      make(chan command),
	}
	s.activate(opts.Granularity)
	return s
}

// activate switches the live timeline and resets downstream cursor state.
// The raw and dense series are independent timelines, so a position in one
// is never reused in the other; preload is reapplied instead.
func (s *Session) activate(g store.Granularity) {
	if g == store.GranularityDense {
		s.active = s.dense
	} else {
		s.active = s.raw
	}
	s.cursor = NewCursor(s.active.Len())
	s.cursor.FastForward(s.rowsFor(s.opts.PreloadMinutes))
}

// rowsFor converts a wall-clock span to rows on the active timeline.
func (s *Session) rowsFor(minutes int) int {
	return MinutesToRows(minutes, s.active.RegionCount(), s.active.IntervalMinutes(), s.active.Granularity())
}

// CheckReadiness reports ready once the session has completed at least one
// evaluation cycle.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("replay session has not completed an evaluation yet")
	}
	return nil
}

// Run drives the session until ctx is cancelled. The ticker arm is the only
// place the cursor advances on its own, so re-invoked renders or queued
// commands can never push the replay faster than one batch per interval.
// The wait is a select, not a hard block: cancellation during the inter-tick
// delay is honored before the next advance.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("replay session started",
		"granularity", s.active.Granularity(),
		"events", s.active.Len(),
		"regions", s.active.RegionCount(),
		"tick_interval", s.opts.TickInterval,
	)

	ticker := s.clock.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.evaluate(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("replay session stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.metrics.TicksTotal.Inc()
			if s.cursor.State() == StateRunning {
				s.cursor.Tick(s.rowsFor(s.opts.AdvanceMinutes))
				if s.cursor.State() == StatePaused {
					s.logger.Info("end of data reached, replay paused", "position", s.cursor.Position())
				}
			}
			s.evaluate(ctx)
		case cmd := <-s.commands:
			s.handle(ctx, cmd)
		}
	}
}

func (s *Session) handle(ctx context.Context, cmd command) {
	var res commandResult

	switch cmd.kind {
	case cmdStart:
		s.cursor.Start()
	case cmdStop:
		s.cursor.Stop()
	case cmdReset:
		s.cursor.Reset()
	case cmdFastForward:
		s.cursor.FastForward(s.rowsFor(cmd.minutes))
	case cmdInject:
		res.inject, res.err = s.inject(cmd)
	case cmdAppend:
		res.merged = s.append(cmd.batch)
	case cmdSetScoring:
		res.err = s.applyScoring(cmd.scoring)
	case cmdSetGranularity:
		if cmd.granularity != s.active.Granularity() {
			s.activate(cmd.granularity)
			s.logger.Info("granularity switched", "granularity", cmd.granularity, "events", s.active.Len())
		}
	case cmdSnapshot:
		// Read-only: reply with the latest evaluation, no re-derivation.
		cmd.reply <- commandResult{snap: s.last}
		return
	}

	s.evaluate(ctx)
	res.snap = s.last
	cmd.reply <- res
}

// inject anchors a perturbation at the replay's current "now" and applies it
// to the revealed prefix. Rejected when nothing dated has been revealed:
// there is no "now" to anchor to.
func (s *Session) inject(cmd command) (domain.Injection, error) {
	prefix := s.active.Prefix(s.cursor.Position())
	tMax, ok := latestTimestamp(prefix)
	if !ok {
		return domain.Injection{}, fmt.Errorf("inject %q: no data revealed yet: %w", cmd.region, domain.ErrInvalidState)
	}

	inj := domain.Injection{
		ID:        uuid.NewString(),
		Region:    cmd.region,
		Start:     tMax,
		Duration:  time.Duration(cmd.durationMinutes) * time.Minute,
		Magnitude: cmd.magnitude,
	}
	touched := inj.Apply(prefix)
	s.metrics.InjectionsTotal.Inc()
	s.logger.Info("injection applied",
		"id", inj.ID,
		"region", inj.Region,
		"magnitude", inj.Magnitude,
		"duration", inj.Duration,
		"rows", touched,
	)
	return inj, nil
}

// append merges a same-schema batch into the revealed prefix. The cursor
// absorbs the growth so previously revealed events stay revealed and the
// unrevealed tail keeps its place.
func (s *Session) append(batch []domain.Event) int {
	if len(batch) == 0 {
		return 0
	}
	s.active.MergeIntoPrefix(s.cursor.Position(), batch)
	s.cursor.AbsorbAppend(len(batch))
	s.metrics.AppendsTotal.Inc()
	s.logger.Info("batch appended", "rows", len(batch), "position", s.cursor.Position())
	return len(batch)
}

func (s *Session) applyScoring(upd ScoringUpdate) error {
	if upd.Weights != nil {
		if !upd.Weights.Valid() {
			return errors.New("weights must be non-negative")
		}
		s.weights = *upd.Weights
	}
	if upd.WindowMinutes != nil {
		if *upd.WindowMinutes <= 0 {
			return errors.New("window_minutes must be positive")
		}
		s.windowMinutes = *upd.WindowMinutes
	}
	if upd.CompositeThreshold != nil {
		s.alertCfg.CompositeThreshold = *upd.CompositeThreshold
	}
	if upd.RiskThreshold != nil {
		s.alertCfg.RiskThreshold = *upd.RiskThreshold
	}
	if upd.AlertLimit != nil {
		if *upd.AlertLimit <= 0 {
			return errors.New("alert limit must be positive")
		}
		s.alertCfg.Limit = *upd.AlertLimit
	}
	return nil
}

// evaluate re-derives window, scores, alerts, and recommendations from the
// revealed prefix. It runs on every tick and after every command, paused or
// not, so weight and window changes show up immediately.
func (s *Session) evaluate(ctx context.Context) {
	start := s.clock.Now()

	prefix := s.active.Prefix(s.cursor.Position())
	window := SelectWindow(prefix, s.windowMinutes)
	rows := ScoreWindow(window, s.weights)
	alerts := DetectAlerts(rows, s.alertCfg)
	aggs := AggregateByRegion(rows)
	recs := Recommend(aggs)

	snap := Snapshot{
		Rows:            rows,
		Alerts:          alerts,
		Recommendations: recs,
		Aggregates:      aggs,
		Position:        s.cursor.Position(),
		Length:          s.active.Len(),
		State:           s.cursor.State(),
		Granularity:     s.active.Granularity(),
		WindowMinutes:   s.windowMinutes,
		Weights:         s.weights,
		GeneratedAt:     start,
	}
	s.last = snap
	s.ready.Store(true)

	s.metrics.CursorPosition.Set(float64(snap.Position))
	s.metrics.TimelineLength.Set(float64(snap.Length))
	s.metrics.WindowEvents.Set(float64(len(snap.Rows)))
	s.metrics.ActiveAlerts.Set(float64(len(snap.Alerts)))
	if snap.State == StateRunning {
		s.metrics.ReplayRunning.Set(1)
	} else {
		s.metrics.ReplayRunning.Set(0)
	}
	s.metrics.EvaluationDuration.Observe(s.clock.Since(start).Seconds())

	for _, sink := range s.sinks {
		sink.Publish(ctx, snap)
	}
}

// --- command senders ---

func (s *Session) send(ctx context.Context, cmd command) (commandResult, error) {
	cmd.reply = make(chan commandResult, 1)
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

// Start resumes cursor advancement from Idle or Paused.
func (s *Session) Start(ctx context.Context) error {
	_, err := s.send(ctx, command{kind: cmdStart})
	return err
}

// Stop pauses cursor advancement without moving the position.
func (s *Session) Stop(ctx context.Context) error {
	_, err := s.send(ctx, command{kind: cmdStop})
	return err
}

// Reset returns the replay to Idle at position 0.
func (s *Session) Reset(ctx context.Context) error {
	_, err := s.send(ctx, command{kind: cmdReset})
	return err
}

// FastForward reveals the given wall-clock span immediately, in any state.
func (s *Session) FastForward(ctx context.Context, minutes int) error {
	_, err := s.send(ctx, command{kind: cmdFastForward, minutes: minutes})
	return err
}

// Inject applies a disruption to the revealed prefix, anchored at the latest
// revealed timestamp. Fails with domain.ErrInvalidState before any data is
// revealed.
func (s *Session) Inject(ctx context.Context, region string, magnitude float64, durationMinutes int) (domain.Injection, error) {
	res, err := s.send(ctx, command{
		kind:            cmdInject,
		region:          region,
		magnitude:       magnitude,
		durationMinutes: durationMinutes,
	})
	return res.inject, err
}

// Append merges a batch of same-schema events into the revealed prefix and
// returns the number of rows merged.
func (s *Session) Append(ctx context.Context, batch []domain.Event) (int, error) {
	res, err := s.send(ctx, command{kind: cmdAppend, batch: batch})
	return res.merged, err
}

// SetScoring applies operator-tunable weights, window size, and thresholds.
func (s *Session) SetScoring(ctx context.Context, upd ScoringUpdate) error {
	_, err := s.send(ctx, command{kind: cmdSetScoring, scoring: upd})
	return err
}

// SetGranularity switches the active timeline. Switching resets the cursor;
// the two series are independent timelines, not interchangeable indices.
func (s *Session) SetGranularity(ctx context.Context, g store.Granularity) error {
	_, err := s.send(ctx, command{kind: cmdSetGranularity, granularity: g})
	return err
}

// Snapshot returns the latest evaluation result.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := s.send(ctx, command{kind: cmdSnapshot})
	return res.snap, err
}
