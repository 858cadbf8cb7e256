package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/replay"
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

type stubController struct {
	readyErr   error
	snapshot   replay.Snapshot
	snapErr    error
	startErr   error
	injectErr  error
	appendN    int
	appendErr  error
	scoringErr error

	started     bool
	stopped     bool
	reset       bool
	forwarded   int
	injected    []domain.Injection
	appended    []domain.Event
	scoring     *replay.ScoringUpdate
	granularity store.Granularity
}

func (s *stubController) CheckReadiness(context.Context) error { return s.readyErr }

func (s *stubController) Snapshot(context.Context) (replay.Snapshot, error) {
	return s.snapshot, s.snapErr
}

func (s *stubController) Start(context.Context) error {
	s.started = true
	return s.startErr
}

func (s *stubController) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func (s *stubController) Reset(context.Context) error {
	s.reset = true
	return nil
}

func (s *stubController) FastForward(_ context.Context, minutes int) error {
	s.forwarded = minutes
	return nil
}

func (s *stubController) Inject(_ context.Context, region string, magnitude float64, duration int) (domain.Injection, error) {
	if s.injectErr != nil {
		return domain.Injection{}, s.injectErr
	}
	inj := domain.Injection{ID: "inj-1", Region: region, Magnitude: magnitude, Duration: time.Duration(duration) * time.Minute}
	s.injected = append(s.injected, inj)
	return inj, nil
}

func (s *stubController) Append(_ context.Context, batch []domain.Event) (int, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	s.appended = append(s.appended, batch...)
	return s.appendN, nil
}

func (s *stubController) SetScoring(_ context.Context, upd replay.ScoringUpdate) error {
	if s.scoringErr != nil {
		return s.scoringErr
	}
	s.scoring = &upd
	return nil
}

func (s *stubController) SetGranularity(_ context.Context, g store.Granularity) error {
	s.granularity = g
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(ctrl *stubController) *Server {
	return NewServer(":0", ctrl, nil, testLogger())
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(&stubController{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := doRequest(newTestServer(&stubController{}), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		ctrl := &stubController{readyErr: errors.New("no data loaded")}
		rec := doRequest(newTestServer(ctrl), http.MethodGet, "/readyz", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no data loaded")
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	ctrl := &stubController{snapshot: replay.Snapshot{
		Position: 12,
		Length:   46,
		State:    replay.StateRunning,
	}}
	rec := doRequest(newTestServer(ctrl), http.MethodGet, "/api/snapshot", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var snap replay.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 12, snap.Position)
	assert.Equal(t, 46, snap.Length)
	assert.Equal(t, replay.StateRunning, snap.State)
}

func TestReplayControlEndpoints(t *testing.T) {
	ctrl := &stubController{}
	srv := newTestServer(ctrl)

	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/replay/start", "").Code)
	assert.True(t, ctrl.started)

	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/replay/stop", "").Code)
	assert.True(t, ctrl.stopped)

	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/replay/reset", "").Code)
	assert.True(t, ctrl.reset)
}

func TestForwardEndpoint(t *testing.T) {
	ctrl := &stubController{}
	srv := newTestServer(ctrl)

	rec := doRequest(srv, http.MethodPost, "/api/replay/forward", `{"minutes": 45}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 45, ctrl.forwarded)

	t.Run("rejects non-positive minutes", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/replay/forward", `{"minutes": 0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/replay/forward", `{"minutes": "ten"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGranularityEndpoint(t *testing.T) {
	ctrl := &stubController{}
	srv := newTestServer(ctrl)

	rec := doRequest(srv, http.MethodPost, "/api/replay/granularity", `{"granularity": "dense"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.GranularityDense, ctrl.granularity)

	rec = doRequest(srv, http.MethodPost, "/api/replay/granularity", `{"granularity": "hourly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInjectEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := &stubController{}
		rec := doRequest(newTestServer(ctrl), http.MethodPost, "/api/inject",
			`{"region": "north", "magnitude": 25, "duration_minutes": 60}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, ctrl.injected, 1)
		assert.Equal(t, "north", ctrl.injected[0].Region)
		assert.Equal(t, 25.0, ctrl.injected[0].Magnitude)
		assert.Contains(t, rec.Body.String(), "inj-1")
	})

	t.Run("missing region", func(t *testing.T) {
		rec := doRequest(newTestServer(&stubController{}), http.MethodPost, "/api/inject",
			`{"magnitude": 25, "duration_minutes": 60}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no revealed data maps to conflict", func(t *testing.T) {
		ctrl := &stubController{injectErr: domain.ErrInvalidState}
		rec := doRequest(newTestServer(ctrl), http.MethodPost, "/api/inject",
			`{"region": "north", "magnitude": 25, "duration_minutes": 60}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAppendEndpoint(t *testing.T) {
	ctrl := &stubController{appendN: 2}
	rec := doRequest(newTestServer(ctrl), http.MethodPost, "/api/events",
		`[{"region": "west", "timestamp": "2025-03-01T12:00:00Z", "risk_score": 40}]`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"merged": 2}`, rec.Body.String())
	require.Len(t, ctrl.appended, 1)
	assert.Equal(t, "west", ctrl.appended[0].Region)

	t.Run("rejects empty batch", func(t *testing.T) {
		rec := doRequest(newTestServer(&stubController{}), http.MethodPost, "/api/events", `[]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScoringEndpoint(t *testing.T) {
	ctrl := &stubController{}
	rec := doRequest(newTestServer(ctrl), http.MethodPut, "/api/scoring",
		`{"weights": {"risk": 1, "infrastructure": 0, "supply_relief": 0, "environment": 0}, "window_minutes": 60}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ctrl.scoring)
	require.NotNil(t, ctrl.scoring.Weights)
	assert.Equal(t, 1.0, ctrl.scoring.Weights.Risk)
	require.NotNil(t, ctrl.scoring.WindowMinutes)
	assert.Equal(t, 60, *ctrl.scoring.WindowMinutes)
	assert.Nil(t, ctrl.scoring.AlertLimit)

	t.Run("validation failure is a bad request", func(t *testing.T) {
		ctrl := &stubController{scoringErr: errors.New("weights must be non-negative")}
		rec := doRequest(newTestServer(ctrl), http.MethodPut, "/api/scoring",
			`{"weights": {"risk": -1}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportEndpoint(t *testing.T) {
	ctrl := &stubController{snapshot: replay.Snapshot{
		Recommendations: []replay.Recommendation{
			{Priority: 1, Region: "north", Action: "escalate", Reason: "mean composite 84.0 exceeds 80", MeanComposite: 84, Events: 9},
		},
	}}
	srv := newTestServer(ctrl)

	t.Run("json default", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/recommendations/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `"count": 1`)
	})

	t.Run("csv", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/recommendations/export?format=csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "priority,region,action,reason,mean_composite,events")
		assert.Contains(t, rec.Body.String(), "escalate")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/recommendations/export?format=xml", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSnapshotErrorIsInternal(t *testing.T) {
	ctrl := &stubController{snapErr: errors.New("session closed")}
	rec := doRequest(newTestServer(ctrl), http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStreamPublishesSnapshots(t *testing.T) {
	hub := NewHub(testLogger())
	srv := NewServer(":0", &stubController{}, hub, testLogger())

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), replay.Snapshot{Position: 7, State: replay.StateRunning})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap replay.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, 7, snap.Position)
	assert.Equal(t, replay.StateRunning, snap.State)

	hub.Close()
	assert.Zero(t, hub.ClientCount())
}
