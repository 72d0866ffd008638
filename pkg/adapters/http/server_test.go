package http

import (
	"bufio"
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

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/dsl"
	"github.com/aretw0/dicetree/pkg/observability"
	"github.com/aretw0/dicetree/pkg/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	eng, err := dicetree.New(
		dicetree.WithSeed(1),
		dicetree.WithLimits(domain.Limits{MaxPoolWidth: 8}),
	)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewHandler(eng, opts...)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "dicetree-http", info["app"])
	assert.Equal(t, dicetree.Version, info["version"])
	assert.Contains(t, info["kinds"], "keep_highest")
}

func TestRoll(t *testing.T) {
	h := newTestHandler(t)
	w := post(t, h, "/roll", `{"expr": {"kind": "pool", "count": 3, "dice": {"kind": "die", "sides": 6}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "3d6", resp.Expr)
	assert.Equal(t, 3, resp.Min)
	assert.Equal(t, 18, resp.Max)
	assert.GreaterOrEqual(t, resp.Value, 3)
	assert.LessOrEqual(t, resp.Value, 18)
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
}

func TestSimulate(t *testing.T) {
	h := newTestHandler(t)
	w := post(t, h, "/simulate", `{"expr": {"kind": "die", "sides": 4}, "trials": 400, "histogram": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 400, resp.Summary.Trials)
	assert.InDelta(t, 2.5, resp.Summary.Mean, 0.3)
	require.NotNil(t, resp.Histogram)
	assert.Equal(t, []int{1, 2, 3, 4}, resp.Histogram.Outcomes())
}

func TestDistribution(t *testing.T) {
	h := newTestHandler(t)
	w := post(t, h, "/distribution", `{"expr": {"kind": "sum", "items": [{"kind": "die", "sides": 6}, {"kind": "die", "sides": 6}]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DistributionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Exact)
	assert.Equal(t, "(d6 + d6)", resp.Expr)
	assert.InDelta(t, 7.0, resp.Mean, 1e-9)
	assert.InDelta(t, 6.0/36, resp.Distribution.Prob(7), 1e-12)
	assert.Equal(t, 2, resp.Min)
	assert.Equal(t, 12, resp.Max)
}

func TestDistribution_LimitAndFallback(t *testing.T) {
	h := newTestHandler(t)
	body := `{"expr": {"kind": "pool", "count": 20, "dice": {"kind": "die", "sides": 6}}`

	w := post(t, h, "/distribution", body+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "pool width", errResp.Resource)
	assert.Equal(t, 8, errResp.Limit)
	assert.Equal(t, 20, errResp.Requested)

	w = post(t, h, "/distribution", body+`, "fallback_trials": 2000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp DistributionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Exact)
	assert.Equal(t, 2000, resp.Trials)
	assert.InDelta(t, 70.0, resp.Mean, 1.5)
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, WithMaxTrials(100))
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed body", "/roll", `{`, http.StatusBadRequest},
		{"missing expr", "/roll", `{}`, http.StatusBadRequest},
		{"unknown kind", "/roll", `{"expr": {"kind": "coin"}}`, http.StatusBadRequest},
		{"invalid range", "/roll", `{"expr": {"kind": "range", "min": 5, "max": 1}}`, http.StatusBadRequest},
		{"zero trials", "/simulate", `{"expr": 3}`, http.StatusBadRequest},
		{"too many trials", "/simulate", `{"expr": 3, "trials": 101}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrEmptyOperands))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&domain.TypeError{Where: "lift"}))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&domain.LimitError{}))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.ErrNoSource))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestMetricsEndpoint(t *testing.T) {
	m := observability.NewMetrics(nil)
	eng, err := dicetree.New(dicetree.WithSeed(2), dicetree.WithMetrics(m))
	require.NoError(t, err)
	h := NewHandler(eng, WithMetrics(m.Handler()))

	require.Equal(t, http.StatusOK, post(t, h, "/roll", `{"expr": {"kind": "die", "sides": 6}}`).Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dicetree_rolls_total 1")

	w = httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/roll", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Table(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?table=tavern", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	rollResp, err := http.Post(srv.URL+"/roll", "application/json",
		strings.NewReader(`{"expr": {"kind": "die", "sides": 20}, "table": "tavern"}`))
	require.NoError(t, err)
	rollResp.Body.Close()

	deadline := time.After(5 * time.Second)
	found := make(chan string, 1)
	go func() {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), "data: {") {
				found <- strings.TrimPrefix(lines.Text(), "data: ")
				return
			}
		}
	}()

	select {
	case payload := <-found:
		var roll RollResponse
		require.NoError(t, json.Unmarshal([]byte(payload), &roll))
		assert.Equal(t, "d20", roll.Expr)
		assert.Equal(t, "tavern", roll.Table)
	case <-deadline:
		t.Fatal("no roll event received")
	}
}

func TestSubscribeEvents_RequiresTable(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("t")
	assert.Equal(t, 1, sm.Subscribers("t"))

	sm.Broadcast("t", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("t"))
	_, open := <-ch
	assert.False(t, open)
}

func TestPresets(t *testing.T) {
	presets := registry.NewRegistry()
	require.NoError(t, presets.Register("advantage", dsl.Of(2).D(20).KeepHighest(1).MustBuild()))
	h := newTestHandler(t, WithPresets(presets))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/presets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"advantage","expr":"2d20kh","min":1,"max":20}]`, w.Body.String())

	w = post(t, h, "/roll", `{"preset": "advantage"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var roll RollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roll))
	assert.Equal(t, "2d20kh", roll.Expr)

	w = post(t, h, "/roll", `{"preset": "missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, h, "/roll", `{"preset": "advantage", "expr": {"kind": "die", "sides": 6}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPresets_NoneConfigured(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/presets", nil))
	assert.JSONEq(t, `[]`, w.Body.String())

	w = post(t, h, "/roll", `{"preset": "advantage"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
