package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quote-charts/src/analysis"
	"quote-charts/src/config"
	"quote-charts/src/models"
	"quote-charts/src/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSession struct {
	state models.ConnectionState
}

func (f *fakeSession) State() models.ConnectionState { return f.state }

func (f *fakeSession) Stats() models.MSessionStats {
	return models.MSessionStats{SessionID: "abc-123", Connection: f.state.String(), TicksApplied: 7}
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T) (*FastAPIServer, *store.SeriesStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"

	st := store.NewSeriesStore(cfg.Store.IntradayCapacity, time.UTC, nil)
	st.ApplyHistorySnapshot(map[string][]models.MDailyBar{
		"ABC": {
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(10)},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(12)},
		},
	}, time.Now())

	charts := analysis.NewAnalysisFacade(cfg.MConfig, st, nil)
	s := NewFastAPIServer(cfg.MConfig, st, &fakeSession{state: models.Connected}, charts, nil, nil)
	return s, st
}

func get(t *testing.T, s *FastAPIServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

type chartBody struct {
	Ticker string `json:"ticker"`
	Range  struct {
		Key string `json:"key"`
	} `json:"range"`
	Points []struct {
		Value   string `json:"value"`
		Label   string `json:"label"`
		Spacing int    `json:"spacing"`
	} `json:"points"`
	Delta *struct {
		Absolute   string  `json:"absolute"`
		Percent    *string `json:"percent"`
		IsPositive bool    `json:"is_positive"`
	} `json:"delta"`
}

// -----------------------------------------------------------------------------
// REST
// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["connection"])
	assert.EqualValues(t, 1, body["symbols"])
	assert.NotZero(t, body["latest_update"])
}

func TestQuotes(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/quotes")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Quotes []struct {
			Ticker    string `json:"ticker"`
			Price     string `json:"price"`
			UpdatedAt string `json:"updated_at"`
		} `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Quotes, 1)
	assert.Equal(t, "ABC", body.Quotes[0].Ticker)
	assert.Equal(t, "12", body.Quotes[0].Price)
	assert.Len(t, body.Quotes[0].UpdatedAt, len(updatedAtLayout))
}

func TestRanges(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/ranges")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Ranges  []models.MRange `json:"ranges"`
		Default string          `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Ranges, 4)
	assert.Equal(t, "1M", body.Default)
	assert.Equal(t, "Hoy", body.Ranges[0].Label)
}

func TestChart(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/chart/ABC?range=1M&width=100")
	require.Equal(t, http.StatusOK, w.Code)

	var body chartBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ABC", body.Ticker)
	assert.Equal(t, "1M", body.Range.Key)
	require.Len(t, body.Points, 2)
	assert.Equal(t, "10", body.Points[0].Value)
	assert.Equal(t, "12", body.Points[1].Value)
	assert.Equal(t, 50, body.Points[0].Spacing)

	require.NotNil(t, body.Delta)
	assert.Equal(t, "2.00", body.Delta.Absolute)
	require.NotNil(t, body.Delta.Percent)
	assert.Equal(t, "20.00", *body.Delta.Percent)
	assert.True(t, body.Delta.IsPositive)
}

func TestChart_TickerIsExactKey(t *testing.T) {
	s, st := newTestServer(t)
	st.ApplyHistorySnapshot(map[string][]models.MDailyBar{
		"ABC": {
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(10)},
		},
		"brk.b": {
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(400)},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromInt(404)},
		},
	}, time.Now())

	cases := []struct {
		path   string
		ticker string
		points int
	}{
		{"/api/chart/brk.b?range=1M", "brk.b", 2},
		{"/api/chart/BRK.B?range=1M", "BRK.B", 0},
		{"/api/chart/Brk.b?range=1M", "Brk.b", 0},
		{"/api/chart/abc?range=1M", "abc", 0},
		{"/api/chart/ABC?range=1M", "ABC", 1},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := get(t, s, tc.path)
			require.Equal(t, http.StatusOK, w.Code)

			var body chartBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.ticker, body.Ticker)
			assert.Len(t, body.Points, tc.points)
		})
	}
}

func TestChart_DefaultRange(t *testing.T) {
	s, _ := newTestServer(t)

	var body chartBody
	w := get(t, s, "/api/chart/ABC")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1M", body.Range.Key)
}

func TestChart_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/chart/ABC?range=5Y").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/chart/ABC?width=wide").Code)

	// unknown ticker is not an error
	w := get(t, s, "/api/chart/ZZZ?range=1D")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"points":[]`)
	assert.Contains(t, w.Body.String(), `"delta":null`)
}

func TestSessionStats(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/api/session")
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.MSessionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "abc-123", stats.SessionID)
	assert.Equal(t, int64(7), stats.TicksApplied)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quotecharts_ticks_applied_total")
}

// -----------------------------------------------------------------------------
// Push hub
// -----------------------------------------------------------------------------

func dialPush(t *testing.T, s *FastAPIServer) *websocket.Conn {
	t.Helper()
	s.startHub()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPush(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPush_InitialQuotesThenUpdates(t *testing.T) {
	s, st := newTestServer(t)
	defer s.Stop(context.Background())

	conn := dialPush(t, s)

	first := readPush(t, conn)
	assert.Equal(t, "quotes", first["type"])
	assert.Len(t, first["quotes"], 1)

	require.True(t, st.ApplyTick("ABC", decimal.NewFromInt(13), time.Now().UnixMilli()))
	quote, _ := st.LatestQuote("ABC")
	s.PublishQuote(quote)

	msg := readPush(t, conn)
	assert.Equal(t, "quote", msg["type"])
	q := msg["quote"].(map[string]interface{})
	assert.Equal(t, "ABC", q["ticker"])
	assert.Equal(t, "13", q["price"])

	s.PublishConnection(models.Disconnected)
	msg = readPush(t, conn)
	assert.Equal(t, "connection", msg["type"])
	assert.Equal(t, "disconnected", msg["connection"])
}

func TestPush_ChartCommand(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.Stop(context.Background())

	conn := dialPush(t, s)
	readPush(t, conn)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "chart", Ticker: "ABC", Range: "1W"}))
	msg := readPush(t, conn)
	assert.Equal(t, "chart", msg["type"])
	chart := msg["chart"].(map[string]interface{})
	assert.Len(t, chart["points"], 2)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "chart", Ticker: "ABC", Range: "9Y"}))
	msg = readPush(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Contains(t, msg["error"], "unknown range")
}

func TestPush_BadCommandDisconnects(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.Stop(context.Background())

	conn := dialPush(t, s)
	readPush(t, conn)
	require.Equal(t, int64(1), s.clientCount.Load())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not a command")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.False(t, isTimeout(err), "expected close, got %v", err)
	assert.Eventually(t, func() bool { return s.clientCount.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAnswer(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Nil(t, s.answer(models.MClientCommand{Command: "subscribe"}))
	assert.Equal(t, "quotes", s.answer(models.MClientCommand{Command: "quotes"}).Type)

	response := s.answer(models.MClientCommand{Command: "chart", Ticker: "abc", Range: "1M"})
	require.Equal(t, "chart", response.Type)
	assert.Equal(t, "abc", response.Chart.Ticker)
	assert.Empty(t, response.Chart.Points)
	assert.NotZero(t, response.Timestamp)
}

func TestPush_StopDisconnectsClients(t *testing.T) {
	s, _ := newTestServer(t)

	conn := dialPush(t, s)
	readPush(t, conn)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.False(t, isTimeout(err), "expected close, got %v", err)
}

func isTimeout(err error) bool {
	if err == nil || err == io.EOF {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}
