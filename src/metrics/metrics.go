package metrics

import (
	"net/http"
	"sync"

	"quote-charts/src/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotecharts_frames_received_total",
		Help: "Feed frames classified, by frame type.",
	}, []string{"type"})

	FramesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotecharts_frames_dropped_total",
		Help: "Feed frames dropped without reaching the store.",
	}, []string{"reason"})

	SnapshotsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotecharts_snapshots_applied_total",
		Help: "History snapshots applied to the store.",
	})

	TicksApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotecharts_ticks_applied_total",
		Help: "Ticks appended to an intraday buffer.",
	})

	TicksIgnored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotecharts_ticks_ignored_total",
		Help: "Ticks for symbols without history.",
	})

	ConnectionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quotecharts_connection_state",
		Help: "Feed connection state (0 disconnected, 1 connecting, 2 connected).",
	})

	PushClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quotecharts_push_clients",
		Help: "WebSocket clients subscribed to quote pushes.",
	})

	ArchiveErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotecharts_archive_errors_total",
		Help: "Failed archive writes.",
	})
)

// Drop reasons
const (
	DropMalformed = "malformed"
	DropBinary    = "binary"
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FramesReceived,
			FramesDropped,
			SnapshotsApplied,
			TicksApplied,
			TicksIgnored,
			ConnectionState,
			PushClients,
			ArchiveErrors,
		)
	})
}

// SetConnectionState mirrors the session state on the gauge
func SetConnectionState(state models.ConnectionState) {
	ConnectionState.Set(float64(state))
}

// Handler serves the default registry
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}
