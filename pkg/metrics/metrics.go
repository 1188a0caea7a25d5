package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks live websocket connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_connections_active",
		Help: "Number of live websocket connections.",
	})

	// EventsTotal counts inbound events by type and outcome
	// (accepted, or the drop reason).
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_events_total",
		Help: "Inbound sync events by type and outcome.",
	}, []string{"type", "outcome"})
)

// RegisterRoomGauges exposes registry sizes as gauges. Call once at startup.
func RegisterRoomGauges(rooms, sessions func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "canvas_rooms_active",
		Help: "Number of rooms currently in the registry.",
	}, func() float64 { return float64(rooms()) }))
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "canvas_sessions_active",
		Help: "Number of live sessions in the registry.",
	}, func() float64 { return float64(sessions()) }))
}

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
