package httpx

import (
	"net/http"

	"realtime-canvas/internal/app"
	"realtime-canvas/internal/core"
	"realtime-canvas/internal/ws"
	"realtime-canvas/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, hub *ws.Hub, rooms *core.RoomRegistry) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Rooms: rooms}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room endpoints
	mux.Handle("GET /{$}", http.HandlerFunc(api.Index))
	mux.Handle("GET /room/{id}", http.HandlerFunc(api.Describe))
	mux.Handle("POST /api/rooms", http.HandlerFunc(api.Create))
	mux.Handle("GET /api/rooms/{id}", http.HandlerFunc(api.Describe))

	return mw.Wrap(mux)
}
