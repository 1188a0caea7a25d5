package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"realtime-canvas/internal/app"
	"realtime-canvas/internal/core"
	"realtime-canvas/pkg/metrics"
)

// Hub owns the connection lifecycle: it mints the session id at accept
// time, feeds inbound frames to the protocol handler and guarantees the
// disconnect fires exactly once when the read loop ends.
type Hub struct {
	log      *slog.Logger
	cfg      app.Config
	handler  *core.Handler
	dispatch *core.Dispatcher
}

func NewHub(logger *slog.Logger, cfg app.Config, handler *core.Handler, dispatch *core.Dispatcher) *Hub {
	return &Hub{log: logger, cfg: cfg, handler: handler, dispatch: dispatch}
}

// ServeWS handles a new /ws connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := Accept(w, r, h.cfg.CORSAllow)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	sessionID := uuid.NewString()
	c := NewConn(sessionID, conn)

	h.handler.Connect(sessionID)
	h.dispatch.Attach(sessionID, c)
	metrics.ConnectionsActive.Inc()

	// Outbound writer
	go c.WriteLoop(ctx)

	// Inbound reader: one frame, one protocol event
	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		out := h.handler.Handle(sessionID, payload)
		metrics.EventsTotal.WithLabelValues(peekType(payload), outcomeLabel(out)).Inc()
	}

	// Detach before the leave broadcast so the departing session can
	// never receive its own user_left.
	h.dispatch.Detach(sessionID)
	h.handler.Disconnect(sessionID)
	metrics.ConnectionsActive.Dec()
	_ = c.Close()
}

// peekType extracts the envelope type for the metrics label only.
// Only the known inbound names pass through; anything else collapses to
// "unknown" so client-chosen strings cannot mint new label values.
func peekType(data []byte) string {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "unknown"
	}
	switch env.Type {
	case core.EvtJoinRoom, core.EvtMouseMove,
		core.EvtShapeCreated, core.EvtShapeUpdated, core.EvtShapeDeleted,
		core.EvtCanvasCleared, core.EvtChatMessage:
		return env.Type
	}
	return "unknown"
}

func outcomeLabel(o core.Outcome) string {
	if o.Accepted {
		return "accepted"
	}
	return string(o.Reason)
}
