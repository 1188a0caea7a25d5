package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Conn wraps one websocket connection with a buffered outbound queue so
// a slow reader never stalls a broadcast for the rest of its room.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket
func Accept(w http.ResponseWriter, r *http.Request, origins []string) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  origins,
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection for one session id
func NewConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{
		id:  id,
		ws:  ws,
		out: make(chan []byte, 256),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues an outbound frame without blocking. Implements core.Sink;
// returns false when the queue is full and the frame is lost.
func (c *Conn) Send(data []byte) bool {
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
