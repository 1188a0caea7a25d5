package core

import "encoding/json"

// Inbound event names (client -> server).
const (
	EvtJoinRoom      = "join_room"
	EvtMouseMove     = "mouse_move"
	EvtShapeCreated  = "shape_created"
	EvtShapeUpdated  = "shape_updated"
	EvtShapeDeleted  = "shape_deleted"
	EvtCanvasCleared = "canvas_cleared"
	EvtChatMessage   = "chat_message"
)

// Outbound event names (server -> client). shape_*, canvas_cleared and
// chat_message reuse the inbound names.
const (
	EvtUserInfo      = "user_info"
	EvtUserJoined    = "user_joined"
	EvtUserLeft      = "user_left"
	EvtLoadShapes    = "load_shapes"
	EvtCurrentUsers  = "current_users"
	EvtUserMouseMove = "user_mouse_move"
)

// Event is the wire envelope. The shape payload carries its own "type"
// field (the rendering kind), so payloads are nested under "data" rather
// than flattened into the envelope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound payloads.

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type MouseMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ShapeCreatePayload struct {
	ID      string  `json:"id"`
	Kind    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Content string  `json:"content,omitempty"`
}

// ShapeUpdatePayload carries a partial update: nil pointer fields were
// absent from the request and leave the stored value untouched.
type ShapeUpdatePayload struct {
	ID      string   `json:"id"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	Kind    *string  `json:"type,omitempty"`
	Content *string  `json:"content,omitempty"`
}

type ShapeDeletePayload struct {
	ID string `json:"id"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

// Outbound payloads.

// UserIdentity doubles as user_info (to self) and user_joined (to others).
type UserIdentity struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Color     string `json:"color"`
}

type UserLeftPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type LoadShapesPayload struct {
	Shapes []Shape `json:"shapes"`
}

// UserPresence is one entry of the current_users snapshot sent to a new
// joiner: identity plus last-known cursor.
type UserPresence struct {
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	Color     string  `json:"color"`
	MouseX    float64 `json:"mouse_x"`
	MouseY    float64 `json:"mouse_y"`
}

type CurrentUsersPayload struct {
	Users []UserPresence `json:"users"`
}

type MouseBroadcastPayload struct {
	SessionID string  `json:"session_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type ShapeDeletedPayload struct {
	ID        string `json:"id"`
	DeletedBy string `json:"deleted_by"`
}

type CanvasClearedPayload struct {
	ClearedBy string `json:"cleared_by"`
}

type ChatBroadcastPayload struct {
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	UserColor string  `json:"user_color"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}
