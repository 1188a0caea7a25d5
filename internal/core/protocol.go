package core

import (
	"encoding/json"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultChatMaxLen caps chat messages when no limit is configured.
const DefaultChatMaxLen = 500

// Handler is the synchronization protocol state machine. Every inbound
// event runs to completion here: validate the sender, mutate the
// registries, enqueue the fan-out. The affected room's lock is held from
// the first mutation through the last enqueue, so deliveries for one
// event can never interleave with another event in the same room.
type Handler struct {
	log      *slog.Logger
	sessions *SessionRegistry
	rooms    *RoomRegistry
	dispatch *Dispatcher

	chatMaxLen int
	now        func() time.Time
}

func NewHandler(log *slog.Logger, sessions *SessionRegistry, rooms *RoomRegistry, dispatch *Dispatcher, chatMaxLen int) *Handler {
	if chatMaxLen <= 0 {
		chatMaxLen = DefaultChatMaxLen
	}
	return &Handler{
		log:        log,
		sessions:   sessions,
		rooms:      rooms,
		dispatch:   dispatch,
		chatMaxLen: chatMaxLen,
		now:        time.Now,
	}
}

// unixSeconds is the wire timestamp format: float seconds since epoch.
func (h *Handler) unixSeconds() float64 {
	return float64(h.now().UnixMilli()) / 1000
}

// Connect creates the session record for a fresh connection. No broadcast.
func (h *Handler) Connect(sessionID string) {
	if _, ok := h.sessions.Create(sessionID); ok {
		h.log.Info("session.connect", "session_id", sessionID)
	}
}

// Disconnect removes the session from its room (notifying the remaining
// members) and destroys the session record. Safe to call for unknown ids.
func (h *Handler) Disconnect(sessionID string) {
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		return
	}
	if sess.RoomID != "" {
		h.leaveRoom(sess)
	}
	h.sessions.Remove(sessionID)
	h.log.Info("session.disconnect", "session_id", sessionID)
}

// leaveRoom detaches the session from its current room and tells the
// members that remain.
func (h *Handler) leaveRoom(sess Session) {
	rm, ok := h.rooms.Get(sess.RoomID)
	if !ok {
		return
	}
	rm.mu.Lock()
	if rm.removeMember(sess.ID) {
		h.dispatch.ToRoom(rm.allMembers(), Event{Type: EvtUserLeft, Data: UserLeftPayload{
			SessionID: sess.ID,
			UserID:    sess.UserID,
		}})
	}
	rm.mu.Unlock()
	h.rooms.dropIfEmpty(sess.RoomID)
}

// Handle decodes one inbound frame and routes it. All failure paths are
// silent drops; the Outcome carries the reason for logs and metrics.
func (h *Handler) Handle(sessionID string, data []byte) Outcome {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return h.drop(sessionID, "", DropBadPayload)
	}

	var out Outcome
	switch env.Type {
	case EvtJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.JoinRoom(sessionID, p)
	case EvtMouseMove:
		var p MouseMovePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.MouseMove(sessionID, p)
	case EvtShapeCreated:
		var p ShapeCreatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.ShapeCreated(sessionID, p)
	case EvtShapeUpdated:
		var p ShapeUpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.ShapeUpdated(sessionID, p)
	case EvtShapeDeleted:
		var p ShapeDeletePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.ShapeDeleted(sessionID, p)
	case EvtCanvasCleared:
		out = h.CanvasCleared(sessionID)
	case EvtChatMessage:
		var p ChatPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return h.drop(sessionID, env.Type, DropBadPayload)
		}
		out = h.ChatMessage(sessionID, p)
	default:
		out = h.drop(sessionID, env.Type, DropBadPayload)
	}
	return out
}

func (h *Handler) drop(sessionID, evt string, reason DropReason) Outcome {
	h.log.Debug("event.drop", "type", evt, "session_id", sessionID, "reason", string(reason))
	return dropped(reason)
}

// JoinRoom binds the session to a room and performs the state handoff:
// own identity to the joiner, a presence notice to existing members, then
// the full shape list and the current-member snapshot to the joiner. A
// join while bound to a different room leaves that room first; rejoining
// the bound room is idempotent and just replays the handoff.
func (h *Handler) JoinRoom(sessionID string, p JoinRoomPayload) Outcome {
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		return h.drop(sessionID, EvtJoinRoom, DropUnknownSession)
	}
	roomID := p.RoomID
	if roomID == "" {
		roomID = "default"
	}

	if sess.RoomID != "" && sess.RoomID != roomID {
		h.leaveRoom(sess)
	}
	h.sessions.SetRoom(sessionID, roomID)

	rm := h.acquireRoom(roomID)
	defer rm.mu.Unlock()

	joined := rm.addMember(sessionID)
	others := rm.membersExcept(sessionID)

	identity := UserIdentity{SessionID: sess.ID, UserID: sess.UserID, Color: sess.Color}
	h.dispatch.ToSession(sessionID, Event{Type: EvtUserInfo, Data: identity})
	if joined {
		h.dispatch.ToRoom(others, Event{Type: EvtUserJoined, Data: identity})
	}

	if len(rm.shapes) > 0 {
		h.dispatch.ToSession(sessionID, Event{Type: EvtLoadShapes, Data: LoadShapesPayload{Shapes: rm.copyShapes()}})
	}

	var present []UserPresence
	for _, sid := range others {
		other, ok := h.sessions.Get(sid)
		if !ok {
			continue
		}
		present = append(present, UserPresence{
			SessionID: other.ID,
			UserID:    other.UserID,
			Color:     other.Color,
			MouseX:    other.MouseX,
			MouseY:    other.MouseY,
		})
	}
	if len(present) > 0 {
		h.dispatch.ToSession(sessionID, Event{Type: EvtCurrentUsers, Data: CurrentUsersPayload{Users: present}})
	}

	h.log.Info("room.join", "room_id", roomID, "session_id", sessionID, "members", len(others)+1)
	return accepted()
}

// acquireRoom returns the registered room for the id with its lock held.
// A disconnect of the room's last member can evict the instance between
// the registry lookup and the lock acquisition; binding a member to that
// orphan would wedge the session, so re-fetch until the locked instance
// is still the registered one.
func (h *Handler) acquireRoom(roomID string) *Room {
	for {
		rm := h.rooms.GetOrCreate(roomID)
		rm.mu.Lock()
		if !rm.evicted {
			return rm
		}
		rm.mu.Unlock()
	}
}

// joinedRoom resolves the sender's session and room, enforcing the two
// membership preconditions shared by every post-join event.
func (h *Handler) joinedRoom(sessionID, evt string) (Session, *Room, Outcome) {
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		return Session{}, nil, h.drop(sessionID, evt, DropUnknownSession)
	}
	if sess.RoomID == "" {
		return Session{}, nil, h.drop(sessionID, evt, DropNotJoined)
	}
	rm, ok := h.rooms.Get(sess.RoomID)
	if !ok {
		return Session{}, nil, h.drop(sessionID, evt, DropNotJoined)
	}
	return sess, rm, accepted()
}

// MouseMove records the cursor position and relays it to everyone else
// in the room.
func (h *Handler) MouseMove(sessionID string, p MouseMovePayload) Outcome {
	_, rm, out := h.joinedRoom(sessionID, EvtMouseMove)
	if !out.Accepted {
		return out
	}
	h.sessions.UpdateCursor(sessionID, p.X, p.Y)

	rm.mu.Lock()
	h.dispatch.ToRoomExcept(rm.allMembers(), sessionID, Event{Type: EvtUserMouseMove, Data: MouseBroadcastPayload{
		SessionID: sessionID,
		X:         p.X,
		Y:         p.Y,
	}})
	rm.mu.Unlock()
	return accepted()
}

// ShapeCreated appends the shape with provenance stamped and relays the
// stored record to the rest of the room. A duplicate id is rejected to
// keep at most one shape per id in the collection.
func (h *Handler) ShapeCreated(sessionID string, p ShapeCreatePayload) Outcome {
	_, rm, out := h.joinedRoom(sessionID, EvtShapeCreated)
	if !out.Accepted {
		return out
	}
	shape := Shape{
		ID:        p.ID,
		Kind:      p.Kind,
		X:         p.X,
		Y:         p.Y,
		Width:     p.Width,
		Height:    p.Height,
		Content:   p.Content,
		CreatedBy: sessionID,
		CreatedAt: h.unixSeconds(),
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if !rm.appendShape(shape) {
		return h.drop(sessionID, EvtShapeCreated, DropValidation)
	}
	h.dispatch.ToRoomExcept(rm.allMembers(), sessionID, Event{Type: EvtShapeCreated, Data: shape})
	return accepted()
}

// ShapeUpdated merges a partial update into the matching shape and relays
// the full updated record. Unknown ids are dropped without broadcast.
func (h *Handler) ShapeUpdated(sessionID string, p ShapeUpdatePayload) Outcome {
	_, rm, out := h.joinedRoom(sessionID, EvtShapeUpdated)
	if !out.Accepted {
		return out
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	shape, found := rm.mergeShape(p, sessionID, h.unixSeconds())
	if !found {
		return h.drop(sessionID, EvtShapeUpdated, DropUnknownShape)
	}
	h.dispatch.ToRoomExcept(rm.allMembers(), sessionID, Event{Type: EvtShapeUpdated, Data: shape})
	return accepted()
}

// ShapeDeleted removes by id and relays the deletion. Deleting an absent
// id is treated as already satisfied: still broadcast, still accepted.
func (h *Handler) ShapeDeleted(sessionID string, p ShapeDeletePayload) Outcome {
	_, rm, out := h.joinedRoom(sessionID, EvtShapeDeleted)
	if !out.Accepted {
		return out
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.deleteShape(p.ID)
	h.dispatch.ToRoomExcept(rm.allMembers(), sessionID, Event{Type: EvtShapeDeleted, Data: ShapeDeletedPayload{
		ID:        p.ID,
		DeletedBy: sessionID,
	}})
	return accepted()
}

// CanvasCleared empties the room's shape collection and tells the others.
func (h *Handler) CanvasCleared(sessionID string) Outcome {
	_, rm, out := h.joinedRoom(sessionID, EvtCanvasCleared)
	if !out.Accepted {
		return out
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.clearShapes()
	h.dispatch.ToRoomExcept(rm.allMembers(), sessionID, Event{Type: EvtCanvasCleared, Data: CanvasClearedPayload{
		ClearedBy: sessionID,
	}})
	return accepted()
}

// ChatMessage validates, neutralizes markup, stamps sender identity and
// delivers to the whole room, sender included.
func (h *Handler) ChatMessage(sessionID string, p ChatPayload) Outcome {
	sess, rm, out := h.joinedRoom(sessionID, EvtChatMessage)
	if !out.Accepted {
		return out
	}
	msg := strings.TrimSpace(p.Message)
	if msg == "" || utf8.RuneCountInString(msg) > h.chatMaxLen {
		return h.drop(sessionID, EvtChatMessage, DropValidation)
	}
	msg = html.EscapeString(msg)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	h.dispatch.ToRoom(rm.allMembers(), Event{Type: EvtChatMessage, Data: ChatBroadcastPayload{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		UserColor: sess.Color,
		Message:   msg,
		Timestamp: h.unixSeconds(),
	}})
	return accepted()
}
