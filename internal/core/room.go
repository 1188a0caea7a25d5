package core

import (
	"sync"
)

// Shape is one visual element owned by a room. Timestamps are float
// seconds since epoch on the wire.
type Shape struct {
	ID        string  `json:"id"`
	Kind      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Content   string  `json:"content,omitempty"`
	CreatedBy string  `json:"created_by"`
	CreatedAt float64 `json:"created_at"`
	UpdatedBy string  `json:"updated_by,omitempty"`
	UpdatedAt float64 `json:"updated_at,omitempty"`
}

// Room holds the member set and the shape collection for one room id.
// The mutex serializes every event touching the room, held by the
// protocol handler across the mutation and the fan-out enqueue so a new
// joiner's state handoff can never interleave with a concurrent edit.
type Room struct {
	id string

	mu      sync.Mutex
	members []string // session ids, insertion order
	shapes  []Shape  // creation order, broken only by deletion
	evicted bool     // set when the registry drops this instance; a joiner must re-fetch
}

func (r *Room) ID() string { return r.id }

// addMember appends the session unless already present. Caller holds r.mu.
func (r *Room) addMember(sessionID string) bool {
	for _, m := range r.members {
		if m == sessionID {
			return false
		}
	}
	r.members = append(r.members, sessionID)
	return true
}

// removeMember drops the session, preserving order of the rest.
// Caller holds r.mu.
func (r *Room) removeMember(sessionID string) bool {
	for i, m := range r.members {
		if m == sessionID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// membersExcept copies the member list minus one session. Caller holds r.mu.
func (r *Room) membersExcept(sessionID string) []string {
	out := make([]string, 0, len(r.members))
	for _, m := range r.members {
		if m != sessionID {
			out = append(out, m)
		}
	}
	return out
}

// allMembers copies the member list. Caller holds r.mu.
func (r *Room) allMembers() []string {
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}

// hasMember reports membership. Caller holds r.mu.
func (r *Room) hasMember(sessionID string) bool {
	for _, m := range r.members {
		if m == sessionID {
			return true
		}
	}
	return false
}

// copyShapes snapshots the collection in creation order. Caller holds r.mu.
func (r *Room) copyShapes() []Shape {
	out := make([]Shape, len(r.shapes))
	copy(out, r.shapes)
	return out
}

// appendShape adds a new shape. At most one shape per id may live in the
// collection; a duplicate id is rejected. Caller holds r.mu.
func (r *Room) appendShape(s Shape) bool {
	for i := range r.shapes {
		if r.shapes[i].ID == s.ID {
			return false
		}
	}
	r.shapes = append(r.shapes, s)
	return true
}

// mergeShape applies a partial update to the shape with the matching id,
// leaving absent fields untouched, and returns the stored result. First
// match wins. Caller holds r.mu.
func (r *Room) mergeShape(p ShapeUpdatePayload, by string, at float64) (Shape, bool) {
	for i := range r.shapes {
		if r.shapes[i].ID != p.ID {
			continue
		}
		s := &r.shapes[i]
		if p.X != nil {
			s.X = *p.X
		}
		if p.Y != nil {
			s.Y = *p.Y
		}
		if p.Width != nil {
			s.Width = *p.Width
		}
		if p.Height != nil {
			s.Height = *p.Height
		}
		if p.Kind != nil {
			s.Kind = *p.Kind
		}
		if p.Content != nil {
			s.Content = *p.Content
		}
		s.UpdatedBy = by
		s.UpdatedAt = at
		return *s, true
	}
	return Shape{}, false
}

// deleteShape removes by id, preserving the order of the remaining
// shapes. No-op when absent. Caller holds r.mu.
func (r *Room) deleteShape(id string) bool {
	for i := range r.shapes {
		if r.shapes[i].ID == id {
			r.shapes = append(r.shapes[:i], r.shapes[i+1:]...)
			return true
		}
	}
	return false
}

// clearShapes empties the collection. Caller holds r.mu.
func (r *Room) clearShapes() {
	r.shapes = nil
}

// Members returns a snapshot of the member session ids in join order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allMembers()
}

// Shapes returns a snapshot of the shape collection in creation order.
func (r *Room) Shapes() []Shape {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyShapes()
}

// RoomRegistry owns every Room, keyed by externally supplied room id.
// Rooms are created lazily on first join and, depending on policy, either
// retained forever or dropped once empty.
type RoomRegistry struct {
	retainEmpty bool

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRoomRegistry(retainEmpty bool) *RoomRegistry {
	return &RoomRegistry{retainEmpty: retainEmpty, rooms: map[string]*Room{}}
}

// GetOrCreate returns the room, creating an empty one for an unseen id.
func (rr *RoomRegistry) GetOrCreate(roomID string) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rm := rr.rooms[roomID]
	if rm == nil {
		rm = &Room{id: roomID}
		rr.rooms[roomID] = rm
	}
	return rm
}

// Get looks up a room without creating it.
func (rr *RoomRegistry) Get(roomID string) (*Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	rm, ok := rr.rooms[roomID]
	return rm, ok
}

// dropIfEmpty removes the room when the retention policy allows and the
// member set is empty, marking the instance evicted so a join racing the
// removal re-fetches instead of binding to the orphan. Lock order is
// registry then room, matching GetOrCreate callers that never hold a
// room lock.
func (rr *RoomRegistry) dropIfEmpty(roomID string) {
	if rr.retainEmpty {
		return
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rm, ok := rr.rooms[roomID]
	if !ok {
		return
	}
	rm.mu.Lock()
	if len(rm.members) == 0 {
		rm.evicted = true
		delete(rr.rooms, roomID)
	}
	rm.mu.Unlock()
}

// Len reports the number of rooms currently in the registry.
func (rr *RoomRegistry) Len() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}
