package httpx

import (
	"encoding/json"
	"net/http"

	"realtime-canvas/internal/core"
	"realtime-canvas/pkg/roomid"
)

// RoomsAPI serves room minting and read-only room snapshots. All room
// mutation happens over the websocket; these endpoints only hand out
// identifiers and answer "does this room exist, how busy is it".
type RoomsAPI struct {
	Rooms *core.RoomRegistry
}

type roomCreated struct {
	RoomID string `json:"room_id"`
}

type roomSnapshot struct {
	RoomID  string `json:"room_id"`
	Members int    `json:"members"`
	Shapes  int    `json:"shapes"`
}

// Index mints a fresh room id and redirects to its room URL, so hitting
// the bare host always lands in a new room.
func (a *RoomsAPI) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/room/"+roomid.New(), http.StatusFound)
}

// Create mints a room id without creating registry state; the room
// materializes lazily on first join.
func (a *RoomsAPI) Create(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, roomCreated{RoomID: roomid.New()})
}

// Describe returns the room's URL-addressed descriptor. Rooms are
// auto-created on join, so an unknown id is still a valid destination:
// report it with zero members rather than a 404.
func (a *RoomsAPI) Describe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap := roomSnapshot{RoomID: id}
	if rm, ok := a.Rooms.Get(id); ok {
		snap.Members = len(rm.Members())
		snap.Shapes = len(rm.Shapes())
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
