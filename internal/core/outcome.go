package core

// DropReason tags why an event produced no mutation and no broadcast.
type DropReason string

const (
	DropUnknownSession DropReason = "unknown_session" // sender absent from the session registry
	DropNotJoined      DropReason = "not_joined"      // event needs room membership the sender lacks
	DropUnknownShape   DropReason = "unknown_shape"   // update targets an id not in the room
	DropValidation     DropReason = "validation"      // payload failed a precondition (empty/oversized chat)
	DropBadPayload     DropReason = "bad_payload"     // undecodable or unrecognized message
)

// Outcome is the result of processing one inbound event. Rejected events
// are absorbed, never surfaced to the client; the reason exists for logs,
// metrics and tests.
type Outcome struct {
	Accepted bool
	Reason   DropReason
}

func accepted() Outcome            { return Outcome{Accepted: true} }
func dropped(r DropReason) Outcome { return Outcome{Reason: r} }
