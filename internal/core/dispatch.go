package core

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Sink is one connection's outbound queue. Send must not block: a full
// queue returns false and the event is simply lost for that recipient.
type Sink interface {
	Send(data []byte) bool
}

// Audience selects the fan-out class of an outbound event.
type Audience int

const (
	AudienceSelf   Audience = iota // unicast to the triggering session
	AudienceOthers                 // every room member except the trigger
	AudienceRoom                   // every room member, trigger included
)

// Recipients resolves an audience against a membership snapshot. Pure:
// no registry or transport access, so fan-out rules are testable alone.
func Recipients(aud Audience, members []string, sender string) []string {
	switch aud {
	case AudienceSelf:
		for _, m := range members {
			if m == sender {
				return []string{sender}
			}
		}
		return nil
	case AudienceOthers:
		out := make([]string, 0, len(members))
		for _, m := range members {
			if m != sender {
				out = append(out, m)
			}
		}
		return out
	case AudienceRoom:
		out := make([]string, len(members))
		copy(out, members)
		return out
	}
	return nil
}

// Dispatcher fans encoded events out to attached sinks. Delivery is
// fire-and-forget against the membership read at call time: a session
// that detached while a broadcast was in flight just misses it.
type Dispatcher struct {
	log *slog.Logger

	mu    sync.RWMutex
	sinks map[string]Sink
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{log: log, sinks: map[string]Sink{}}
}

// Attach registers the outbound queue for a session id.
func (d *Dispatcher) Attach(sessionID string, s Sink) {
	d.mu.Lock()
	d.sinks[sessionID] = s
	d.mu.Unlock()
}

// Detach forgets the session's queue. Idempotent.
func (d *Dispatcher) Detach(sessionID string) {
	d.mu.Lock()
	delete(d.sinks, sessionID)
	d.mu.Unlock()
}

// ToSession unicasts one event.
func (d *Dispatcher) ToSession(sessionID string, e Event) {
	d.deliver([]string{sessionID}, e)
}

// ToRoom multicasts to a membership snapshot.
func (d *Dispatcher) ToRoom(members []string, e Event) {
	d.deliver(members, e)
}

// ToRoomExcept multicasts to a membership snapshot minus one session.
func (d *Dispatcher) ToRoomExcept(members []string, except string, e Event) {
	d.deliver(Recipients(AudienceOthers, members, except), e)
}

func (d *Dispatcher) deliver(targets []string, e Event) {
	if len(targets) == 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		d.log.Error("dispatch.encode", "type", e.Type, "err", err)
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range targets {
		sink, ok := d.sinks[id]
		if !ok {
			continue
		}
		if !sink.Send(data) {
			d.log.Warn("dispatch.queue_full", "type", e.Type, "session_id", id)
		}
	}
}
