package core

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipients(t *testing.T) {
	members := []string{"a", "b", "c"}

	tests := []struct {
		name    string
		aud     Audience
		members []string
		sender  string
		want    []string
	}{
		{"self when member", AudienceSelf, members, "b", []string{"b"}},
		{"self when not member", AudienceSelf, members, "z", nil},
		{"others excludes sender", AudienceOthers, members, "b", []string{"a", "c"}},
		{"others with outside sender", AudienceOthers, members, "z", []string{"a", "b", "c"}},
		{"room includes sender", AudienceRoom, members, "b", []string{"a", "b", "c"}},
		{"empty room", AudienceOthers, nil, "a", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recipients(tt.aud, tt.members, tt.sender)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func newDispatcher() *Dispatcher {
	return NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcherPrimitives(t *testing.T) {
	d := newDispatcher()
	a, b, c := &mockSink{}, &mockSink{}, &mockSink{}
	d.Attach("a", a)
	d.Attach("b", b)
	d.Attach("c", c)

	d.ToSession("a", Event{Type: "one"})
	d.ToRoom([]string{"a", "b"}, Event{Type: "two"})
	d.ToRoomExcept([]string{"a", "b", "c"}, "b", Event{Type: "three"})

	assert.Equal(t, []string{"one", "two", "three"}, a.types(t))
	assert.Equal(t, []string{"two"}, b.types(t))
	assert.Equal(t, []string{"three"}, c.types(t))
}

func TestDispatcherSkipsDetached(t *testing.T) {
	d := newDispatcher()
	a := &mockSink{}
	d.Attach("a", a)
	d.Attach("b", &mockSink{})
	d.Detach("b")

	// Target list still names the departed session: best-effort skip.
	d.ToRoom([]string{"a", "b"}, Event{Type: "x"})
	assert.Equal(t, []string{"x"}, a.types(t))
}

func TestDispatcherFullQueueDoesNotBlockOthers(t *testing.T) {
	d := newDispatcher()
	stuck := &mockSink{full: true}
	ok := &mockSink{}
	d.Attach("stuck", stuck)
	d.Attach("ok", ok)

	d.ToRoom([]string{"stuck", "ok"}, Event{Type: "x"})

	require.Equal(t, []string{"x"}, ok.types(t))
	assert.Empty(t, stuck.events(t))
}

func TestDispatcherEncodesOnce(t *testing.T) {
	d := newDispatcher()
	a, b := &mockSink{}, &mockSink{}
	d.Attach("a", a)
	d.Attach("b", b)

	d.ToRoom([]string{"a", "b"}, Event{Type: EvtChatMessage, Data: ChatBroadcastPayload{Message: "hi"}})

	ea, eb := a.events(t), b.events(t)
	require.Len(t, ea, 1)
	require.Len(t, eb, 1)
	assert.Equal(t, string(ea[0].Data), string(eb[0].Data))
}
