package chat

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDispatcher_BroadcastExcludesSender(t *testing.T) {
	r := NewRegistry(nil)
	d := NewDispatcher(r, nil)

	alice := registerSession(t, r, "id-alice", "alice")
	bob := registerSession(t, r, "id-bob", "bob")

	d.Broadcast(Frame{Sender: "alice", Text: "hello"}, "id-alice")

	if got := mustReceive(t, bob); got != "alice: hello" {
		t.Fatalf("unexpected line for bob: %q", got)
	}
	if n := len(alice.Outbound()); n != 0 {
		t.Fatalf("sender must not receive its own frame, got %d queued", n)
	}
}

func TestDispatcher_DropOnFullOutbox(t *testing.T) {
	r := NewRegistry(nil)
	d := NewDispatcher(r, nil)

	// Outbox capacity 1 and no writer draining it.
	slow := NewSession("id-slow", nil, 1)
	slow.Name = "slow"
	if err := r.Register(slow); err != nil {
		t.Fatalf("register: %v", err)
	}

	before := testutil.ToFloat64(FramesDropped)

	d.Broadcast(Frame{Sender: "alice", Text: "first"}, "")
	d.Broadcast(Frame{Sender: "alice", Text: "second"}, "")

	if got := testutil.ToFloat64(FramesDropped) - before; got != 1 {
		t.Fatalf("expected 1 dropped frame, got %v", got)
	}
	if got := mustReceive(t, slow); got != "alice: first" {
		t.Fatalf("unexpected delivered line: %q", got)
	}
	if n := len(slow.Outbound()); n != 0 {
		t.Fatalf("expected the second frame to be dropped, %d queued", n)
	}
}

func TestDispatcher_BroadcastAfterUnregisterReachesNoOne(t *testing.T) {
	r := NewRegistry(nil)
	d := NewDispatcher(r, nil)

	gone := registerSession(t, r, "id-gone", "gone")
	r.Unregister("id-gone")

	// Must succeed without error or panic even with nobody listening.
	d.Broadcast(Frame{Sender: "nobody", Text: "into the void"}, "")

	if _, open := <-gone.Outbound(); open {
		t.Fatal("expected closed, empty outbox for unregistered session")
	}
}

func TestDispatcher_SystemNotice(t *testing.T) {
	r := NewRegistry(nil)
	d := NewDispatcher(r, nil)

	alice := registerSession(t, r, "id-alice", "alice")
	bob := registerSession(t, r, "id-bob", "bob")

	d.System("alice has left the chat", "id-alice")

	if got := mustReceive(t, bob); got != "SYSTEM: alice has left the chat" {
		t.Fatalf("unexpected notice: %q", got)
	}
	if n := len(alice.Outbound()); n != 0 {
		t.Fatalf("excluded session must not receive the notice, %d queued", n)
	}
}

func registerSession(t *testing.T, r *Registry, id, name string) *Session {
	t.Helper()
	s := NewSession(id, nil, 64)
	s.Name = name
	if err := r.Register(s); err != nil {
		t.Fatalf("register(%s): %v", name, err)
	}
	return s
}

func mustReceive(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case line := <-s.Outbound():
		return line
	default:
		t.Fatal("expected a queued line")
		return ""
	}
}
