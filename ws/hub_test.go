package ws

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []Envelope
	closed bool
	fail   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.sent = append(f.sent, v.(Envelope))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) envelopes() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeConn) lastType() string {
	msgs := f.envelopes()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Type
}

func (f *fakeConn) countType(typ string) int {
	n := 0
	for _, env := range f.envelopes() {
		if env.Type == typ {
			n++
		}
	}
	return n
}

func TestRegisterSendsWelcomeBeforeAuth(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}
	hub.Register(c)

	msgs := c.envelopes()
	if len(msgs) != 1 || msgs[0].Type != "welcome" {
		t.Fatalf("expected a welcome frame on connect, got %+v", msgs)
	}
	payload := msgs[0].Payload.(map[string]interface{})
	if payload["message"] == "" || payload["message"] == nil {
		t.Errorf("welcome payload missing message: %v", payload)
	}
	if payload["timestamp"] == "" || payload["timestamp"] == nil {
		t.Errorf("welcome payload missing timestamp: %v", payload)
	}

	// Auth only binds the user id; no second greeting.
	hub.Auth(c, "user-1")
	if got := c.countType("welcome"); got != 1 {
		t.Errorf("welcome frames = %d, want 1", got)
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub()
	in := &fakeConn{}
	out := &fakeConn{}
	hub.Register(in)
	hub.Register(out)
	hub.Join(in, "ch-1")
	hub.Join(out, "ch-2")

	hub.BroadcastChallengeStats("ch-1", 7)

	if got := in.lastType(); got != "challenge_stats" {
		t.Errorf("room member got %q, want challenge_stats", got)
	}
	if out.countType("challenge_stats") != 0 {
		t.Error("non-member received a room broadcast")
	}

	msgs := in.envelopes()
	payload := msgs[len(msgs)-1].Payload.(map[string]interface{})
	if payload["submissionCount"] != int64(7) {
		t.Errorf("submissionCount = %v, want 7", payload["submissionCount"])
	}
}

func TestTypingExcludesSenderAndRequiresAuth(t *testing.T) {
	hub := NewHub()
	sender := &fakeConn{}
	peer := &fakeConn{}
	hub.Register(sender)
	hub.Register(peer)
	hub.Join(sender, "ch-1")
	hub.Join(peer, "ch-1")

	// Unauthenticated senders are ignored.
	hub.Typing(sender, "ch-1", true)
	if peer.countType("user_typing") != 0 {
		t.Fatal("typing relayed for unauthenticated sender")
	}

	hub.Auth(sender, "user-1")
	hub.Typing(sender, "ch-1", true)

	if got := peer.lastType(); got != "user_typing" {
		t.Fatalf("peer got %q, want user_typing", got)
	}
	for _, env := range sender.envelopes() {
		if env.Type == "user_typing" {
			t.Error("typing echoed back to the sender")
		}
	}
}

func TestLeaveStopsRoomDelivery(t *testing.T) {
	hub := NewHub()
	c := &fakeConn{}
	hub.Register(c)
	hub.Join(c, "ch-1")
	hub.Leave(c, "ch-1")

	hub.BroadcastChallengeStats("ch-1", 1)
	if c.countType("challenge_stats") != 0 {
		t.Error("received broadcast after leaving the room")
	}
}

func TestSweepClosesIdleConnections(t *testing.T) {
	hub := NewHub()
	idle := &fakeConn{}
	live := &fakeConn{}
	hub.Register(idle)
	hub.Register(live)

	hub.mu.Lock()
	hub.clients[idle].lastSeen = time.Now().Add(-2 * idleTimeout)
	hub.mu.Unlock()

	hub.sweep(time.Now())

	if !idle.closed {
		t.Error("idle connection not force-closed")
	}
	if live.closed {
		t.Error("live connection closed by sweep")
	}
	if got := live.lastType(); got != "ping" {
		t.Errorf("live connection got %q, want ping", got)
	}
	if hub.ConnectionCount() != 1 {
		t.Errorf("connection count = %d, want 1", hub.ConnectionCount())
	}
}

func TestFailedWriteDropsConnection(t *testing.T) {
	hub := NewHub()
	broken := &fakeConn{fail: true}
	hub.Register(broken)
	hub.Join(broken, "ch-1")

	hub.BroadcastChallengeStats("ch-1", 1)

	if !broken.closed {
		t.Error("broken connection not closed after failed write")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("connection count = %d, want 0", hub.ConnectionCount())
	}
}
