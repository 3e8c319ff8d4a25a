package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/room-chat-server/domain/chat"
)

// fakeConn records delivered envelopes on a channel.
type fakeConn struct {
	frames chan Envelope
	fail   bool
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan Envelope, 16)}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.fail {
		return errors.New("connection gone")
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.frames <- env
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-c.frames:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func (c *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case env := <-c.frames:
		t.Fatalf("unexpected frame %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeRoster serves a fixed session list.
type fakeRoster struct {
	sessions []chat.Session
}

func (r *fakeRoster) SessionsIn(room string) []chat.Session {
	var out []chat.Session
	for _, s := range r.sessions {
		if s.Room == room {
			out = append(out, s)
		}
	}
	return out
}

func (r *fakeRoster) SessionsOf(username string) []chat.Session {
	var out []chat.Session
	for _, s := range r.sessions {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out
}

func startHub(t *testing.T, roster RosterSource) *Hub {
	t.Helper()
	hub := NewHub(roster)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

func TestHub_ToRoomDeliversToMembersOnly(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
		{ConnectionID: "conn-2", Username: "bob", Room: "general"},
		{ConnectionID: "conn-3", Username: "carol", Room: "random"},
	}}
	hub := startHub(t, roster)

	alice, bob, carol := newFakeConn(), newFakeConn(), newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})
	hub.Register(&Client{ID: "conn-2", Conn: bob})
	hub.Register(&Client{ID: "conn-3", Conn: carol})

	hub.ToRoom("general", "receive_message", map[string]any{"text": "hi"})

	for _, conn := range []*fakeConn{alice, bob} {
		env := conn.next(t)
		if env.Event != "receive_message" {
			t.Errorf("expected receive_message, got %q", env.Event)
		}
	}
	carol.expectNone(t)
}

func TestHub_ToRoomExceptSkipsSender(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
		{ConnectionID: "conn-2", Username: "bob", Room: "general"},
	}}
	hub := startHub(t, roster)

	alice, bob := newFakeConn(), newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})
	hub.Register(&Client{ID: "conn-2", Conn: bob})

	hub.ToRoomExcept("general", "conn-1", "user_joined", nil)

	if env := bob.next(t); env.Event != "user_joined" {
		t.Errorf("expected user_joined, got %q", env.Event)
	}
	alice.expectNone(t)
}

func TestHub_ToConnectionTargetsOne(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
		{ConnectionID: "conn-2", Username: "bob", Room: "general"},
	}}
	hub := startHub(t, roster)

	alice, bob := newFakeConn(), newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})
	hub.Register(&Client{ID: "conn-2", Conn: bob})

	hub.ToConnection("conn-1", "online_users", []string{"alice", "bob"})

	if env := alice.next(t); env.Event != "online_users" {
		t.Errorf("expected online_users, got %q", env.Event)
	}
	bob.expectNone(t)
}

func TestHub_ToUserReachesEveryTab(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
		{ConnectionID: "conn-2", Username: "alice", Room: "random"},
		{ConnectionID: "conn-3", Username: "bob", Room: "general"},
	}}
	hub := startHub(t, roster)

	tab1, tab2, bob := newFakeConn(), newFakeConn(), newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: tab1})
	hub.Register(&Client{ID: "conn-2", Conn: tab2})
	hub.Register(&Client{ID: "conn-3", Conn: bob})

	hub.ToUser("alice", "private_room_created", map[string]any{"inviteCode": "A1B2C3D4"})

	tab1.next(t)
	tab2.next(t)
	bob.expectNone(t)
}

func TestHub_FailedWriteSkipsClient(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
		{ConnectionID: "conn-2", Username: "bob", Room: "general"},
	}}
	hub := startHub(t, roster)

	alice := newFakeConn()
	alice.fail = true
	bob := newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})
	hub.Register(&Client{ID: "conn-2", Conn: bob})

	hub.ToRoom("general", "receive_message", nil)

	// Delivery to the healthy client must survive the failed write.
	if env := bob.next(t); env.Event != "receive_message" {
		t.Errorf("expected receive_message, got %q", env.Event)
	}
}

func TestHub_RoomOrderPreserved(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
	}}
	hub := startHub(t, roster)

	alice := newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})

	for i := 0; i < 5; i++ {
		hub.ToRoom("general", "receive_message", i)
	}
	for i := 0; i < 5; i++ {
		env := alice.next(t)
		if got := int(env.Data.(float64)); got != i {
			t.Fatalf("expected message %d, got %d", i, got)
		}
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	roster := &fakeRoster{sessions: []chat.Session{
		{ConnectionID: "conn-1", Username: "alice", Room: "general"},
	}}
	hub := startHub(t, roster)

	alice := newFakeConn()
	hub.Register(&Client{ID: "conn-1", Conn: alice})
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	hub.Unregister("conn-1")
	hub.ToRoom("general", "receive_message", nil)
	alice.expectNone(t)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}
