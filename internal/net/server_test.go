package net

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/world"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	cfg := config.Defaults().Network
	cfg.ReadTimeout = 5 * time.Second
	s := NewServer(cfg, zap.NewNop())
	hs := httptest.NewServer(s)
	t.Cleanup(hs.Close)
	return s, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func readFrame(t *testing.T, c *websocket.Conn) ServerFrame {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f ServerFrame
	if err := c.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func join(t *testing.T, s *Server, c *websocket.Conn, client string) *Session {
	t.Helper()
	if err := c.WriteJSON(ClientFrame{Type: FrameJoin, ClientID: world.ClientID(client), Name: client}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	if f := readFrame(t, c); f.Type != FrameJoined {
		t.Fatalf("got %+v, want joined", f)
	}
	select {
	case sess := <-s.NewSessions():
		return sess
	case <-time.After(2 * time.Second):
		t.Fatal("session never reached the game loop")
	}
	return nil
}

func TestJoinAndIntentFlow(t *testing.T) {
	s, url := testServer(t)
	c := dial(t, url)
	sess := join(t, s, c, "c-alpha")
	if sess.ClientID != "c-alpha" || sess.Name != "c-alpha" {
		t.Fatalf("session = %+v", sess)
	}

	raw := json.RawMessage(`{"type":"spawn","clientID":"c-alpha","x":3,"y":4}`)
	if err := c.WriteJSON(ClientFrame{Type: FrameIntent, Intent: raw}); err != nil {
		t.Fatal(err)
	}
	select {
	case in := <-sess.InQueue:
		sp, ok := in.(*intent.Spawn)
		if !ok || sp.X != 3 || sp.Y != 4 {
			t.Fatalf("queued %#v", in)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("intent not queued")
	}

	frame, err := EventFrame("message", 7, map[string]string{"text": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	sess.Send(frame)
	sess.FlushOutput()
	if f := readFrame(t, c); f.Type != FrameEvent || f.Event != "message" || f.Tick != 7 {
		t.Fatalf("got %+v", f)
	}
}

func TestSpoofedIntentRefused(t *testing.T) {
	s, url := testServer(t)
	c := dial(t, url)
	sess := join(t, s, c, "c-alpha")

	raw := json.RawMessage(`{"type":"spawn","clientID":"c-beta","x":1,"y":1}`)
	if err := c.WriteJSON(ClientFrame{Type: FrameIntent, Intent: raw}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, c); f.Type != FrameError {
		t.Fatalf("got %+v, want error", f)
	}
	if len(sess.InQueue) != 0 {
		t.Fatal("spoofed intent queued")
	}
}

func TestInvalidIntentReportsError(t *testing.T) {
	s, url := testServer(t)
	c := dial(t, url)
	join(t, s, c, "c-alpha")
	if err := c.WriteJSON(ClientFrame{Type: FrameIntent, Intent: json.RawMessage(`{"type":"fly"}`)}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, c); f.Type != FrameError || f.Error == "" {
		t.Fatalf("got %+v, want error", f)
	}
}

func TestHandshakeRequiresJoin(t *testing.T) {
	s, url := testServer(t)
	c := dial(t, url)
	if err := c.WriteJSON(ClientFrame{Type: FrameIntent}); err != nil {
		t.Fatal(err)
	}
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := c.ReadMessage(); err == nil {
		t.Fatal("connection stayed open without a join")
	}
	select {
	case <-s.NewSessions():
		t.Fatal("session created without a join")
	default:
	}
}

func TestDisconnectReported(t *testing.T) {
	s, url := testServer(t)
	c := dial(t, url)
	sess := join(t, s, c, "c-alpha")
	c.Close()
	select {
	case id := <-s.DeadSessions():
		if id != sess.ID {
			t.Fatalf("dead session %d, want %d", id, sess.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported")
	}
	if !sess.IsClosed() {
		t.Fatal("session not closed")
	}
}

func TestSessionStoreOrder(t *testing.T) {
	st := NewSessionStore()
	for _, id := range []uint64{5, 2, 9} {
		st.Add(&Session{ID: id})
	}
	var got []uint64
	st.ForEach(func(s *Session) { got = append(got, s.ID) })
	if len(got) != 3 || got[0] != 2 || got[1] != 5 || got[2] != 9 {
		t.Fatalf("order = %v", got)
	}
	st.Remove(5)
	if st.Len() != 2 || st.Get(5) != nil {
		t.Fatal("remove failed")
	}
}
