package system

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/net"
	"github.com/tilewars/server/internal/world"
)

func newTestMatch(t *testing.T) *Match {
	t.Helper()
	gc := config.DefaultGame()
	gc.SpawnPhaseTicks = 0
	gc.NumBots = 0
	gc.DisableNations = true
	b, err := NewBoot("test", gc, config.DataConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	t.Cleanup(b.Close)
	return b.Match
}

func fakeSession(id uint64, client string) *net.Session {
	return &net.Session{
		ID:       id,
		ClientID: world.ClientID(client),
		Name:     client,
		InQueue:  make(chan intent.Intent, 16),
		OutQueue: make(chan []byte, 64),
	}
}

// drainFrames empties a session's out queue.
func drainFrames(t *testing.T, s *net.Session) []net.ServerFrame {
	t.Helper()
	var out []net.ServerFrame
	for {
		select {
		case raw := <-s.OutQueue:
			var f net.ServerFrame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("bad frame %s: %v", raw, err)
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

// messageTexts returns the text of every message event among frames.
func messageTexts(frames []net.ServerFrame) []string {
	var out []string
	for _, f := range frames {
		if f.Event != "message" {
			continue
		}
		if m, ok := f.Data.(map[string]any); ok {
			if s, ok := m["text"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

type fakeSource struct {
	newCh  chan *net.Session
	deadCh chan uint64
}

func newFakeSource() *fakeSource {
	return &fakeSource{newCh: make(chan *net.Session, 8), deadCh: make(chan uint64, 8)}
}

func (f *fakeSource) NewSessions() <-chan *net.Session { return f.newCh }
func (f *fakeSource) DeadSessions() <-chan uint64      { return f.deadCh }
