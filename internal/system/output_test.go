package system

import (
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/net"
	"github.com/tilewars/server/internal/world"
)

func TestOutputRoutesMessages(t *testing.T) {
	m := newTestMatch(t)
	store := net.NewSessionStore()
	a, b := fakeSession(1, "c-a"), fakeSession(2, "c-b")
	store.Add(a)
	store.Add(b)
	out := NewOutputSystem(m.Game, store, zap.NewNop())
	dispatch := NewEventDispatchSystem(m.Game.Bus())

	m.QueueJoin(intent.Join{ClientID: "c-a", Name: "a"})
	m.QueueJoin(intent.Join{ClientID: "c-b", Name: "b"})
	if err := m.Step(m.TakeTurn()); err != nil {
		t.Fatal(err)
	}
	pa, _ := m.Game.PlayerByClientID("c-a")

	m.Game.DisplayMessage("only a", world.MessageInfo, pa.ID())
	m.Game.DisplayMessage("everyone", world.MessageInfo, "")
	dispatch.Update(0)
	out.Update(0)

	gotA := messageTexts(drainFrames(t, a))
	gotB := messageTexts(drainFrames(t, b))
	if !slices.Contains(gotA, "only a") || !slices.Contains(gotA, "everyone") {
		t.Errorf("a got %v", gotA)
	}
	if slices.Contains(gotB, "only a") || !slices.Contains(gotB, "everyone") {
		t.Errorf("b got %v", gotB)
	}
}

func TestOutputBuffersUntilFlush(t *testing.T) {
	m := newTestMatch(t)
	store := net.NewSessionStore()
	a := fakeSession(1, "c-a")
	store.Add(a)
	out := NewOutputSystem(m.Game, store, zap.NewNop())

	m.Game.DisplayMessage("hello", world.MessageInfo, "")
	NewEventDispatchSystem(m.Game.Bus()).Update(0)
	if n := len(a.OutQueue); n != 0 {
		t.Fatalf("frames queued before flush: %d", n)
	}
	out.Update(0)
	if got := messageTexts(drainFrames(t, a)); !slices.Equal(got, []string{"hello"}) {
		t.Errorf("after flush got %v", got)
	}
}

func TestOutputEmojiToAllPlayers(t *testing.T) {
	m := newTestMatch(t)
	store := net.NewSessionStore()
	a, b := fakeSession(1, "c-a"), fakeSession(2, "c-b")
	store.Add(a)
	store.Add(b)
	out := NewOutputSystem(m.Game, store, zap.NewNop())

	event.Emit(m.Game.Bus(), world.EmojiEvent{Sender: "x", Recipient: world.AllPlayers, Emoji: 3})
	NewEventDispatchSystem(m.Game.Bus()).Update(0)
	out.Update(0)
	for _, s := range []*net.Session{a, b} {
		frames := drainFrames(t, s)
		if len(frames) != 1 || frames[0].Event != "emoji" {
			t.Errorf("session %d got %+v", s.ID, frames)
		}
	}
}
