package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/event"
	coresys "github.com/tilewars/server/internal/core/system"
	"github.com/tilewars/server/internal/net"
	"github.com/tilewars/server/internal/world"
)

// OutputSystem turns world events into event frames for the players they
// concern and flushes every session's buffer once per tick.
// Phase 4 (Output).
type OutputSystem struct {
	game  *world.Game
	store *net.SessionStore
	log   *zap.Logger
}

// NewOutputSystem subscribes to the game's events. Event handlers run
// during EventDispatchSystem and only buffer frames.
func NewOutputSystem(g *world.Game, store *net.SessionStore, log *zap.Logger) *OutputSystem {
	s := &OutputSystem{game: g, store: store, log: log}
	bus := g.Bus()
	event.Subscribe(bus, func(e world.MessageEvent) { s.route("message", e.Tick, e, e.Player) })
	event.Subscribe(bus, func(e world.EmojiEvent) {
		if e.Recipient == world.AllPlayers {
			s.route("emoji", e.Tick, e)
			return
		}
		s.route("emoji", e.Tick, e, e.Sender, e.Recipient)
	})
	event.Subscribe(bus, func(e world.QuickChatEvent) { s.route("quick_chat", e.Tick, e, e.Sender, e.Recipient) })
	event.Subscribe(bus, func(e world.AllianceEvent) { s.route("alliance", e.Tick, e, e.From, e.To) })
	event.Subscribe(bus, func(e world.TargetEvent) { s.route("target", e.Tick, e) })
	event.Subscribe(bus, func(e world.UnitDestroyedEvent) { s.route("unit_destroyed", e.Tick, e, e.Owner) })
	event.Subscribe(bus, func(e world.PlayerEliminatedEvent) { s.route("player_eliminated", e.Tick, e) })
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// route buffers one frame for each listed player's session, or for every
// session when no player (or only the empty ID) is listed.
func (s *OutputSystem) route(kind string, tick world.Tick, data any, players ...world.PlayerID) {
	frame, err := net.EventFrame(kind, tick, data)
	if err != nil {
		s.log.Error("encode event", zap.String("event", kind), zap.Error(err))
		return
	}
	if len(players) == 0 || (len(players) == 1 && players[0] == "") {
		s.store.ForEach(func(sess *net.Session) { sess.Send(frame) })
		return
	}
	clients := make(map[world.ClientID]bool, len(players))
	for _, id := range players {
		if p, ok := s.game.Player(id); ok && p.ClientID() != "" {
			clients[p.ClientID()] = true
		}
	}
	if len(clients) == 0 {
		return
	}
	s.store.ForEach(func(sess *net.Session) {
		if clients[sess.ClientID] {
			sess.Send(frame)
		}
	})
}
