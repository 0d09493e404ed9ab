package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilewars/server/internal/core/system"
	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/net"
)

// SessionSource hands newly joined and dead sessions to the game loop.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
}

// InputSystem admits new sessions and drains their intent queues into the
// turn being assembled. Phase 0 (Input).
type InputSystem struct {
	src        SessionSource
	store      *net.SessionStore
	match      *Match
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(src SessionSource, store *net.SessionStore, match *Match, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{src: src, store: store, match: match, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for {
		select {
		case sess := <-s.src.NewSessions():
			s.store.Add(sess)
			s.match.QueueJoin(intent.Join{ClientID: sess.ClientID, Name: sess.Name, Flag: sess.Flag})
			continue
		default:
		}
		break
	}

	for {
		select {
		case id := <-s.src.DeadSessions():
			if sess := s.store.Get(id); sess != nil {
				s.log.Info("client disconnected", zap.Uint64("session", id), zap.String("client", string(sess.ClientID)))
			}
			s.store.Remove(id)
			continue
		default:
		}
		break
	}

	s.store.ForEach(func(sess *net.Session) {
		for i := 0; s.maxPerTick <= 0 || i < s.maxPerTick; i++ {
			select {
			case in := <-sess.InQueue:
				s.match.QueueIntent(in)
			default:
				return
			}
		}
	})
}
