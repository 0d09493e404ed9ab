package system

import (
	"time"

	coresys "github.com/tilewars/server/internal/core/system"
	"github.com/tilewars/server/internal/net"
)

// CleanupSystem drops sessions that closed during the tick. Their players
// stay in the game. Phase 6 (Cleanup).
type CleanupSystem struct {
	store *net.SessionStore
}

func NewCleanupSystem(store *net.SessionStore) *CleanupSystem {
	return &CleanupSystem{store: store}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	var closed []uint64
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			closed = append(closed, sess.ID)
		}
	})
	for _, id := range closed {
		s.store.Remove(id)
	}
}
