package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/tilewars/server/internal/core/system"
)

// DigestSystem stamps the world digest onto every Nth executed turn so
// replays can be checked against it. Phase 3 (PostUpdate).
type DigestSystem struct {
	match *Match
	every int
	log   *zap.Logger
}

func NewDigestSystem(match *Match, every int, log *zap.Logger) *DigestSystem {
	return &DigestSystem{match: match, every: every, log: log}
}

func (s *DigestSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *DigestSystem) Update(_ time.Duration) {
	if s.every <= 0 || s.match.Halted() != nil {
		return
	}
	ticks := s.match.Game.Ticks()
	if ticks == 0 || int64(ticks)%int64(s.every) != 0 {
		return
	}
	d := s.match.stampDigest()
	s.log.Debug("world digest", zap.Int64("tick", int64(ticks)), zap.String("digest", d))
}
