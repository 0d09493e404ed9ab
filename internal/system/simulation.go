package system

import (
	"time"

	coresys "github.com/tilewars/server/internal/core/system"
)

// SimulationSystem executes the assembled turn and advances the game one
// tick. Phase 2 (Update). A halted match stops advancing.
type SimulationSystem struct {
	match *Match
}

func NewSimulationSystem(match *Match) *SimulationSystem {
	return &SimulationSystem{match: match}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(_ time.Duration) {
	if s.match.Halted() != nil {
		return
	}
	_ = s.match.Step(s.match.TakeTurn())
}
