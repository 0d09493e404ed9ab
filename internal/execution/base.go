// Package execution holds every kind of simulated behaviour: the executions
// created from player intents, the structure and unit drivers they spawn,
// and the computer-controlled players.
package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/world"
)

// base carries the lifecycle state shared by executions. Embedders set
// g in Init; reading it earlier is an invariant violation.
type base struct {
	g        *world.Game
	inactive bool
}

func (b *base) game() *world.Game {
	if b.g == nil {
		world.Invariantf("execution used before Init")
	}
	return b.g
}

func (b *base) IsActive() bool               { return !b.inactive }
func (b *base) ActiveDuringSpawnPhase() bool { return false }

func (b *base) stop() { b.inactive = true }

// reject logs a validation failure and ends the execution.
func (b *base) reject(msg string, fields ...zap.Field) {
	b.inactive = true
	if b.g != nil {
		b.g.Log().Warn(msg, fields...)
	}
}

// player resolves id, rejecting the execution when it is unknown.
func (b *base) player(kind string, id world.PlayerID) (*world.Player, bool) {
	p, ok := b.game().Player(id)
	if !ok {
		b.reject(kind+": player not found", zap.String("player", string(id)))
		return nil, false
	}
	return p, true
}

// once is embedded by executions that act during Init and never tick.
type once struct{ base }

func (o *once) Tick(world.Tick) {}

// NoOpExecution does nothing. Intents from unknown clients map to it.
type NoOpExecution struct{ once }

func (e *NoOpExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	e.stop()
}
