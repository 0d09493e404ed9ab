package execution

import (
	"github.com/tilewars/server/internal/world"
)

// PlayerExecution runs a player's per-tick economy: troop growth, gold
// income, relation decay and expiry of timed state.
type PlayerExecution struct {
	base
	id world.PlayerID
}

func NewPlayerExecution(id world.PlayerID) *PlayerExecution {
	return &PlayerExecution{id: id}
}

func (e *PlayerExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	e.player("player", e.id)
}

func (e *PlayerExecution) Tick(tick world.Tick) {
	g := e.game()
	p, ok := g.Player(e.id)
	if !ok {
		e.stop()
		return
	}
	if !p.IsAlive() {
		for _, u := range p.Units() {
			u.Delete(false)
		}
		e.stop()
		return
	}

	curves, cfg := g.Config().Curves, g.Config().Game
	switch n := curves.TroopIncrease(p.Troops(), p.MaxTroops()); {
	case n > 0:
		p.AddTroops(n)
	case n < 0:
		p.RemoveTroops(-n)
	}
	if gold := world.GoldOf(curves.GoldAddition(p.NumTilesOwned())); !gold.IsZero() {
		p.AddGold(gold)
		g.Stats().GoldWork(p.ID(), gold)
	}

	if cfg.RelationDecayInterval > 0 && tick%world.Tick(cfg.RelationDecayInterval) == 0 {
		p.DecayRelations()
	}
	p.ExpireEmbargoes(tick, cfg.TemporaryEmbargoTicks)
	p.PruneTargets(tick)
}

// UpkeepExecution expires game-wide timed state. The executor schedules
// exactly one per game.
type UpkeepExecution struct {
	base
}

func (e *UpkeepExecution) Init(g *world.Game, _ world.Tick) { e.g = g }

func (e *UpkeepExecution) Tick(world.Tick) {
	g := e.game()
	g.ExpireAllianceRequests(g.Config().Game.AllianceRequestTTL)
}

func (e *UpkeepExecution) ActiveDuringSpawnPhase() bool { return true }
