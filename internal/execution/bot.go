package execution

import (
	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

// BotExecution drives a simple bot: it grabs unowned land, punishes
// neighbouring traitors and otherwise fights the enemy BotBehavior picks.
type BotExecution struct {
	base
	id       world.PlayerID
	rnd      *prng.PseudoRandom
	behavior *BotBehavior

	attackRate   int
	attackTick   int
	triggerRatio float64
	reserveRatio float64

	neighborsTerraNullius bool
}

// NewBotExecution seeds the bot from its player ID and the game ID so every
// replica draws the same decisions.
func NewBotExecution(id world.PlayerID, gameID string) *BotExecution {
	rnd := prng.New(prng.SimpleHash(string(id)) + prng.SimpleHash(gameID))
	e := &BotExecution{id: id, rnd: rnd, neighborsTerraNullius: true}
	e.attackRate = rnd.NextInt(40, 80)
	e.attackTick = rnd.NextInt(0, e.attackRate)
	e.triggerRatio = float64(rnd.NextInt(60, 90)) / 100
	e.reserveRatio = float64(rnd.NextInt(30, 60)) / 100
	return e
}

func (e *BotExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	e.player("bot", e.id)
}

func (e *BotExecution) Tick(tick world.Tick) {
	if int(tick)%e.attackRate != e.attackTick {
		return
	}
	g := e.game()
	p, ok := g.Player(e.id)
	if !ok || !p.IsAlive() {
		e.stop()
		return
	}
	if e.behavior == nil {
		e.behavior = NewBotBehavior(e.rnd, g, p, e.triggerRatio, e.reserveRatio)
		e.behavior.SendAttack(nil)
		return
	}
	e.behavior.HandleAllianceRequests()
	e.maybeAttack(p)
}

func (e *BotExecution) maybeAttack(p *world.Player) {
	neighbors, terraNullius := p.Neighbors()
	var traitors []*world.Player
	for _, n := range neighbors {
		if n.IsTraitor() {
			traitors = append(traitors, n)
		}
	}
	if len(traitors) > 0 {
		t := prng.Pick(e.rnd, traitors)
		odds := 3
		if p.IsFriendly(t) {
			odds = 6
		}
		if e.rnd.Chance(odds) {
			e.behavior.SendAttack(t)
			return
		}
	}
	if e.neighborsTerraNullius {
		if terraNullius {
			e.behavior.SendAttack(nil)
			return
		}
		e.neighborsTerraNullius = false
	}
	e.behavior.ForgetOldEnemies()
	e.behavior.AssistAllies()
	if enemy := e.behavior.SelectEnemy(); enemy != nil {
		e.behavior.SendAttack(enemy)
	}
}
