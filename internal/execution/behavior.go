package execution

import (
	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

const enemyMemoryTicks = 100

// BotBehavior is the decision logic shared by computer players: alliance
// answers, enemy memory and attack sizing. An attack is launched only once
// troops reach triggerRatio of the cap, keeping reserveRatio at home.
type BotBehavior struct {
	rnd          *prng.PseudoRandom
	g            *world.Game
	player       *world.Player
	triggerRatio float64
	reserveRatio float64

	enemy        world.PlayerID
	enemyUpdated world.Tick
}

func NewBotBehavior(rnd *prng.PseudoRandom, g *world.Game, p *world.Player, triggerRatio, reserveRatio float64) *BotBehavior {
	return &BotBehavior{rnd: rnd, g: g, player: p, triggerRatio: triggerRatio, reserveRatio: reserveRatio}
}

// HandleAllianceRequests accepts requests from trustworthy players and
// rejects the rest.
func (b *BotBehavior) HandleAllianceRequests() {
	for _, r := range b.player.IncomingAllianceRequests() {
		from := r.Requestor()
		if from == nil || from.IsTraitor() || b.player.Relation(from) < world.Neutral {
			r.Reject()
			continue
		}
		r.Accept()
	}
}

// ForgetOldEnemies drops an enemy not refreshed for a while.
func (b *BotBehavior) ForgetOldEnemies() {
	if b.enemy != "" && b.g.Ticks()-b.enemyUpdated > enemyMemoryTicks {
		b.enemy = ""
	}
}

// AssistAllies adopts a target one of our allies has called.
func (b *BotBehavior) AssistAllies() {
	for _, ally := range b.player.Allies() {
		for _, t := range ally.Targets() {
			if t == b.player || b.player.IsFriendly(t) {
				continue
			}
			b.setEnemy(t)
			return
		}
	}
}

func (b *BotBehavior) setEnemy(p *world.Player) {
	b.enemy = p.ID()
	b.enemyUpdated = b.g.Ticks()
}

func (b *BotBehavior) hasSufficientTroops() bool {
	limit := b.player.MaxTroops()
	return limit > 0 && float64(b.player.Troops())/float64(limit) >= b.triggerRatio
}

// SelectEnemy returns the current enemy, picking one when there is none
// and enough troops are saved: the weakest bordering bot, else the most
// hated hostile player. Friends are never returned.
func (b *BotBehavior) SelectEnemy() *world.Player {
	if b.enemy == "" {
		if !b.hasSufficientTroops() {
			return nil
		}
		neighbors, _ := b.player.Neighbors()
		var weakest *world.Player
		for _, n := range neighbors {
			if n.Type() != world.PlayerBot || b.player.IsFriendly(n) {
				continue
			}
			if weakest == nil || n.Troops() < weakest.Troops() {
				weakest = n
			}
		}
		if weakest != nil {
			b.setEnemy(weakest)
		}
		if b.enemy == "" {
			if rs := b.player.AllRelationsSorted(); len(rs) > 0 && rs[0].Relation == world.Hostile {
				b.setEnemy(rs[0].Player)
			}
		}
	}
	enemy, ok := b.g.Player(b.enemy)
	if !ok || !enemy.IsAlive() || b.player.IsFriendly(enemy) {
		b.enemy = ""
		return nil
	}
	return enemy
}

// SendAttack attacks target, or unowned land when target is nil, with all
// troops above the reserve.
func (b *BotBehavior) SendAttack(target *world.Player) {
	if target != nil && (target == b.player || b.player.IsFriendly(target)) {
		return
	}
	reserve := int64(float64(b.player.MaxTroops()) * b.reserveRatio)
	troops := b.player.Troops() - reserve
	if troops < 1 {
		return
	}
	var targetID *world.PlayerID
	if target != nil {
		id := target.ID()
		targetID = &id
	}
	b.g.AddExecution(NewAttackExecution(&troops, b.player.ID(), targetID))
}
