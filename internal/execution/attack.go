package execution

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

const (
	maxTilesPerTick  = 8
	baseTileCost     = 10  // troops lost per conquered plain tile
	densityCostRatio = 0.6 // extra attacker loss per defender troop per tile
	defenseRadius    = 5   // defense posts protect tiles this close
	attackRelation   = -50 // relation change toward an attacker
	defaultAttackDiv = 5   // nil troops sends a fifth of the army
	defenderLossRate = 0.5 // defender troops lost per attacker troop spent
)

// AttackExecution drives a land attack from the attacker's border (or a
// landing tile) into the target's territory, one frontier at a time.
type AttackExecution struct {
	base
	attackerID   world.PlayerID
	targetID     *world.PlayerID // nil = unowned land
	troops       *int64
	source       world.TileRef
	hasSource    bool
	removeTroops bool

	attack *world.Attack
	rnd    *prng.PseudoRandom
	landed bool
}

// NewAttackExecution attacks targetID (nil for unowned land). A nil troops
// sends a fifth of the attacker's army. Troops come out of the attacker's
// pool unless they arrive by boat.
func NewAttackExecution(troops *int64, attacker world.PlayerID, target *world.PlayerID) *AttackExecution {
	return &AttackExecution{attackerID: attacker, targetID: target, troops: troops, removeTroops: true}
}

// newLandingAttack starts an attack from a boat landing at source. The
// troops were already taken when the boat left.
func newLandingAttack(troops int64, attacker world.PlayerID, target *world.PlayerID, source world.TileRef) *AttackExecution {
	return &AttackExecution{attackerID: attacker, targetID: target, troops: &troops, source: source, hasSource: true}
}

func (e *AttackExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	e.rnd = prng.New(int64(tick))
	attacker, ok := e.player("attack", e.attackerID)
	if !ok {
		return
	}
	var target *world.Player
	if e.targetID != nil {
		if target, ok = e.player("attack", *e.targetID); !ok {
			return
		}
		if target == attacker || attacker.IsFriendly(target) {
			e.reject("attack: target is friendly", zap.String("player", string(attacker.ID())), zap.String("target", string(target.ID())))
			return
		}
	}

	var troops int64
	if e.troops != nil {
		troops = *e.troops
	} else {
		troops = attacker.Troops() / defaultAttackDiv
	}
	if e.removeTroops {
		troops = attacker.RemoveTroops(troops)
	}
	if troops <= 0 {
		e.reject("attack: no troops", zap.String("player", string(attacker.ID())))
		return
	}

	if target != nil {
		target.UpdateRelation(attacker, attackRelation)
		if troops = e.cancelCounterAttacks(attacker, target, troops); troops == 0 {
			e.stop()
			return
		}
	}
	for _, a := range attacker.OutgoingAttacks() {
		if a.TargetID() == e.target() && !e.hasSource {
			if _, src := a.Source(); !src && !a.Retreating() {
				// merge into the running attack on the same front
				a.SetTroops(a.Troops() + troops)
				e.stop()
				return
			}
		}
	}
	e.attack = g.CreateAttack(attacker, target, troops, e.source, e.hasSource)
}

func (e *AttackExecution) target() world.PlayerID {
	if e.targetID == nil {
		return ""
	}
	return *e.targetID
}

// cancelCounterAttacks spends troops against attacks the target already
// runs against the attacker; what remains attacks.
func (e *AttackExecution) cancelCounterAttacks(attacker, target *world.Player, troops int64) int64 {
	for _, a := range target.OutgoingAttacks() {
		if a.TargetID() != attacker.ID() || troops == 0 {
			continue
		}
		if _, src := a.Source(); src {
			continue
		}
		if a.Troops() > troops {
			a.SetTroops(a.Troops() - troops)
			return 0
		}
		troops -= a.Troops()
		a.SetTroops(0)
	}
	return troops
}

func (e *AttackExecution) Tick(world.Tick) {
	g := e.game()
	a := e.attack
	if !a.IsActive() {
		e.stop()
		return
	}
	attacker := a.Attacker()
	target := a.Target()
	switch {
	case attacker == nil || !attacker.IsAlive():
		e.finish(false)
		return
	case a.Retreating():
		e.finish(true)
		return
	case e.targetID != nil && (target == nil || !target.IsAlive() || attacker.IsFriendly(target)):
		e.finish(true)
		return
	case a.Troops() <= 0:
		e.finish(false)
		return
	}

	if !e.landed {
		e.landed = true
		if src, ok := a.Source(); ok && !attacker.OwnsTile(src) {
			if g.Owner(src) != target {
				e.finish(true)
				return
			}
			if !e.take(attacker, target, src) {
				return
			}
		}
	}

	frontier := e.frontier(attacker)
	if len(frontier) == 0 {
		e.finish(true)
		return
	}
	n := min(len(frontier), maxTilesPerTick, max(1, int(a.Troops()/500)))
	for _, t := range frontier[:n] {
		if !e.take(attacker, target, t) {
			return
		}
	}
}

// take conquers t if the attack can pay for it. It reports whether the
// attack goes on.
func (e *AttackExecution) take(attacker, target *world.Player, t world.TileRef) bool {
	g := e.g
	a := e.attack
	cost := e.tileCost(target, t)
	if a.Troops() < cost {
		e.finish(false)
		return false
	}
	a.SetTroops(a.Troops() - cost)
	if target != nil {
		target.RemoveTroops(int64(float64(cost) * defenderLossRate))
	}
	g.Conquer(attacker, t)
	return true
}

func (e *AttackExecution) tileCost(target *world.Player, t world.TileRef) int64 {
	gm := e.g.Map()
	mult := 1.0
	switch {
	case gm.IsMountain(t):
		mult = 2
	case gm.IsHighland(t):
		mult = 1.5
	}
	density := 0.0
	if target != nil {
		density = float64(target.Troops()) / float64(max(1, target.NumTilesOwned()))
		if e.g.HasUnitNearby(t, defenseRadius, world.DefensePost, target.ID()) {
			mult *= 2
		}
	}
	return int64((baseTileCost + density*densityCostRatio) * mult)
}

// frontier lists target tiles bordering the attacker, those surrounded by
// more attacker land first; ties are shuffled.
func (e *AttackExecution) frontier(attacker *world.Player) []world.TileRef {
	gm := e.g.Map()
	var want uint16
	if t := e.attack.Target(); t != nil {
		want = t.SmallID()
	}
	seen := map[world.TileRef]bool{}
	var out []world.TileRef
	for _, b := range attacker.BorderTiles() {
		for _, n := range gm.Neighbors(b) {
			if seen[n] || !gm.IsLand(n) || gm.OwnerID(n) != want {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	e.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	pressure := make(map[world.TileRef]int, len(out))
	for _, t := range out {
		for _, n := range gm.Neighbors(t) {
			if gm.OwnerID(n) == attacker.SmallID() {
				pressure[t]++
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return pressure[out[i]] > pressure[out[j]] })
	return out
}

// finish ends the attack, returning surviving troops when asked.
func (e *AttackExecution) finish(returnTroops bool) {
	a := e.attack
	if returnTroops {
		if p := a.Attacker(); p != nil {
			p.AddTroops(a.Troops())
		}
	}
	a.Delete()
	e.stop()
}

// RetreatExecution orders one of the player's attacks to withdraw.
type RetreatExecution struct {
	once
	playerID world.PlayerID
	attackID world.AttackID
}

func NewRetreatExecution(player world.PlayerID, attack world.AttackID) *RetreatExecution {
	return &RetreatExecution{playerID: player, attackID: attack}
}

func (e *RetreatExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	p, ok := e.player("retreat", e.playerID)
	if !ok {
		return
	}
	a, ok := g.Attack(e.attackID)
	if !ok || a.Attacker() != p {
		g.Log().Warn("retreat: attack not found", zap.String("player", string(p.ID())), zap.Uint32("attack", uint32(e.attackID)))
		return
	}
	a.OrderRetreat()
}
