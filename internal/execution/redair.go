package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/world"
)

type sortie struct {
	planeID    world.UnitID
	target     world.TileRef
	prevPatrol world.TileRef
	hadPatrol  bool
	done       bool
}

// RedAirExecution sends every ready war plane of a human player against
// the structures of their current enemy in one prepaid salvo. Each plane
// returns to its previous patrol tile after the drop. A sortie that ends
// without a drop is refunded.
type RedAirExecution struct {
	base
	playerID world.PlayerID
	perPlane world.Gold
	sorties  []*sortie
}

func NewRedAirExecution(player world.PlayerID) *RedAirExecution {
	return &RedAirExecution{playerID: player}
}

func (e *RedAirExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	p, ok := e.player("red air", e.playerID)
	if !ok {
		return
	}
	field := zap.String("player", string(p.ID()))
	if p.Type() != world.PlayerHuman {
		e.reject("red air: humans only", field)
		return
	}
	planes := readyPlanes(g, p)
	if len(planes) == 0 {
		e.reject("red air: no planes ready", field)
		return
	}
	enemy := redAirEnemy(p)
	if enemy == nil {
		e.reject("red air: no enemy", field)
		return
	}
	radius := g.Config().NukeMagnitude(world.AtomBomb).Outer
	targets := spreadTargets(g, enemy, len(planes), radius)
	if len(targets) == 0 {
		e.reject("red air: enemy has no structures", field, zap.String("enemy", string(enemy.ID())))
		return
	}
	if !g.Config().Game.InfiniteGold {
		e.perPlane = world.GoldOf(g.Config().Game.RedAirCostPerPlane)
	}
	cost := e.perPlane.MulInt(int64(len(planes)))
	if p.Gold().Less(cost) {
		e.reject("red air: insufficient gold", field, zap.Stringer("cost", cost))
		return
	}
	p.RemoveGold(cost)

	for i, plane := range planes {
		s := &sortie{planeID: plane.ID(), target: targets[i%len(targets)]}
		s.prevPatrol, s.hadPatrol = plane.PatrolTile()
		plane.SetPatrolTile(s.target)
		plane.SetTargetTile(s.target)
		e.sorties = append(e.sorties, s)
	}
	g.DisplayMessage(p.Name()+" launched a red air salvo at you", world.MessageError, enemy.ID())
}

// redAirEnemy is p's latest target, else the player p hates most, else its
// strongest neighbour.
func redAirEnemy(p *world.Player) *world.Player {
	if ts := p.Targets(); len(ts) > 0 {
		return ts[len(ts)-1]
	}
	if rs := p.AllRelationsSorted(); len(rs) > 0 && rs[0].Relation < world.Neutral && !p.IsFriendly(rs[0].Player) {
		return rs[0].Player
	}
	ns, _ := p.Neighbors()
	var best *world.Player
	for _, n := range ns {
		if p.IsFriendly(n) {
			continue
		}
		if best == nil || n.Troops() > best.Troops() {
			best = n
		}
	}
	return best
}

func (e *RedAirExecution) Tick(tick world.Tick) {
	g := e.game()
	pending := 0
	for _, s := range e.sorties {
		if s.done {
			continue
		}
		plane, ok := g.Unit(s.planeID)
		if !ok || plane.OwnerID() != e.playerID {
			e.cancel(s)
			continue
		}
		if dst, ok := plane.TargetTile(); !ok || dst != s.target {
			e.cancel(s)
			continue
		}
		if plane.Tile() != s.target {
			pending++
			continue
		}
		s.done = true
		plane.ClearTargetTile()
		plane.TouchLastBomb(tick)
		if s.hadPatrol {
			plane.SetPatrolTile(s.prevPatrol)
		}
		g.AddExecution(newPaidPlaneBomb(e.playerID, s.target, plane.Tile()))
	}
	if pending == 0 {
		e.stop()
	}
}

// cancel ends a sortie whose plane was lost or redirected and returns its
// share of the salvo cost.
func (e *RedAirExecution) cancel(s *sortie) {
	s.done = true
	if e.perPlane.IsZero() {
		return
	}
	if p, ok := e.g.Player(e.playerID); ok {
		p.AddGold(e.perPlane)
	}
}
