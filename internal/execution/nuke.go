package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

const nukeRelationPenalty = -100

// NukeExecution launches a bomb from the nearest ready silo, or from src
// when given, flies it to dst and detonates it there.
type NukeExecution struct {
	base
	typ     world.UnitType
	ownerID world.PlayerID
	dst     world.TileRef
	src     *world.TileRef
	paid    bool

	nukeID world.UnitID
	rnd    *prng.PseudoRandom
	pf     *pathfind.PathFinder
}

func NewNukeExecution(typ world.UnitType, owner world.PlayerID, dst world.TileRef, src *world.TileRef) *NukeExecution {
	return &NukeExecution{typ: typ, ownerID: owner, dst: dst, src: src}
}

func (e *NukeExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	p, ok := e.player("nuke", e.ownerID)
	if !ok {
		return
	}
	gm := g.Map()
	if !e.typ.IsNuke() || !gm.IsValidRef(e.dst) {
		e.reject("nuke: invalid launch", zap.String("player", string(p.ID())), zap.String("type", string(e.typ)))
		return
	}

	var spawn world.TileRef
	if e.src != nil {
		if !gm.IsValidRef(*e.src) || (!e.paid && p.Gold().Less(p.Cost(e.typ))) {
			e.reject("nuke: cannot launch", zap.String("player", string(p.ID())), zap.String("type", string(e.typ)))
			return
		}
		spawn = *e.src
	} else {
		spawn, ok = p.CanBuild(e.typ, e.dst)
		if !ok {
			e.reject("nuke: cannot launch", zap.String("player", string(p.ID())), zap.String("type", string(e.typ)))
			return
		}
		for _, ud := range g.NearbyUnits(spawn, 0, world.MissileSilo) {
			if ud.Unit.OwnerID() == p.ID() {
				ud.Unit.StartCooldown(tick)
				break
			}
		}
	}

	if e.paid {
		e.nukeID = p.BuildPaidUnit(e.typ, spawn, world.WithTargetTile(e.dst)).ID()
	} else {
		e.nukeID = p.BuildUnit(e.typ, spawn, world.WithTargetTile(e.dst)).ID()
	}
	g.Stats().BombLaunched(p.ID(), e.typ)
	e.rnd = prng.New(int64(tick))
	e.pf = pathfind.NewAir(gm, e.rnd)

	if target := g.Owner(e.dst); target != nil && target != p {
		if p.IsAlliedWith(target) {
			p.BreakAlliance(target)
		}
		target.UpdateRelation(p, nukeRelationPenalty)
		g.DisplayMessage(p.Name()+" launched a "+string(e.typ)+" at you", world.MessageError, target.ID())
	}
}

func (e *NukeExecution) Tick(world.Tick) {
	g := e.game()
	nuke, ok := g.Unit(e.nukeID)
	if !ok {
		e.stop()
		return
	}
	for i := 0; i < max(1, g.Config().Game.NukeSpeed); i++ {
		next, st := e.pf.NextTile(nuke.Tile(), e.dst)
		if st == pathfind.Next {
			nuke.Move(next)
			continue
		}
		e.detonate(nuke)
		return
	}
}

// detonate clears every tile in the inner radius and half of the outer
// ring. Owners lose troops in proportion to the tiles they lose, and
// units caught in the outer radius are destroyed.
func (e *NukeExecution) detonate(nuke *world.Unit) {
	e.stop()
	g := e.g
	gm := g.Map()
	mag := g.Config().NukeMagnitude(e.typ)
	inner2 := mag.Inner * mag.Inner
	nuke.Delete(false)

	hit := 0
	for _, t := range gm.BFS(e.dst, world.EuclDistFN(e.dst, mag.Outer)) {
		if gm.EuclideanDistSquared(e.dst, t) > inner2 && !e.rnd.Chance(2) {
			continue
		}
		owner := g.Owner(t)
		if owner == nil {
			continue
		}
		if n := owner.NumTilesOwned(); n > 0 {
			owner.RemoveTroops(owner.Troops() / int64(n))
		}
		g.Relinquish(t)
		hit++
	}
	for _, ud := range g.NearbyUnits(e.dst, mag.Outer) {
		if !ud.Unit.Type().IsNuke() {
			ud.Unit.Delete(true)
		}
	}
	g.Log().Debug("nuke detonated",
		zap.String("player", string(e.ownerID)),
		zap.String("type", string(e.typ)),
		zap.Uint32("tile", uint32(e.dst)),
		zap.Int("tiles", hit))
}

// newPaidPlaneBomb drops a plane bomb whose price was charged up front.
func newPaidPlaneBomb(owner world.PlayerID, dst, src world.TileRef) *NukeExecution {
	return &NukeExecution{typ: world.PlaneBomb, ownerID: owner, dst: dst, src: &src, paid: true}
}

// PlaneBombExecution sends the owner's nearest bomb-ready war plane to dst
// and drops a plane bomb when it gets there. Moving the plane elsewhere
// cancels the run.
type PlaneBombExecution struct {
	base
	ownerID world.PlayerID
	dst     world.TileRef
	planeID world.UnitID
}

func NewPlaneBombExecution(owner world.PlayerID, dst world.TileRef) *PlaneBombExecution {
	return &PlaneBombExecution{ownerID: owner, dst: dst}
}

// newAssignedPlaneBomb runs a bombing run with an already chosen plane.
func newAssignedPlaneBomb(owner world.PlayerID, dst world.TileRef, plane world.UnitID) *PlaneBombExecution {
	return &PlaneBombExecution{ownerID: owner, dst: dst, planeID: plane}
}

func (e *PlaneBombExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	p, ok := e.player("plane bomb", e.ownerID)
	if !ok {
		return
	}
	if e.planeID.IsZero() {
		spawn, ok := p.CanBuild(world.PlaneBomb, e.dst)
		if !ok {
			e.reject("plane bomb: no plane ready", zap.String("player", string(p.ID())))
			return
		}
		for _, ud := range g.NearbyUnits(spawn, 0, world.WarPlane) {
			if ud.Unit.OwnerID() == p.ID() {
				e.planeID = ud.Unit.ID()
				break
			}
		}
	}
	plane, ok := g.Unit(e.planeID)
	if !ok || plane.OwnerID() != p.ID() {
		e.reject("plane bomb: plane not found", zap.String("player", string(p.ID())))
		return
	}
	plane.SetPatrolTile(e.dst)
	plane.SetTargetTile(e.dst)
}

func (e *PlaneBombExecution) Tick(tick world.Tick) {
	g := e.game()
	plane, ok := g.Unit(e.planeID)
	if !ok || plane.OwnerID() != e.ownerID {
		e.stop()
		return
	}
	if dst, ok := plane.TargetTile(); !ok || dst != e.dst {
		e.stop()
		return
	}
	if plane.Tile() != e.dst {
		return
	}
	e.stop()
	src := plane.Tile()
	plane.ClearTargetTile()
	plane.TouchLastBomb(tick)
	g.AddExecution(NewNukeExecution(world.PlaneBomb, e.ownerID, e.dst, &src))
}

// SAMExecution drives a SAM launcher: it intercepts enemy bombs in range
// and otherwise fires at enemy war planes, then reloads.
type SAMExecution struct {
	base
	samID world.UnitID
}

func NewSAMExecution(sam world.UnitID) *SAMExecution {
	return &SAMExecution{samID: sam}
}

func (e *SAMExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	if _, ok := g.Unit(e.samID); !ok {
		e.reject("sam: unit not found", zap.Uint64("unit", uint64(e.samID)))
	}
}

func (e *SAMExecution) Tick(tick world.Tick) {
	g := e.game()
	sam, ok := g.Unit(e.samID)
	if !ok {
		e.stop()
		return
	}
	cfg := g.Config().Game
	if sam.InCooldown(tick, cfg.SAMCooldown) {
		return
	}
	owner := sam.Owner()
	hostile := func(u *world.Unit) bool {
		return u.OwnerID() != owner.ID() && !owner.IsFriendly(u.Owner())
	}
	for _, ud := range g.NearbyUnits(sam.Tile(), cfg.SAMRange, world.AtomBomb, world.HydrogenBomb, world.PlaneBomb) {
		if !hostile(ud.Unit) {
			continue
		}
		bomb := ud.Unit
		bomb.Delete(true)
		sam.StartCooldown(tick)
		g.DisplayMessage("Your "+string(bomb.Type())+" was intercepted", world.MessageError, bomb.OwnerID())
		g.DisplayMessage("A SAM launcher intercepted a "+string(bomb.Type()), world.MessageSuccess, owner.ID())
		return
	}
	for _, ud := range g.NearbyUnits(sam.Tile(), cfg.SAMRange, world.WarPlane) {
		if hostile(ud.Unit) {
			sam.StartCooldown(tick)
			g.AddExecution(NewShellExecution(sam.Tile(), owner.ID(), sam.ID(), ud.Unit.ID()))
			return
		}
	}
}
