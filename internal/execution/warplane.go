package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

const warPlaneSpeed = 2

// WarPlaneExecution drives a war plane. A plane with a target tile flies a
// bombing run; otherwise it patrols around its patrol tile and shoots
// enemy aircraft in range.
type WarPlaneExecution struct {
	base
	planeID world.UnitID
	rnd     *prng.PseudoRandom
	pf      *pathfind.PathFinder

	patrolDst  world.TileRef
	hasDst     bool
	lastShot   world.Tick
	lastPatrol world.TileRef
}

func NewWarPlaneExecution(plane world.UnitID) *WarPlaneExecution {
	return &WarPlaneExecution{planeID: plane, lastShot: -1}
}

func (e *WarPlaneExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	e.rnd = prng.New(int64(tick) + int64(e.planeID.Index()))
	e.pf = pathfind.NewAir(g.Map(), e.rnd)
	if _, ok := g.Unit(e.planeID); !ok {
		e.reject("war plane: unit not found", zap.Uint64("unit", uint64(e.planeID)))
	}
}

func (e *WarPlaneExecution) Tick(tick world.Tick) {
	g := e.game()
	plane, ok := g.Unit(e.planeID)
	if !ok {
		e.stop()
		return
	}
	cfg := g.Config().Game
	owner := plane.Owner()
	if owner.UnitCount(world.Airport) > 0 {
		plane.ModifyHealth(cfg.WarPlaneHealPerTick)
	}

	bombing := false
	if dst, ok := plane.TargetTile(); ok {
		bombing = true
		e.fly(plane, dst)
	}

	// a plane that bombed recently holds fire until it has reloaded
	plane.SetTargetUnit(0)
	if !bombing && plane.BombReady(tick, cfg.PlaneBombCooldown) {
		if target := e.findTarget(plane); target != nil {
			plane.SetTargetUnit(target.ID())
			e.shoot(plane, target, tick)
		}
	}
	if !bombing {
		e.patrol(plane)
	}
}

func (e *WarPlaneExecution) findTarget(plane *world.Unit) *world.Unit {
	owner := plane.Owner()
	for _, ud := range e.g.NearbyUnits(plane.Tile(), e.g.Config().Game.WarshipTargetingRange, world.TradePlane, world.WarPlane) {
		u := ud.Unit
		if u == plane || u.OwnerID() == owner.ID() || owner.IsFriendly(u.Owner()) {
			continue
		}
		return u
	}
	return nil
}

func (e *WarPlaneExecution) shoot(plane, target *world.Unit, tick world.Tick) {
	rate := world.Tick(e.g.Config().Game.WarshipShellRate)
	if e.lastShot >= 0 && tick-e.lastShot <= rate {
		return
	}
	e.lastShot = tick
	plane.TouchLastAttack(tick)
	e.g.AddExecution(NewShellExecution(plane.Tile(), plane.OwnerID(), plane.ID(), target.ID()))
}

func (e *WarPlaneExecution) patrol(plane *world.Unit) {
	if pt, ok := plane.PatrolTile(); ok && pt != e.lastPatrol {
		e.lastPatrol = pt
		e.hasDst = false
	}
	if !e.hasDst {
		dst, ok := randomNear(e.g.Map(), e.rnd, plane, e.g.Config().Game.WarshipPatrolRange/2, nil)
		if !ok {
			return
		}
		e.patrolDst, e.hasDst = dst, true
	}
	if e.fly(plane, e.patrolDst) {
		e.hasDst = false
	}
}

// fly moves the plane up to two tiles toward dst and reports arrival.
func (e *WarPlaneExecution) fly(plane *world.Unit, dst world.TileRef) bool {
	for i := 0; i < warPlaneSpeed; i++ {
		next, st := e.pf.NextTile(plane.Tile(), dst)
		if st != pathfind.Next {
			if plane.Tile() == dst {
				plane.SetReachedTarget()
			}
			return true
		}
		plane.Move(next)
	}
	return plane.Tile() == dst
}

// MoveWarPlaneExecution moves a war plane's patrol area and cancels any
// bombing run.
type MoveWarPlaneExecution struct {
	once
	playerID world.PlayerID
	unitID   world.UnitID
	tile     world.TileRef
}

func NewMoveWarPlaneExecution(player world.PlayerID, unit world.UnitID, tile world.TileRef) *MoveWarPlaneExecution {
	return &MoveWarPlaneExecution{playerID: player, unitID: unit, tile: tile}
}

func (e *MoveWarPlaneExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	u, ok := g.Unit(e.unitID)
	if !ok || u.Type() != world.WarPlane || u.OwnerID() != e.playerID {
		g.Log().Warn("move war plane: plane not found", zap.String("player", string(e.playerID)), zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	if !g.Map().IsValidRef(e.tile) {
		g.Log().Warn("move war plane: invalid tile", zap.String("player", string(e.playerID)), zap.Uint32("tile", uint32(e.tile)))
		return
	}
	u.SetPatrolTile(e.tile)
	u.ClearTargetTile()
}
