package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

const patrolTileTries = 50

// WarshipExecution patrols around the ship's patrol tile, sinks enemy
// transports it can reach and shells enemy warships in range.
type WarshipExecution struct {
	base
	shipID    world.UnitID
	rnd       *prng.PseudoRandom
	pf        *pathfind.PathFinder
	lastShell world.Tick
}

func NewWarshipExecution(ship world.UnitID) *WarshipExecution {
	return &WarshipExecution{shipID: ship, lastShell: -1}
}

func (e *WarshipExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	e.rnd = prng.New(int64(tick) + int64(e.shipID.Index()))
	e.pf = pathfind.NewWater(g.Map(), e.rnd)
	if _, ok := g.Unit(e.shipID); !ok {
		e.reject("warship: unit not found", zap.Uint64("unit", uint64(e.shipID)))
	}
}

func (e *WarshipExecution) Tick(tick world.Tick) {
	g := e.game()
	ship, ok := g.Unit(e.shipID)
	if !ok {
		e.stop()
		return
	}
	if _, ok := ship.PatrolTile(); !ok {
		ship.SetPatrolTile(ship.Tile())
	}

	target := e.findTarget(ship)
	ship.SetTargetUnit(0)
	if target != nil {
		ship.SetTargetUnit(target.ID())
		if target.Type() == world.TransportShip {
			e.hunt(ship, target)
			return
		}
		e.shoot(ship, target, tick)
	}
	e.patrol(ship)
}

// findTarget picks the nearest enemy transport, else the nearest enemy
// warship, within targeting range.
func (e *WarshipExecution) findTarget(ship *world.Unit) *world.Unit {
	g := e.g
	owner := ship.Owner()
	var warship *world.Unit
	for _, ud := range g.NearbyUnits(ship.Tile(), g.Config().Game.WarshipTargetingRange, world.TransportShip, world.Warship) {
		u := ud.Unit
		if u == ship || u.OwnerID() == owner.ID() || owner.IsFriendly(u.Owner()) {
			continue
		}
		if u.Type() == world.TransportShip {
			return u
		}
		if warship == nil {
			warship = u
		}
	}
	return warship
}

func (e *WarshipExecution) hunt(ship, boat *world.Unit) {
	gm := e.g.Map()
	for i := 0; i < 2; i++ {
		if gm.ManhattanDist(ship.Tile(), boat.Tile()) <= 1 {
			e.g.DisplayMessage("Transport ship destroyed by a warship", world.MessageWarn, boat.OwnerID())
			boat.Delete(true)
			ship.TouchLastAttack(e.g.Ticks())
			return
		}
		next, st := e.pf.NextTile(ship.Tile(), boat.Tile())
		if st != pathfind.Next {
			return
		}
		ship.Move(next)
	}
}

func (e *WarshipExecution) shoot(ship, target *world.Unit, tick world.Tick) {
	rate := world.Tick(e.g.Config().Game.WarshipShellRate)
	if e.lastShell >= 0 && tick-e.lastShell <= rate {
		return
	}
	e.lastShell = tick
	ship.TouchLastAttack(tick)
	e.g.AddExecution(NewShellExecution(ship.Tile(), ship.OwnerID(), ship.ID(), target.ID()))
}

func (e *WarshipExecution) patrol(ship *world.Unit) {
	dst, ok := ship.TargetTile()
	if !ok {
		if dst, ok = e.randomPatrolTile(ship, func(t world.TileRef) bool { return e.g.Map().IsOcean(t) }); !ok {
			return
		}
		ship.SetTargetTile(dst)
	}
	next, st := e.pf.NextTile(ship.Tile(), dst)
	switch st {
	case pathfind.Next:
		ship.Move(next)
	default:
		ship.ClearTargetTile()
	}
}

// randomPatrolTile samples a tile within half the patrol range of the
// unit's patrol tile.
func (e *WarshipExecution) randomPatrolTile(u *world.Unit, ok func(world.TileRef) bool) (world.TileRef, bool) {
	return randomNear(e.g.Map(), e.rnd, u, e.g.Config().Game.WarshipPatrolRange/2, ok)
}

func randomNear(gm *world.GameMap, rnd *prng.PseudoRandom, u *world.Unit, radius int, ok func(world.TileRef) bool) (world.TileRef, bool) {
	center, has := u.PatrolTile()
	if !has {
		center = u.Tile()
	}
	cx, cy := gm.X(center), gm.Y(center)
	for i := 0; i < patrolTileTries; i++ {
		x := cx + rnd.NextInt(-radius, radius+1)
		y := cy + rnd.NextInt(-radius, radius+1)
		if !gm.IsValidCoord(x, y) {
			continue
		}
		if t := gm.Ref(x, y); ok == nil || ok(t) {
			return t, true
		}
	}
	return 0, false
}

// MoveWarshipExecution moves a warship's patrol area.
type MoveWarshipExecution struct {
	once
	playerID world.PlayerID
	unitID   world.UnitID
	tile     world.TileRef
}

func NewMoveWarshipExecution(player world.PlayerID, unit world.UnitID, tile world.TileRef) *MoveWarshipExecution {
	return &MoveWarshipExecution{playerID: player, unitID: unit, tile: tile}
}

func (e *MoveWarshipExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	u, ok := g.Unit(e.unitID)
	if !ok || u.Type() != world.Warship || u.OwnerID() != e.playerID {
		g.Log().Warn("move warship: warship not found", zap.String("player", string(e.playerID)), zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	if !g.Map().IsValidRef(e.tile) || !g.Map().IsOcean(e.tile) {
		g.Log().Warn("move warship: not an ocean tile", zap.String("player", string(e.playerID)), zap.Uint32("tile", uint32(e.tile)))
		return
	}
	u.SetPatrolTile(e.tile)
	u.ClearTargetTile()
}
