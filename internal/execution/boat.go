package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

const shoreSearchRadius = 30

// TransportShipExecution carries troops over water and starts a landing
// attack on arrival. A retreating boat sails home and returns its troops.
type TransportShipExecution struct {
	base
	ownerID  world.PlayerID
	targetID *world.PlayerID
	dst      world.TileRef
	troops   int64
	src      *world.TileRef

	boatID world.UnitID
	origin world.TileRef
	pf     *pathfind.PathFinder
}

// NewTransportShipExecution ships troops toward dst. A nil src launches
// from the owner's ocean shore closest to dst.
func NewTransportShipExecution(owner world.PlayerID, target *world.PlayerID, dst world.TileRef, troops int64, src *world.TileRef) *TransportShipExecution {
	return &TransportShipExecution{ownerID: owner, targetID: target, dst: dst, troops: troops, src: src}
}

func (e *TransportShipExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	p, ok := e.player("boat", e.ownerID)
	if !ok {
		return
	}
	gm := g.Map()
	if !gm.IsValidRef(e.dst) {
		e.reject("boat: invalid destination", zap.String("player", string(p.ID())))
		return
	}
	if !gm.IsOceanShore(e.dst) {
		shore, ok := nearestShore(g, e.dst)
		if !ok {
			e.reject("boat: no shore near destination", zap.String("player", string(p.ID())), zap.Uint32("tile", uint32(e.dst)))
			return
		}
		e.dst = shore
	}
	if owner := g.Owner(e.dst); owner == p || (owner != nil && p.IsFriendly(owner)) {
		e.reject("boat: destination is friendly", zap.String("player", string(p.ID())))
		return
	}

	spawn, ok := p.CanBuild(world.TransportShip, e.dst)
	if !ok {
		e.reject("boat: cannot launch", zap.String("player", string(p.ID())))
		return
	}
	if e.src != nil {
		if !p.OwnsTile(*e.src) || !gm.IsOceanShore(*e.src) {
			e.reject("boat: source is not an owned shore", zap.String("player", string(p.ID())))
			return
		}
		spawn = *e.src
	}
	troops := p.RemoveTroops(min(e.troops, p.Troops()))
	if troops <= 0 {
		e.reject("boat: no troops", zap.String("player", string(p.ID())))
		return
	}
	boat := p.BuildUnit(world.TransportShip, spawn, world.WithTroops(troops), world.WithTargetTile(e.dst))
	e.boatID = boat.ID()
	e.origin = spawn
	e.pf = pathfind.NewWater(gm, prng.New(int64(tick)))
}

// nearestShore finds the ocean shore tile closest to t with the same owner.
func nearestShore(g *world.Game, t world.TileRef) (world.TileRef, bool) {
	gm := g.Map()
	owner := gm.OwnerID(t)
	for _, c := range gm.BFS(t, world.EuclDistFN(t, shoreSearchRadius)) {
		if gm.IsOceanShore(c) && gm.OwnerID(c) == owner {
			return c, true
		}
	}
	return 0, false
}

func (e *TransportShipExecution) Tick(world.Tick) {
	g := e.game()
	boat, ok := g.Unit(e.boatID)
	if !ok {
		e.stop()
		return
	}
	owner := boat.Owner()
	dst := e.dst
	if boat.Retreating() {
		dst = e.origin
	}
	next, st := e.pf.NextTile(boat.Tile(), dst)
	switch st {
	case pathfind.Next:
		boat.Move(next)
		return
	case pathfind.NotFound:
		g.Log().Warn("boat: stranded", zap.String("player", string(owner.ID())))
		owner.AddTroops(boat.Troops())
		boat.Delete(false)
		e.stop()
		return
	}

	e.stop()
	troops := boat.Troops()
	boat.Delete(false)
	landOwner := g.Owner(dst)
	if boat.Retreating() || landOwner == owner || (landOwner != nil && owner.IsFriendly(landOwner)) {
		owner.AddTroops(troops)
		return
	}
	var target *world.PlayerID
	if landOwner != nil {
		id := landOwner.ID()
		target = &id
	}
	g.AddExecution(newLandingAttack(troops, owner.ID(), target, dst))
}

// BoatRetreatExecution turns one of the player's transport ships around.
type BoatRetreatExecution struct {
	once
	playerID world.PlayerID
	unitID   world.UnitID
}

func NewBoatRetreatExecution(player world.PlayerID, unit world.UnitID) *BoatRetreatExecution {
	return &BoatRetreatExecution{playerID: player, unitID: unit}
}

func (e *BoatRetreatExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	defer e.stop()
	if _, ok := e.player("boat retreat", e.playerID); !ok {
		return
	}
	u, ok := g.Unit(e.unitID)
	if !ok || u.Type() != world.TransportShip || u.OwnerID() != e.playerID {
		g.Log().Warn("boat retreat: boat not found", zap.String("player", string(e.playerID)), zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	u.Retreat()
}
