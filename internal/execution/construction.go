package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/world"
)

// ConstructionExecution handles a build order. Bombs and troop ships hand
// off to their own executions; everything else is built on the spawn tile
// CanBuild picks, instantly or after the catalogue's construction time.
type ConstructionExecution struct {
	base
	ownerID world.PlayerID
	typ     world.UnitType
	dst     world.TileRef

	constructionID world.UnitID
	remaining      int
}

func NewConstructionExecution(owner world.PlayerID, typ world.UnitType, dst world.TileRef) *ConstructionExecution {
	return &ConstructionExecution{ownerID: owner, typ: typ, dst: dst}
}

func (e *ConstructionExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	p, ok := e.player("construction", e.ownerID)
	if !ok {
		return
	}
	fields := []zap.Field{zap.String("player", string(p.ID())), zap.String("type", string(e.typ))}
	if !g.Map().IsValidRef(e.dst) {
		e.reject("construction: invalid tile", fields...)
		return
	}

	switch e.typ {
	case world.AtomBomb, world.HydrogenBomb:
		e.stop()
		g.AddExecution(NewNukeExecution(e.typ, p.ID(), e.dst, nil))
		return
	case world.PlaneBomb:
		e.stop()
		g.AddExecution(NewPlaneBombExecution(p.ID(), e.dst))
		return
	case world.TransportShip:
		e.stop()
		var target *world.PlayerID
		if o := g.Owner(e.dst); o != nil {
			id := o.ID()
			target = &id
		}
		g.AddExecution(NewTransportShipExecution(p.ID(), target, e.dst, p.Troops()/defaultAttackDiv, nil))
		return
	case world.Shell, world.TradePlane, world.Construction:
		e.reject("construction: type cannot be ordered", fields...)
		return
	}

	spawn, ok := p.CanBuild(e.typ, e.dst)
	if !ok {
		e.reject("construction: cannot build", fields...)
		return
	}
	e.remaining = g.Config().ConstructionTicks(e.typ)
	if e.remaining <= 0 {
		e.stop()
		startDriver(g, p.BuildUnit(e.typ, spawn, e.unitOptions()...))
		return
	}
	e.constructionID = p.StartConstruction(e.typ, spawn).ID()
}

func (e *ConstructionExecution) unitOptions() []world.UnitOption {
	switch e.typ {
	case world.Warship, world.WarPlane:
		return []world.UnitOption{world.WithPatrolTile(e.dst)}
	}
	return nil
}

func (e *ConstructionExecution) Tick(world.Tick) {
	g := e.game()
	c, ok := g.Unit(e.constructionID)
	if !ok {
		e.stop()
		return
	}
	if e.remaining--; e.remaining > 0 {
		return
	}
	e.stop()
	startDriver(g, g.CompleteConstruction(c, e.unitOptions()...))
}

// startDriver schedules the execution that runs a newly built unit.
func startDriver(g *world.Game, u *world.Unit) {
	var ex world.Execution
	switch u.Type() {
	case world.Factory:
		ex = NewFactoryExecution(u.ID())
	case world.Airport:
		ex = NewAirportExecution(u.ID())
	case world.SAMLauncher:
		ex = NewSAMExecution(u.ID())
	case world.Warship:
		ex = NewWarshipExecution(u.ID())
	case world.WarPlane:
		ex = NewWarPlaneExecution(u.ID())
	case world.City, world.Port, world.DefensePost, world.MissileSilo:
		ex = NewStructureExecution(u.ID())
	default:
		return
	}
	g.AddExecution(ex)
}
