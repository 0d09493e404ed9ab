package execution

import (
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/pathfind"
	"github.com/tilewars/server/internal/world"
)

// StructureExecution watches a building and tells its previous owner when
// it is captured.
type StructureExecution struct {
	base
	unitID  world.UnitID
	ownerID world.PlayerID
}

func NewStructureExecution(unit world.UnitID) *StructureExecution {
	return &StructureExecution{unitID: unit}
}

func (e *StructureExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	u, ok := g.Unit(e.unitID)
	if !ok {
		e.reject("structure: unit not found", zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	e.ownerID = u.OwnerID()
}

func (e *StructureExecution) Tick(world.Tick) {
	u, ok := e.game().Unit(e.unitID)
	if !ok {
		e.stop()
		return
	}
	watchOwner(e.g, u, &e.ownerID)
}

// watchOwner reports a change of u's owner since *last and records the new
// one.
func watchOwner(g *world.Game, u *world.Unit, last *world.PlayerID) bool {
	if u.OwnerID() == *last {
		return false
	}
	g.DisplayMessage("Your "+string(u.Type())+" was captured by "+u.Owner().Name(), world.MessageError, *last)
	*last = u.OwnerID()
	return true
}

// FactoryExecution pays the factory's current owner every tick.
type FactoryExecution struct {
	base
	unitID  world.UnitID
	ownerID world.PlayerID
}

func NewFactoryExecution(unit world.UnitID) *FactoryExecution {
	return &FactoryExecution{unitID: unit}
}

func (e *FactoryExecution) Init(g *world.Game, _ world.Tick) {
	e.g = g
	u, ok := g.Unit(e.unitID)
	if !ok {
		e.reject("factory: unit not found", zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	e.ownerID = u.OwnerID()
}

func (e *FactoryExecution) Tick(world.Tick) {
	g := e.game()
	u, ok := g.Unit(e.unitID)
	if !ok {
		e.stop()
		return
	}
	watchOwner(g, u, &e.ownerID)
	gold := world.GoldOf(g.Config().Game.FactoryGoldPerTick)
	u.Owner().AddGold(gold)
	g.Stats().GoldWork(u.OwnerID(), gold)
}

// AirportExecution rolls for a trade flight every check interval, to a
// random airport of another player the owner can trade with.
type AirportExecution struct {
	base
	unitID  world.UnitID
	ownerID world.PlayerID
	rnd     *prng.PseudoRandom
	offset  world.Tick
}

func NewAirportExecution(unit world.UnitID) *AirportExecution {
	return &AirportExecution{unitID: unit}
}

func (e *AirportExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	u, ok := g.Unit(e.unitID)
	if !ok {
		e.reject("airport: unit not found", zap.Uint64("unit", uint64(e.unitID)))
		return
	}
	e.ownerID = u.OwnerID()
	e.rnd = prng.New(int64(tick) + int64(e.unitID.Index()))
	e.offset = tick % world.Tick(e.interval())
}

func (e *AirportExecution) interval() int {
	return max(1, e.g.Config().Game.AirportCheckInterval)
}

func (e *AirportExecution) Tick(tick world.Tick) {
	g := e.game()
	u, ok := g.Unit(e.unitID)
	if !ok {
		e.stop()
		return
	}
	watchOwner(g, u, &e.ownerID)
	if tick%world.Tick(e.interval()) != e.offset {
		return
	}
	airports := g.Units(world.Airport)
	if !e.rnd.Chance(g.Config().Curves.TradeSpawnRate(len(airports))) {
		return
	}
	owner := u.Owner()
	var partners []*world.Unit
	for _, a := range airports {
		if a.OwnerID() != owner.ID() && owner.CanTrade(a.Owner()) {
			partners = append(partners, a)
		}
	}
	if len(partners) == 0 {
		return
	}
	dst := prng.Pick(e.rnd, partners)
	g.AddExecution(NewTradePlaneExecution(owner.ID(), u.ID(), dst.ID()))
}

// TradePlaneExecution flies a trade plane between two airports. On arrival
// both airport owners are paid by distance.
type TradePlaneExecution struct {
	base
	ownerID world.PlayerID
	srcID   world.UnitID
	dstID   world.UnitID

	planeID world.UnitID
	srcTile world.TileRef
	pf      *pathfind.PathFinder
}

func NewTradePlaneExecution(owner world.PlayerID, src, dst world.UnitID) *TradePlaneExecution {
	return &TradePlaneExecution{ownerID: owner, srcID: src, dstID: dst}
}

func (e *TradePlaneExecution) Init(g *world.Game, tick world.Tick) {
	e.g = g
	p, ok := e.player("trade plane", e.ownerID)
	if !ok {
		return
	}
	src, ok1 := g.Unit(e.srcID)
	_, ok2 := g.Unit(e.dstID)
	if !ok1 || !ok2 {
		e.reject("trade plane: airport not found", zap.String("player", string(p.ID())))
		return
	}
	e.srcTile = src.Tile()
	e.planeID = p.BuildUnit(world.TradePlane, src.Tile()).ID()
	e.pf = pathfind.NewAir(g.Map(), prng.New(int64(tick)))
}

func (e *TradePlaneExecution) Tick(world.Tick) {
	g := e.game()
	plane, ok := g.Unit(e.planeID)
	if !ok {
		e.stop()
		return
	}
	dst, ok := g.Unit(e.dstID)
	if !ok || dst.OwnerID() == plane.OwnerID() || !plane.Owner().CanTrade(dst.Owner()) {
		plane.Delete(false)
		e.stop()
		return
	}
	next, st := e.pf.NextTile(plane.Tile(), dst.Tile())
	if st == pathfind.Next {
		plane.Move(next)
		return
	}

	e.stop()
	plane.Delete(false)
	gold := g.Config().TradeGold(g.Map().ManhattanDist(e.srcTile, dst.Tile()))
	for _, p := range []*world.Player{plane.Owner(), dst.Owner()} {
		p.AddGold(gold)
		g.Stats().GoldTrade(p.ID(), gold)
	}
	g.DisplayMessage("Received "+world.RenderGold(gold)+" gold from trade with "+dst.Owner().Name(), world.MessageSuccess, plane.OwnerID())
	g.DisplayMessage("Received "+world.RenderGold(gold)+" gold from trade with "+plane.Owner().Name(), world.MessageSuccess, dst.OwnerID())
}
