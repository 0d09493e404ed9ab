package world

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tilewars/server/internal/core/ecs"
	"github.com/tilewars/server/internal/core/event"
	"github.com/tilewars/server/internal/data"
)

// Execution is one unit of simulated behaviour. Init runs exactly once,
// before the first Tick; Tick is never called again once IsActive reports
// false.
type Execution interface {
	Init(g *Game, tick Tick)
	Tick(tick Tick)
	IsActive() bool
	ActiveDuringSpawnPhase() bool
}

// Nation is a computer-controlled player slot defined by the map.
type Nation struct {
	Info     PlayerInfo
	Spawn    TileRef
	Strength int
}

// Game is the single source of truth for one match. All access happens on
// the game loop goroutine.
type Game struct {
	cfg   *Config
	gm    *GameMap
	log   *zap.Logger
	bus   *event.Bus
	stats *Stats
	ticks Tick

	players   []*Player // join order
	byID      map[PlayerID]*Player
	byClient  map[ClientID]*Player
	bySmallID []*Player // index 0 is unowned land
	nations   []Nation

	ecs     *ecs.World
	units   *ecs.PtrComponentStore[Unit]
	grid    *UnitGrid
	unitSeq uint64

	execs   []Execution
	pending []Execution

	attacks   map[AttackID]*Attack
	attackSeq AttackID
	requests  []*AllianceRequest
	alliances []*Alliance
}

// NewGame creates an empty match on gm. bus may be nil when nobody listens.
func NewGame(gm *GameMap, cfg *Config, nations []data.NationInfo, bus *event.Bus, log *zap.Logger) *Game {
	g := &Game{
		cfg:       cfg,
		gm:        gm,
		log:       log,
		bus:       bus,
		stats:     NewStats(),
		byID:      make(map[PlayerID]*Player),
		byClient:  make(map[ClientID]*Player),
		bySmallID: []*Player{nil},
		ecs:       ecs.NewWorld(),
		units:     ecs.NewPtrComponentStore[Unit](),
		grid:      NewUnitGrid(),
		attacks:   make(map[AttackID]*Attack),
	}
	g.ecs.Registry().Register(g.units)
	for _, n := range nations {
		if !gm.IsValidCoord(n.X, n.Y) {
			continue
		}
		g.nations = append(g.nations, Nation{
			Info: PlayerInfo{
				ID:   PlayerID("nation-" + n.Flag),
				Name: n.Name,
				Type: PlayerFakeHuman,
				Flag: n.Flag,
			},
			Spawn:    gm.Ref(n.X, n.Y),
			Strength: n.Strength,
		})
	}
	return g
}

func (g *Game) Map() *GameMap     { return g.gm }
func (g *Game) Config() *Config   { return g.cfg }
func (g *Game) Log() *zap.Logger  { return g.log }
func (g *Game) Bus() *event.Bus   { return g.bus }
func (g *Game) Stats() *Stats     { return g.stats }
func (g *Game) Ticks() Tick       { return g.ticks }
func (g *Game) Nations() []Nation { return append([]Nation(nil), g.nations...) }

func (g *Game) InSpawnPhase() bool {
	return g.ticks < Tick(g.cfg.Game.SpawnPhaseTicks)
}

// AddPlayer creates a player. IDs and client IDs must be unique.
func (g *Game) AddPlayer(info PlayerInfo) (*Player, error) {
	if _, ok := g.byID[info.ID]; ok || info.ID == "" || info.ID == AllPlayers {
		return nil, fmt.Errorf("add player %q: %w", info.ID, ErrPlayerExists)
	}
	if info.ClientID != "" {
		if _, ok := g.byClient[info.ClientID]; ok {
			return nil, fmt.Errorf("add player for client %q: %w", info.ClientID, ErrPlayerExists)
		}
	}
	if len(g.bySmallID) > 1<<16-1 {
		Invariantf("player table full")
	}
	p := newPlayer(g, info, uint16(len(g.bySmallID)))
	g.players = append(g.players, p)
	g.bySmallID = append(g.bySmallID, p)
	g.byID[info.ID] = p
	if info.ClientID != "" {
		g.byClient[info.ClientID] = p
	}
	return p, nil
}

func (g *Game) Player(id PlayerID) (*Player, bool) {
	p, ok := g.byID[id]
	return p, ok
}

func (g *Game) HasPlayer(id PlayerID) bool {
	_, ok := g.byID[id]
	return ok
}

func (g *Game) PlayerByClientID(id ClientID) (*Player, bool) {
	p, ok := g.byClient[id]
	return p, ok
}

func (g *Game) PlayerBySmallID(id uint16) *Player {
	if int(id) >= len(g.bySmallID) {
		return nil
	}
	return g.bySmallID[id]
}

// Players returns living players in join order.
func (g *Game) Players() []*Player {
	var out []*Player
	for _, p := range g.players {
		if p.IsAlive() {
			out = append(out, p)
		}
	}
	return out
}

// AllPlayers returns every player ever added, in join order.
func (g *Game) AllPlayers() []*Player { return append([]*Player(nil), g.players...) }

// Owner returns the owner of t, nil for unowned tiles.
func (g *Game) Owner(t TileRef) *Player { return g.bySmallID[g.gm.OwnerID(t)] }

// Conquer transfers t to p, capturing territory-bound units on it.
func (g *Game) Conquer(p *Player, t TileRef) {
	prev := g.Owner(t)
	if prev == p {
		return
	}
	if prev != nil {
		delete(prev.tiles, t)
		delete(prev.border, t)
	}
	g.gm.setOwnerID(t, p.smallID)
	p.tiles[t] = struct{}{}
	p.spawned = true
	g.refreshBorders(t)
	for _, ud := range g.NearbyUnits(t, 0) {
		if ud.Unit.IsTerritoryBound() {
			ud.Unit.SetOwner(p)
		}
	}
	g.stats.TileConquered(p.ID())
	if prev != nil && !prev.IsAlive() {
		g.eliminated(prev)
	}
}

// Relinquish makes t unowned and destroys structures standing on it. An
// owner left without land is eliminated.
func (g *Game) Relinquish(t TileRef) {
	if prev := g.release(t); prev != nil && !prev.IsAlive() {
		g.eliminated(prev)
	}
}

// ClearTerritory releases all of p's land without eliminating p. Used when
// a player moves its spawn.
func (g *Game) ClearTerritory(p *Player) {
	for _, t := range p.Tiles() {
		g.release(t)
	}
}

func (g *Game) release(t TileRef) *Player {
	prev := g.Owner(t)
	if prev == nil {
		return nil
	}
	delete(prev.tiles, t)
	delete(prev.border, t)
	g.gm.setOwnerID(t, 0)
	g.refreshBorders(t)
	for _, ud := range g.NearbyUnits(t, 0) {
		if ud.Unit.IsTerritoryBound() {
			ud.Unit.Delete(true)
		}
	}
	return prev
}

func (g *Game) eliminated(p *Player) {
	for _, a := range p.OutgoingAttacks() {
		a.OrderRetreat()
	}
	event.Emit(g.bus, PlayerEliminatedEvent{Tick: g.ticks, Player: p.ID()})
	g.DisplayMessage(p.Name()+" has been eliminated", MessageInfo, "")
}

func (g *Game) refreshBorders(t TileRef) {
	g.refreshBorder(t)
	for _, n := range g.gm.Neighbors(t) {
		g.refreshBorder(n)
	}
}

func (g *Game) refreshBorder(t TileRef) {
	owner := g.Owner(t)
	if owner == nil {
		return
	}
	for _, n := range g.gm.Neighbors(t) {
		if g.gm.OwnerID(n) != owner.smallID {
			owner.border[t] = struct{}{}
			return
		}
	}
	delete(owner.border, t)
}

// Units

func (g *Game) createUnit(owner *Player, typ UnitType, tile TileRef, opts ...UnitOption) *Unit {
	id := g.ecs.CreateEntity()
	g.unitSeq++
	u := &Unit{
		g:             g,
		id:            id,
		seq:           g.unitSeq,
		typ:           typ,
		owner:         owner.ID(),
		tile:          tile,
		lastTile:      tile,
		active:        true,
		createdAt:     g.ticks,
		lastBomb:      -1,
		lastAttack:    -1,
		cooldownStart: -1,
	}
	u.health = u.MaxHealth()
	for _, o := range opts {
		o(u)
	}
	g.units.Set(id, u)
	g.grid.Add(id, g.gm.X(tile), g.gm.Y(tile))
	return u
}

// Unit resolves a handle to an active unit.
func (g *Game) Unit(id UnitID) (*Unit, bool) {
	if !g.ecs.Alive(id) {
		return nil, false
	}
	u, ok := g.units.Get(id)
	if !ok || !u.active {
		return nil, false
	}
	return u, true
}

// Units returns active units of the given types (all when none given) in
// creation order.
func (g *Game) Units(types ...UnitType) []*Unit {
	return g.unitsWhere(func(u *Unit) bool { return matchType(u.typ, types) })
}

func (g *Game) unitsWhere(pred func(*Unit) bool) []*Unit {
	var out []*Unit
	g.units.Each(func(_ UnitID, u *Unit) {
		if u.active && pred(u) {
			out = append(out, u)
		}
	})
	return out
}

// NearbyUnits returns active units within radius (Euclidean) of tile,
// nearest first; equal distances keep creation order.
func (g *Game) NearbyUnits(tile TileRef, radius int, types ...UnitType) []UnitDist {
	x, y := g.gm.X(tile), g.gm.Y(tile)
	r2 := radius * radius
	var out []UnitDist
	for _, id := range g.grid.Candidates(x, y, radius) {
		u, ok := g.units.Get(id)
		if !ok || !u.active || !matchType(u.typ, types) {
			continue
		}
		d := g.gm.EuclideanDistSquared(tile, u.tile)
		if d <= r2 {
			out = append(out, UnitDist{Unit: u, DistSquared: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistSquared != out[j].DistSquared {
			return out[i].DistSquared < out[j].DistSquared
		}
		return out[i].Unit.seq < out[j].Unit.seq
	})
	return out
}

// HasUnitNearby reports whether a unit of type t owned by owner (any owner
// when empty) lies within radius of tile.
func (g *Game) HasUnitNearby(tile TileRef, radius int, t UnitType, owner PlayerID) bool {
	for _, ud := range g.NearbyUnits(tile, radius, t) {
		if owner == "" || ud.Unit.owner == owner {
			return true
		}
	}
	return false
}

// Scheduling

// AddExecution queues executions. They are initialised at the end of the
// current tick and first ticked on the next one.
func (g *Game) AddExecution(execs ...Execution) {
	g.pending = append(g.pending, execs...)
}

// ActiveExecutions is the number of initialised, still-active executions.
func (g *Game) ActiveExecutions() int { return len(g.execs) }

// PendingExecutions is the number of executions awaiting Init.
func (g *Game) PendingExecutions() int { return len(g.pending) }

// ExecuteNextTick advances the simulation one tick:
//  1. tick every active execution, in insertion order, skipping those not
//     allowed to act during the spawn phase;
//  2. initialise pending executions (spawn-gated ones stay pending);
//  3. retire inactive executions and destroyed units;
//  4. advance the tick counter.
//
// An *InvariantError raised by an execution aborts the tick and is returned.
func (g *Game) ExecuteNextTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()

	spawn := g.InSpawnPhase()
	for _, e := range g.execs {
		if e.IsActive() && (!spawn || e.ActiveDuringSpawnPhase()) {
			e.Tick(g.ticks)
		}
	}

	pending := g.pending
	g.pending = nil
	var deferred, inited []Execution
	for _, e := range pending {
		if spawn && !e.ActiveDuringSpawnPhase() {
			deferred = append(deferred, e)
			continue
		}
		e.Init(g, g.ticks)
		inited = append(inited, e)
	}
	// executions queued by Init calls above go after the deferred ones
	g.pending = append(deferred, g.pending...)

	kept := g.execs[:0]
	for _, e := range g.execs {
		if e.IsActive() {
			kept = append(kept, e)
		}
	}
	for _, e := range inited {
		if e.IsActive() {
			kept = append(kept, e)
		}
	}
	if n := len(kept); n < len(g.execs) {
		clear(g.execs[n:])
	}
	g.execs = kept

	g.ecs.FlushDestroyQueue()
	g.ticks++
	return nil
}

// DisplayMessage sends text to one player, or everyone when player is empty.
func (g *Game) DisplayMessage(text string, typ MessageType, player PlayerID) {
	event.Emit(g.bus, MessageEvent{Tick: g.ticks, Player: player, Type: typ, Text: text})
}
