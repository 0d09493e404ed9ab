package world

import (
	"github.com/tilewars/server/internal/core/ecs"
	"github.com/tilewars/server/internal/core/event"
)

// UnitID is a generational handle. Executions keep UnitIDs and resolve them
// through Game.Unit every tick; a destroyed unit's ID never resolves again.
type UnitID = ecs.EntityID

// Unit is a typed, owned, located entity.
type Unit struct {
	g         *Game
	id        UnitID
	seq       uint64 // creation order, breaks spatial ties
	typ       UnitType
	owner     PlayerID
	tile      TileRef
	lastTile  TileRef
	health    int
	active    bool
	createdAt Tick

	patrolTile    TileRef
	hasPatrol     bool
	targetTile    TileRef
	hasTarget     bool
	targetUnit    UnitID
	reachedTarget bool

	// cooldown markers, -1 = never
	lastBomb      Tick
	lastAttack    Tick
	cooldownStart Tick

	constructionType UnitType
	troops           int64
	retreating       bool
}

// UnitOption configures a unit at build time.
type UnitOption func(*Unit)

func WithPatrolTile(t TileRef) UnitOption {
	return func(u *Unit) { u.patrolTile, u.hasPatrol = t, true }
}

func WithTargetTile(t TileRef) UnitOption {
	return func(u *Unit) { u.targetTile, u.hasTarget = t, true }
}

func WithTargetUnit(id UnitID) UnitOption {
	return func(u *Unit) { u.targetUnit = id }
}

func WithTroops(n int64) UnitOption {
	return func(u *Unit) { u.troops = max(0, n) }
}

func WithConstructionType(t UnitType) UnitOption {
	return func(u *Unit) { u.constructionType = t }
}

func (u *Unit) ID() UnitID         { return u.id }
func (u *Unit) Type() UnitType     { return u.typ }
func (u *Unit) OwnerID() PlayerID  { return u.owner }
func (u *Unit) Tile() TileRef      { return u.tile }
func (u *Unit) LastTile() TileRef  { return u.lastTile }
func (u *Unit) IsActive() bool     { return u.active }
func (u *Unit) CreatedAt() Tick    { return u.createdAt }
func (u *Unit) Health() int        { return u.health }
func (u *Unit) Troops() int64      { return u.troops }
func (u *Unit) Retreating() bool   { return u.retreating }
func (u *Unit) TargetUnit() UnitID { return u.targetUnit }

// Owner resolves the owning player.
func (u *Unit) Owner() *Player { return u.g.byID[u.owner] }

func (u *Unit) MaxHealth() int {
	return u.g.cfg.UnitInfo(u.typ).MaxHealth
}

func (u *Unit) HasHealth() bool { return u.MaxHealth() > 0 }

func (u *Unit) IsTerritoryBound() bool {
	return u.g.cfg.UnitInfo(u.typ).TerritoryBound
}

// Move relocates the unit and keeps the spatial index current.
func (u *Unit) Move(t TileRef) {
	if !u.active {
		return
	}
	gm := u.g.gm
	u.g.grid.Move(u.id, gm.X(u.tile), gm.Y(u.tile), gm.X(t), gm.Y(t))
	u.lastTile = u.tile
	u.tile = t
}

// ModifyHealth adds delta, clamped to [0, max]. A unit reaching zero health
// is deleted.
func (u *Unit) ModifyHealth(delta int) {
	if !u.active || !u.HasHealth() {
		return
	}
	u.health = min(u.MaxHealth(), max(0, u.health+delta))
	if u.health == 0 {
		u.Delete(true)
	}
}

// Delete deactivates the unit immediately; the store drops it at the end of
// the tick.
func (u *Unit) Delete(announce bool) {
	if !u.active {
		return
	}
	u.active = false
	gm := u.g.gm
	u.g.grid.Remove(u.id, gm.X(u.tile), gm.Y(u.tile))
	u.g.ecs.MarkForDestruction(u.id)
	u.g.stats.UnitLost(u.owner, u.typ)
	if announce && u.typ != Shell && u.typ != Construction {
		event.Emit(u.g.bus, UnitDestroyedEvent{Tick: u.g.ticks, Owner: u.owner, Type: u.typ, Tile: u.tile})
	}
}

// SetOwner transfers the unit, e.g. when its tile is conquered.
func (u *Unit) SetOwner(p *Player) {
	if p == nil || p.ID() == u.owner {
		return
	}
	u.owner = p.ID()
	u.ResetCooldowns()
}

func (u *Unit) PatrolTile() (TileRef, bool) { return u.patrolTile, u.hasPatrol }

func (u *Unit) SetPatrolTile(t TileRef) { u.patrolTile, u.hasPatrol = t, true }

func (u *Unit) TargetTile() (TileRef, bool) { return u.targetTile, u.hasTarget }

func (u *Unit) SetTargetTile(t TileRef) {
	u.targetTile, u.hasTarget = t, true
	u.reachedTarget = false
}

func (u *Unit) ClearTargetTile() { u.hasTarget = false }

func (u *Unit) SetTargetUnit(id UnitID) { u.targetUnit = id }

func (u *Unit) SetReachedTarget()          { u.reachedTarget = true }
func (u *Unit) ReachedTarget() bool        { return u.reachedTarget }
func (u *Unit) SetTroops(n int64)          { u.troops = max(0, n) }
func (u *Unit) Retreat()                   { u.retreating = true }
func (u *Unit) ConstructionType() UnitType { return u.constructionType }

// Cooldown markers only move forward until ResetCooldowns.

func (u *Unit) TouchLastBomb(t Tick) {
	if t > u.lastBomb {
		u.lastBomb = t
	}
}

func (u *Unit) LastBomb() Tick { return u.lastBomb }

func (u *Unit) TouchLastAttack(t Tick) {
	if t > u.lastAttack {
		u.lastAttack = t
	}
}

func (u *Unit) LastAttack() Tick { return u.lastAttack }

func (u *Unit) StartCooldown(t Tick) {
	if t > u.cooldownStart {
		u.cooldownStart = t
	}
}

// InCooldown reports whether a cooldown of the given length is still
// running at now.
func (u *Unit) InCooldown(now Tick, length int) bool {
	return u.cooldownStart >= 0 && now-u.cooldownStart < Tick(length)
}

// BombReady reports whether the plane-bomb cooldown has elapsed at now.
func (u *Unit) BombReady(now Tick, length int) bool {
	return u.lastBomb < 0 || now-u.lastBomb >= Tick(length)
}

// ResetCooldowns clears every cooldown marker. Ownership transfer is the
// only event that resets them.
func (u *Unit) ResetCooldowns() {
	u.lastBomb, u.lastAttack, u.cooldownStart = -1, -1, -1
}

// UnitDist pairs a unit with its squared distance from a query tile.
type UnitDist struct {
	Unit        *Unit
	DistSquared int
}
