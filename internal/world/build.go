package world

// Cost is the price of p's next unit of type t.
func (p *Player) Cost(t UnitType) Gold { return p.g.cfg.UnitCost(t, p) }

// CanBuild reports whether p may build t aimed at target, and the tile the
// unit would spawn on. It checks funds, prerequisites and terrain.
func (p *Player) CanBuild(t UnitType, target TileRef) (TileRef, bool) {
	g := p.g
	if !g.gm.IsValidRef(target) || !p.IsAlive() || !t.Valid() {
		return 0, false
	}
	if p.gold.Less(p.Cost(t)) {
		return 0, false
	}
	switch t {
	case AtomBomb, HydrogenBomb:
		return p.nearestReady(MissileSilo, target, func(u *Unit) bool {
			return !u.InCooldown(g.ticks, g.cfg.Game.SiloCooldown)
		})
	case PlaneBomb:
		return p.nearestReady(WarPlane, target, func(u *Unit) bool {
			return u.BombReady(g.ticks, g.cfg.Game.PlaneBombCooldown)
		})
	case WarPlane:
		return p.nearestReady(Airport, target, nil)
	case TradePlane:
		if o := g.Owner(target); o == p && g.HasUnitNearby(target, 0, Airport, p.ID()) {
			return target, true
		}
		return 0, false
	case Warship:
		if !g.gm.IsOcean(target) {
			return 0, false
		}
		port, ok := p.nearestReady(Port, target, nil)
		if !ok {
			return 0, false
		}
		for _, n := range g.gm.Neighbors(port) {
			if g.gm.IsOcean(n) {
				return n, true
			}
		}
		return 0, false
	case TransportShip:
		if p.UnitCount(TransportShip) >= g.cfg.Game.MaxBoats {
			return 0, false
		}
		return p.nearestOceanShore(target)
	case Shell:
		return target, true
	case Port:
		if p.OwnsTile(target) && g.gm.IsOceanShore(target) {
			return target, true
		}
		return 0, false
	case City, DefensePost, MissileSilo, SAMLauncher, Factory, Airport:
		if p.OwnsTile(target) && g.gm.IsLand(target) {
			return target, true
		}
		return 0, false
	}
	return 0, false
}

// BuildUnit charges the current cost of t and places the unit on spawn.
// Callers check CanBuild first.
func (p *Player) BuildUnit(t UnitType, spawn TileRef, opts ...UnitOption) *Unit {
	cost := p.Cost(t)
	if p.gold.Less(cost) {
		Invariantf("%s builds %s without %s gold", p.ID(), t, cost)
	}
	p.gold = p.gold.Sub(cost)
	u := p.g.createUnit(p, t, spawn, opts...)
	p.g.stats.UnitBuilt(p.ID(), t)
	return u
}

// BuildPaidUnit places a unit whose price was settled elsewhere, such as a
// bomb from a prepaid salvo.
func (p *Player) BuildPaidUnit(t UnitType, spawn TileRef, opts ...UnitOption) *Unit {
	u := p.g.createUnit(p, t, spawn, opts...)
	p.g.stats.UnitBuilt(p.ID(), t)
	return u
}

// StartConstruction charges the current cost of t and places a Construction
// standing in for it on spawn.
func (p *Player) StartConstruction(t UnitType, spawn TileRef) *Unit {
	cost := p.Cost(t)
	if p.gold.Less(cost) {
		Invariantf("%s starts %s without %s gold", p.ID(), t, cost)
	}
	p.gold = p.gold.Sub(cost)
	return p.g.createUnit(p, Construction, spawn, WithConstructionType(t))
}

// CompleteConstruction replaces c with the finished unit, owned by c's
// current owner. The unit was paid for when construction started.
func (g *Game) CompleteConstruction(c *Unit, opts ...UnitOption) *Unit {
	if c.typ != Construction || !c.active {
		Invariantf("complete construction on %s unit %d", c.typ, c.id)
	}
	owner := c.Owner()
	t, tile := c.constructionType, c.tile
	c.active = false
	g.grid.Remove(c.id, g.gm.X(tile), g.gm.Y(tile))
	g.ecs.MarkForDestruction(c.id)
	u := g.createUnit(owner, t, tile, opts...)
	g.stats.UnitBuilt(owner.ID(), t)
	return u
}

// nearestReady finds p's unit of type t closest to target that passes ok.
func (p *Player) nearestReady(t UnitType, target TileRef, ok func(*Unit) bool) (TileRef, bool) {
	best, bestD := TileRef(0), -1
	for _, u := range p.Units(t) {
		if ok != nil && !ok(u) {
			continue
		}
		d := p.g.gm.EuclideanDistSquared(u.tile, target)
		if bestD < 0 || d < bestD {
			best, bestD = u.tile, d
		}
	}
	return best, bestD >= 0
}

func (p *Player) nearestOceanShore(target TileRef) (TileRef, bool) {
	best, bestD := TileRef(0), -1
	for _, t := range p.BorderTiles() {
		if !p.g.gm.IsOceanShore(t) {
			continue
		}
		d := p.g.gm.ManhattanDist(t, target)
		if bestD < 0 || d < bestD {
			best, bestD = t, d
		}
	}
	return best, bestD >= 0
}
