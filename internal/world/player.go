package world

import (
	"sort"

	"github.com/tilewars/server/internal/core/event"
)

// Player is mutated only through its own methods, called by executions.
type Player struct {
	g       *Game
	info    PlayerInfo
	smallID uint16

	gold             Gold
	troops           int64
	targetTroopRatio float64

	tiles   map[TileRef]struct{}
	border  map[TileRef]struct{}
	spawned bool

	relations    map[PlayerID]int
	embargoes    map[PlayerID]embargo
	targets      []targetRecord
	lastEmoji    map[PlayerID]Tick
	lastDonation map[PlayerID]Tick
	traitorAt    Tick // -1 = never

	outgoing []*Attack
	incoming []*Attack
}

type embargo struct {
	since     Tick
	temporary bool
}

type targetRecord struct {
	target PlayerID
	tick   Tick
}

func newPlayer(g *Game, info PlayerInfo, smallID uint16) *Player {
	return &Player{
		g:                g,
		info:             info,
		smallID:          smallID,
		troops:           g.cfg.Game.StartingTroops,
		targetTroopRatio: g.cfg.Game.DefaultTroopRatio,
		tiles:            make(map[TileRef]struct{}),
		border:           make(map[TileRef]struct{}),
		relations:        make(map[PlayerID]int),
		embargoes:        make(map[PlayerID]embargo),
		lastEmoji:        make(map[PlayerID]Tick),
		lastDonation:     make(map[PlayerID]Tick),
		traitorAt:        -1,
	}
}

func (p *Player) ID() PlayerID              { return p.info.ID }
func (p *Player) Info() PlayerInfo          { return p.info }
func (p *Player) Name() string              { return p.info.Name }
func (p *Player) Type() PlayerType          { return p.info.Type }
func (p *Player) ClientID() ClientID        { return p.info.ClientID }
func (p *Player) SmallID() uint16           { return p.smallID }
func (p *Player) Gold() Gold                { return p.gold }
func (p *Player) Troops() int64             { return p.troops }
func (p *Player) TargetTroopRatio() float64 { return p.targetTroopRatio }
func (p *Player) NumTilesOwned() int        { return len(p.tiles) }
func (p *Player) HasSpawned() bool          { return p.spawned }
func (p *Player) IsAlive() bool             { return len(p.tiles) > 0 }

func (p *Player) IsOnSameTeam(o *Player) bool {
	return o != nil && p.info.Team != "" && p.info.Team == o.info.Team
}

// IsFriendly reports alliance or team membership.
func (p *Player) IsFriendly(o *Player) bool {
	return o != nil && (p.IsAlliedWith(o) || p.IsOnSameTeam(o))
}

func (p *Player) AddGold(g Gold) { p.gold = p.gold.Add(g) }

// RemoveGold takes up to g and returns what was actually removed.
func (p *Player) RemoveGold(g Gold) Gold {
	taken := g.Min(p.gold)
	p.gold = p.gold.Sub(taken)
	return taken
}

func (p *Player) AddTroops(n int64) {
	if n > 0 {
		p.troops += n
	}
}

// RemoveTroops takes up to n and returns what was actually removed.
func (p *Player) RemoveTroops(n int64) int64 {
	if n <= 0 {
		return 0
	}
	n = min(n, p.troops)
	p.troops -= n
	return n
}

func (p *Player) SetTargetTroopRatio(r float64) {
	p.targetTroopRatio = min(1, max(0, r))
}

// MaxTroops is the troop cap from territory and cities.
func (p *Player) MaxTroops() int64 {
	return p.g.cfg.Curves.MaxTroops(len(p.tiles), p.UnitCount(City))
}

// Tiles returns owned tiles in ascending order.
func (p *Player) Tiles() []TileRef { return sortedTiles(p.tiles) }

// BorderTiles returns owned tiles touching a tile with a different owner,
// in ascending order.
func (p *Player) BorderTiles() []TileRef { return sortedTiles(p.border) }

func (p *Player) OwnsTile(t TileRef) bool {
	_, ok := p.tiles[t]
	return ok
}

func sortedTiles(set map[TileRef]struct{}) []TileRef {
	out := make([]TileRef, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Neighbors returns bordering players in join order and whether the player
// borders unowned land.
func (p *Player) Neighbors() ([]*Player, bool) {
	gm := p.g.gm
	seen := map[uint16]bool{}
	terraNullius := false
	for t := range p.border {
		for _, n := range gm.Neighbors(t) {
			id := gm.OwnerID(n)
			switch {
			case id == p.smallID:
			case id == 0:
				if gm.IsLand(n) {
					terraNullius = true
				}
			default:
				seen[id] = true
			}
		}
	}
	var out []*Player
	for _, o := range p.g.players {
		if seen[o.smallID] {
			out = append(out, o)
		}
	}
	return out, terraNullius
}

func (p *Player) SharesBorderWith(o *Player) bool {
	if o == nil {
		_, tn := p.Neighbors()
		return tn
	}
	gm := p.g.gm
	for t := range p.border {
		for _, n := range gm.Neighbors(t) {
			if gm.OwnerID(n) == o.smallID {
				return true
			}
		}
	}
	return false
}

// Units returns the player's active units of the given types (all types
// when none given) in creation order.
func (p *Player) Units(types ...UnitType) []*Unit {
	return p.g.unitsWhere(func(u *Unit) bool {
		return u.owner == p.info.ID && matchType(u.typ, types)
	})
}

func (p *Player) UnitCount(t UnitType) int { return len(p.Units(t)) }

// UnitsIncludingConstruction counts finished units plus constructions of t.
func (p *Player) UnitsIncludingConstruction(t UnitType) int {
	n := 0
	for _, u := range p.Units(t, Construction) {
		if u.typ == t || u.constructionType == t {
			n++
		}
	}
	return n
}

// Relations

func (p *Player) RelationScore(o *Player) int {
	if o == nil {
		return 0
	}
	return p.relations[o.ID()]
}

func (p *Player) Relation(o *Player) Relation {
	return relationFromScore(p.RelationScore(o))
}

// UpdateRelation adds delta, clamped to [-100, 100].
func (p *Player) UpdateRelation(o *Player, delta int) {
	if o == nil || o == p {
		return
	}
	v := p.relations[o.ID()] + delta
	p.relations[o.ID()] = min(100, max(-100, v))
}

// DecayRelations moves every score one step toward neutral.
func (p *Player) DecayRelations() {
	for _, o := range p.g.players {
		v, ok := p.relations[o.ID()]
		if !ok {
			continue
		}
		switch {
		case v > 0:
			p.relations[o.ID()] = v - 1
		case v < 0:
			p.relations[o.ID()] = v + 1
		}
	}
}

// PlayerRelation is one entry of AllRelationsSorted.
type PlayerRelation struct {
	Player   *Player
	Score    int
	Relation Relation
}

// AllRelationsSorted lists living players with a recorded score, most
// hated first; ties keep join order.
func (p *Player) AllRelationsSorted() []PlayerRelation {
	var out []PlayerRelation
	for _, o := range p.g.players {
		v, ok := p.relations[o.ID()]
		if !ok || o == p || !o.IsAlive() {
			continue
		}
		out = append(out, PlayerRelation{Player: o, Score: v, Relation: relationFromScore(v)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// Embargoes

func (p *Player) AddEmbargo(o PlayerID, temporary bool) {
	if cur, ok := p.embargoes[o]; ok && !cur.temporary {
		return
	}
	p.embargoes[o] = embargo{since: p.g.ticks, temporary: temporary}
}

func (p *Player) StopEmbargo(o PlayerID) { delete(p.embargoes, o) }

func (p *Player) HasEmbargoAgainst(o *Player) bool {
	if o == nil {
		return false
	}
	_, ok := p.embargoes[o.ID()]
	return ok
}

// CanTrade reports whether neither side embargoes the other.
func (p *Player) CanTrade(o *Player) bool {
	return o != nil && o != p && !p.HasEmbargoAgainst(o) && !o.HasEmbargoAgainst(p)
}

// ExpireEmbargoes lifts temporary embargoes older than ttl ticks.
func (p *Player) ExpireEmbargoes(now Tick, ttl int) {
	for _, o := range p.g.players {
		e, ok := p.embargoes[o.ID()]
		if ok && e.temporary && now-e.since >= Tick(ttl) {
			delete(p.embargoes, o.ID())
		}
	}
}

// Targets

func (p *Player) Target(o *Player) {
	p.targets = append(p.targets, targetRecord{target: o.ID(), tick: p.g.ticks})
	event.Emit(p.g.bus, TargetEvent{Tick: p.g.ticks, Player: p.ID(), Target: o.ID()})
}

// Targets returns players targeted within the configured target duration.
func (p *Player) Targets() []*Player {
	ttl := Tick(p.g.cfg.Game.TargetDuration)
	seen := map[PlayerID]bool{}
	var out []*Player
	for _, r := range p.targets {
		if p.g.ticks-r.tick >= ttl || seen[r.target] {
			continue
		}
		if o := p.g.byID[r.target]; o != nil && o.IsAlive() {
			seen[r.target] = true
			out = append(out, o)
		}
	}
	return out
}

func (p *Player) CanTarget(o *Player) bool {
	return o != nil && o != p && !p.IsFriendly(o)
}

// PruneTargets drops expired target records.
func (p *Player) PruneTargets(now Tick) {
	ttl := Tick(p.g.cfg.Game.TargetDuration)
	kept := p.targets[:0]
	for _, r := range p.targets {
		if now-r.tick < ttl {
			kept = append(kept, r)
		}
	}
	p.targets = kept
}

// Emoji

func (p *Player) CanSendEmoji(recipient PlayerID) bool {
	last, ok := p.lastEmoji[recipient]
	return !ok || p.g.ticks-last >= Tick(p.g.cfg.Game.EmojiCooldown)
}

func (p *Player) SendEmoji(recipient PlayerID, emoji int) {
	p.lastEmoji[recipient] = p.g.ticks
	event.Emit(p.g.bus, EmojiEvent{Tick: p.g.ticks, Sender: p.ID(), Recipient: recipient, Emoji: emoji})
}

// Donations

func (p *Player) CanDonate(o *Player) bool {
	if !p.IsFriendly(o) {
		return false
	}
	last, ok := p.lastDonation[o.ID()]
	return !ok || p.g.ticks-last >= Tick(p.g.cfg.Game.DonateCooldown)
}

func (p *Player) DonateTroops(o *Player, n int64) bool {
	if !p.CanDonate(o) {
		return false
	}
	moved := p.RemoveTroops(n)
	if moved == 0 {
		return false
	}
	o.AddTroops(moved)
	p.lastDonation[o.ID()] = p.g.ticks
	p.g.DisplayMessage("Received "+RenderTroops(moved)+" troops from "+p.Name(), MessageSuccess, o.ID())
	return true
}

func (p *Player) DonateGold(o *Player, g Gold) bool {
	if !p.CanDonate(o) {
		return false
	}
	moved := p.RemoveGold(g)
	if moved.IsZero() {
		return false
	}
	o.AddGold(moved)
	p.lastDonation[o.ID()] = p.g.ticks
	p.g.DisplayMessage("Received "+RenderGold(moved)+" gold from "+p.Name(), MessageSuccess, o.ID())
	return true
}

// Traitor flag

func (p *Player) MarkTraitor() { p.traitorAt = p.g.ticks }

func (p *Player) IsTraitor() bool {
	return p.traitorAt >= 0 && p.g.ticks-p.traitorAt < Tick(p.g.cfg.Game.TraitorDuration)
}

// Attacks

func (p *Player) OutgoingAttacks() []*Attack { return append([]*Attack(nil), p.outgoing...) }
func (p *Player) IncomingAttacks() []*Attack { return append([]*Attack(nil), p.incoming...) }

func removeAttack(list []*Attack, a *Attack) []*Attack {
	for i, x := range list {
		if x == a {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func matchType(t UnitType, types []UnitType) bool {
	if len(types) == 0 {
		return true
	}
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
