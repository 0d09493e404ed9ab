package execution

import (
	"sort"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

const (
	structureScoreRadius  = 25
	siloDistancePenalty   = 30
	recentTargetPenalty   = 1_000_000
	recentTargetMaxAge    = 100
	recentTargetCapacity  = 32
	nukeCandidateSamples  = 10
	salvoTroopRatio       = 0.8
	salvoSpreadMultiplier = 1.5
)

// structureValue is what destroying one enemy structure is worth to the
// targeting score.
var structureValue = map[world.UnitType]int{
	world.City:        25_000,
	world.DefensePost: 5_000,
	world.MissileSilo: 50_000,
	world.Port:        10_000,
	world.SAMLauncher: 12_000,
	world.Factory:     15_000,
	world.Airport:     20_000,
}

type recentTarget struct {
	tile world.TileRef
	at   world.Tick
}

// RecentTargets remembers recently struck tiles. Entries older than the
// max age are dropped by Prune, which owners call once per tick; when full
// the oldest entry is evicted.
type RecentTargets struct {
	maxAge   world.Tick
	capacity int
	entries  []recentTarget
}

func NewRecentTargets(maxAge, capacity int) *RecentTargets {
	return &RecentTargets{maxAge: world.Tick(maxAge), capacity: max(1, capacity)}
}

func (r *RecentTargets) Add(t world.TileRef, now world.Tick) {
	if len(r.entries) == r.capacity {
		r.entries = append(r.entries[:0], r.entries[1:]...)
	}
	r.entries = append(r.entries, recentTarget{tile: t, at: now})
}

func (r *RecentTargets) Prune(now world.Tick) {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if now-e.at < r.maxAge {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

func (r *RecentTargets) Len() int { return len(r.entries) }

// Near counts remembered tiles within radius of t.
func (r *RecentTargets) Near(gm *world.GameMap, t world.TileRef, radius int) int {
	n := 0
	for _, e := range r.entries {
		if gm.EuclideanDistSquared(e.tile, t) <= radius*radius {
			n++
		}
	}
	return n
}

// nukeTileScore values striking tile on behalf of p: the summed value of
// hostile structures nearby, less a penalty per tile of distance to p's
// nearest silo and a heavy penalty per recent strike nearby.
func nukeTileScore(g *world.Game, p *world.Player, tile world.TileRef, silos []world.TileRef, recent *RecentTargets) int {
	gm := g.Map()
	score := 0
	for _, ud := range g.NearbyUnits(tile, structureScoreRadius, world.StructureTypes...) {
		o := ud.Unit.Owner()
		if o == p || p.IsFriendly(o) {
			continue
		}
		score += structureValue[ud.Unit.Type()]
	}
	if len(silos) > 0 {
		nearest := -1
		for _, s := range silos {
			if d := gm.ManhattanDist(s, tile); nearest < 0 || d < nearest {
				nearest = d
			}
		}
		score -= nearest * siloDistancePenalty
	}
	if recent != nil {
		score -= recent.Near(gm, tile, structureScoreRadius) * recentTargetPenalty
	}
	return score
}

// nukeCandidates are the enemy's structure tiles plus a few random tiles of
// its territory.
func nukeCandidates(g *world.Game, rnd *prng.PseudoRandom, enemy *world.Player) []world.TileRef {
	var out []world.TileRef
	for _, u := range enemy.Units(world.StructureTypes...) {
		out = append(out, u.Tile())
	}
	tiles := enemy.Tiles()
	for i := 0; i < nukeCandidateSamples && len(tiles) > 0; i++ {
		out = append(out, prng.Pick(rnd, tiles))
	}
	return out
}

type scoredTile struct {
	tile  world.TileRef
	score int
}

// rankTargets scores the candidate tiles of enemy for p, best first; equal
// scores keep candidate order.
func rankTargets(g *world.Game, p *world.Player, rnd *prng.PseudoRandom, enemy *world.Player, recent *RecentTargets) []scoredTile {
	var silos []world.TileRef
	for _, s := range p.Units(world.MissileSilo) {
		silos = append(silos, s.Tile())
	}
	seen := map[world.TileRef]bool{}
	var out []scoredTile
	for _, t := range nukeCandidates(g, rnd, enemy) {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, scoredTile{tile: t, score: nukeTileScore(g, p, t, silos, recent)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// chooseNukeTarget picks the best tile of enemy to strike and the bomb to
// strike it with. The hydrogen bomb is preferred whenever p can launch one.
func chooseNukeTarget(g *world.Game, p *world.Player, rnd *prng.PseudoRandom, enemy *world.Player, recent *RecentTargets) (world.TileRef, world.UnitType, bool) {
	if p.UnitCount(world.MissileSilo) == 0 {
		return 0, "", false
	}
	ranked := rankTargets(g, p, rnd, enemy, recent)
	if len(ranked) == 0 || ranked[0].score <= 0 {
		return 0, "", false
	}
	best := ranked[0].tile
	if _, ok := p.CanBuild(world.HydrogenBomb, best); ok {
		return best, world.HydrogenBomb, true
	}
	if _, ok := p.CanBuild(world.AtomBomb, best); ok {
		return best, world.AtomBomb, true
	}
	return 0, "", false
}

// readyPlanes are p's war planes able to drop a bomb now.
func readyPlanes(g *world.Game, p *world.Player) []*world.Unit {
	cfg := g.Config().Game
	var out []*world.Unit
	for _, u := range p.Units(world.WarPlane) {
		if u.BombReady(g.Ticks(), cfg.PlaneBombCooldown) {
			if _, busy := u.TargetTile(); !busy {
				out = append(out, u)
			}
		}
	}
	return out
}

// salvoSize decides how many of planes p sends at enemy. Against an enemy
// nearly as strong as p, or one defended by SAM launchers, a salvo of 30
// to 99 percent of the planes flies; otherwise one or two. Never more than
// p can pay for.
func salvoSize(p, enemy *world.Player, rnd *prng.PseudoRandom, planes int) int {
	if planes == 0 {
		return 0
	}
	affordable := planes
	if cost := p.Cost(world.PlaneBomb); !cost.IsZero() {
		affordable = int(min(int64(planes), p.Gold().DivFloor(cost)))
	}
	if float64(enemy.Troops()) >= salvoTroopRatio*float64(p.Troops()) || enemy.UnitCount(world.SAMLauncher) > 0 {
		return min(max(1, planes*rnd.NextInt(30, 100)/100), affordable)
	}
	return min(affordable, rnd.NextInt(1, 3))
}

// spreadTargets picks up to n enemy structure tiles, most crowded first,
// keeping them at least one and a half radii apart.
func spreadTargets(g *world.Game, enemy *world.Player, n int, radius int) []world.TileRef {
	gm := g.Map()
	type cand struct {
		tile  world.TileRef
		score int
	}
	var cands []cand
	for _, u := range enemy.Units(world.StructureTypes...) {
		c := cand{tile: u.Tile()}
		for _, ud := range g.NearbyUnits(u.Tile(), radius, world.StructureTypes...) {
			if ud.Unit.OwnerID() == enemy.ID() {
				c.score++
			}
		}
		cands = append(cands, c)
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	minDist := salvoSpreadMultiplier * float64(radius)
	var out []world.TileRef
	for _, c := range cands {
		if len(out) == n {
			break
		}
		far := true
		for _, t := range out {
			if world.Euclidean(gm, t, c.tile) < minDist {
				far = false
				break
			}
		}
		if far {
			out = append(out, c.tile)
		}
	}
	return out
}
