// Package pathfind steps units across the tile grid one tile at a time.
package pathfind

import (
	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/world"
)

// Status is the outcome of one NextTile call.
type Status int

const (
	Next     Status = iota // the returned tile is the next step
	Arrived                // current tile is the destination
	NotFound               // no passable neighbour; the unit is stuck
)

func (s Status) String() string {
	switch s {
	case Next:
		return "next"
	case Arrived:
		return "arrived"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Passable reports whether a unit may stand on t. The destination tile is
// always accepted.
type Passable func(gm *world.GameMap, t world.TileRef) bool

// Search bounds. A tile is explored only while
// metric(cur,t)+metric(t,dst) <= metric(cur,dst)*stretch+margin.
const (
	stretch     = 1.5
	margin      = 2.0
	wideStretch = 3.0
	wideMargin  = 10.0
	maxNodes    = 250_000
)

// PathFinder walks one unit toward a destination. It caches the computed
// route and recomputes when the destination changes or the unit strays
// from it. Not safe for concurrent use.
type PathFinder struct {
	gm       *world.GameMap
	rnd      *prng.PseudoRandom
	passable Passable
	metric   world.DistanceMetric

	dst    world.TileRef
	route  []world.TileRef // remaining steps, route[0] first
	routed bool
	failed bool // no route to dst; step greedily until dst changes

	// tile the unit stood on at the previous call, excluded from greedy steps
	from    world.TileRef
	hasFrom bool
}

// New returns a PathFinder over tiles accepted by passable. rnd breaks ties
// between equally short routes; it belongs to the calling execution.
func New(gm *world.GameMap, rnd *prng.PseudoRandom, passable Passable, metric world.DistanceMetric) *PathFinder {
	if metric == nil {
		metric = world.Manhattan
	}
	return &PathFinder{gm: gm, rnd: rnd, passable: passable, metric: metric}
}

// NewAir returns a PathFinder for aircraft, which fly over any tile.
func NewAir(gm *world.GameMap, rnd *prng.PseudoRandom) *PathFinder {
	return New(gm, rnd, func(*world.GameMap, world.TileRef) bool { return true }, world.Euclidean)
}

// NewWater returns a PathFinder for ships, which stay on water.
func NewWater(gm *world.GameMap, rnd *prng.PseudoRandom) *PathFinder {
	return New(gm, rnd, (*world.GameMap).IsWater, world.Manhattan)
}

// NextTile returns the tile a unit standing on cur should move to next on
// its way to dst.
func (p *PathFinder) NextTile(cur, dst world.TileRef) (world.TileRef, Status) {
	prev, hasPrev := p.from, p.hasFrom && p.from != cur
	p.from, p.hasFrom = cur, true

	if cur == dst {
		p.reset()
		return cur, Arrived
	}
	if p.dst != dst {
		p.reset()
		p.dst = dst
	}
	if !p.failed && (!p.routed || !p.onRoute(cur)) {
		p.route = p.search(cur, dst, stretch, margin)
		if p.route == nil {
			p.route = p.search(cur, dst, wideStretch, wideMargin)
		}
		p.routed = p.route != nil
		p.failed = !p.routed
	}
	if p.routed {
		next := p.route[0]
		p.route = p.route[1:]
		if len(p.route) == 0 {
			p.routed = false
		}
		return next, Next
	}
	return p.greedy(cur, dst, prev, hasPrev)
}

func (p *PathFinder) reset() {
	p.route, p.routed, p.failed = nil, false, false
}

// onRoute reports whether the cached route still starts next to cur and
// its next step is still passable.
func (p *PathFinder) onRoute(cur world.TileRef) bool {
	if len(p.route) == 0 {
		return false
	}
	next := p.route[0]
	if next != p.dst && !p.passable(p.gm, next) {
		return false
	}
	for _, n := range p.gm.Neighbors(cur) {
		if n == next {
			return true
		}
	}
	return false
}

func (p *PathFinder) ok(t world.TileRef) bool {
	return t == p.dst || p.passable(p.gm, t)
}

// search runs a breadth-first expansion from cur restricted to the ellipse
// around cur and dst. It returns the steps after cur, or nil.
func (p *PathFinder) search(cur, dst world.TileRef, k, pad float64) []world.TileRef {
	gm := p.gm
	limit := p.metric(gm, cur, dst)*k + pad
	parent := map[world.TileRef]world.TileRef{cur: cur}
	queue := []world.TileRef{cur}
	var nbrs []world.TileRef

	for i := 0; i < len(queue) && len(parent) <= maxNodes; i++ {
		t := queue[i]
		nbrs = append(nbrs[:0], gm.Neighbors(t)...)
		p.rnd.Shuffle(len(nbrs), func(a, b int) { nbrs[a], nbrs[b] = nbrs[b], nbrs[a] })
		for _, n := range nbrs {
			if _, seen := parent[n]; seen || !p.ok(n) {
				continue
			}
			if p.metric(gm, cur, n)+p.metric(gm, n, dst) > limit {
				continue
			}
			parent[n] = t
			if n == dst {
				return unwind(parent, cur, dst)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func unwind(parent map[world.TileRef]world.TileRef, cur, dst world.TileRef) []world.TileRef {
	var rev []world.TileRef
	for t := dst; t != cur; t = parent[t] {
		rev = append(rev, t)
	}
	out := make([]world.TileRef, len(rev))
	for i, t := range rev {
		out[len(rev)-1-i] = t
	}
	return out
}

// greedy steps to the passable neighbour closest to dst, never back onto
// prev unless nothing else is open.
func (p *PathFinder) greedy(cur, dst, prev world.TileRef, hasPrev bool) (world.TileRef, Status) {
	nbrs := append([]world.TileRef(nil), p.gm.Neighbors(cur)...)
	p.rnd.Shuffle(len(nbrs), func(a, b int) { nbrs[a], nbrs[b] = nbrs[b], nbrs[a] })

	best, bestD, found := cur, 0.0, false
	for _, n := range nbrs {
		if !p.ok(n) || (hasPrev && n == prev) {
			continue
		}
		if d := p.metric(p.gm, n, dst); !found || d < bestD {
			best, bestD, found = n, d, true
		}
	}
	if found {
		return best, Next
	}
	if hasPrev && p.ok(prev) {
		return prev, Next
	}
	return cur, NotFound
}
