package pathfind

import (
	"testing"

	"github.com/tilewars/server/internal/core/prng"
	"github.com/tilewars/server/internal/data"
	"github.com/tilewars/server/internal/world"
)

func loadMap(t *testing.T, name string) *world.GameMap {
	t.Helper()
	maps, err := data.DefaultMapData()
	if err != nil {
		t.Fatalf("load maps: %v", err)
	}
	md := maps.Get(name)
	if md == nil {
		t.Fatalf("map %s missing", name)
	}
	return world.NewGameMap(md)
}

func land(gm *world.GameMap, t world.TileRef) bool { return gm.IsLand(t) }

func walk(t *testing.T, pf *PathFinder, gm *world.GameMap, from, to world.TileRef, limit int) (int, bool) {
	t.Helper()
	cur := from
	for calls := 1; calls <= limit; calls++ {
		next, st := pf.NextTile(cur, to)
		switch st {
		case Arrived:
			return calls, true
		case NotFound:
			t.Fatalf("stuck at (%d,%d)", gm.X(cur), gm.Y(cur))
		}
		if gm.ManhattanDist(cur, next) != 1 {
			t.Fatalf("jumped from %d to %d", cur, next)
		}
		cur = next
	}
	return limit, false
}

func TestReachesDestinationWithinPathLength(t *testing.T) {
	gm := loadMap(t, "plains")
	cases := []struct {
		name   string
		metric world.DistanceMetric
		from   [2]int
		to     [2]int
	}{
		{"manhattan", world.Manhattan, [2]int{2, 2}, [2]int{30, 20}},
		{"euclidean", world.Euclidean, [2]int{40, 45}, [2]int{5, 3}},
		{"rect", world.Rect, [2]int{10, 40}, [2]int{45, 5}},
		{"hex", world.Hex, [2]int{0, 0}, [2]int{20, 30}},
		{"straight", world.Euclidean, [2]int{3, 25}, [2]int{40, 25}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pf := New(gm, prng.New(7), land, tc.metric)
			from := gm.Ref(tc.from[0], tc.from[1])
			to := gm.Ref(tc.to[0], tc.to[1])
			bound := gm.ManhattanDist(from, to) + 1
			calls, ok := walk(t, pf, gm, from, to, bound)
			if !ok {
				t.Fatalf("did not arrive within %d calls", bound)
			}
			if calls != bound {
				t.Fatalf("took %d calls, shortest is %d", calls, bound)
			}
		})
	}
}

func TestRoutesAroundMountains(t *testing.T) {
	gm := loadMap(t, "plains")
	notMountain := func(gm *world.GameMap, t world.TileRef) bool { return gm.IsLand(t) && !gm.IsMountain(t) }
	pf := New(gm, prng.New(3), notMountain, world.Manhattan)
	from, to := gm.Ref(52, 12), gm.Ref(68, 12) // the ridge spans x 56..64 on this row
	limit := 4 * gm.ManhattanDist(from, to)
	if _, ok := walk(t, pf, gm, from, to, limit); !ok {
		t.Fatal("did not reach a destination behind mountains")
	}
}

func TestArrivedOnDestination(t *testing.T) {
	gm := loadMap(t, "plains")
	pf := New(gm, prng.New(1), land, nil)
	tile := gm.Ref(4, 4)
	if next, st := pf.NextTile(tile, tile); st != Arrived || next != tile {
		t.Fatalf("NextTile(x, x) = %d, %s", next, st)
	}
}

func TestUnreachableNeverStandsStill(t *testing.T) {
	gm := loadMap(t, "islands")
	pf := NewWater(gm, prng.New(11))
	cur := gm.Ref(1, 1)
	dst := gm.Ref(18, 25) // inland lake
	last := cur
	for i := 0; i < 200; i++ {
		next, st := pf.NextTile(cur, dst)
		if st != Next {
			t.Fatalf("call %d: status %s", i, st)
		}
		if next == last {
			t.Fatalf("call %d returned the same tile as the previous call", i)
		}
		if !gm.IsWater(next) {
			t.Fatalf("call %d left the water", i)
		}
		last, cur = next, next
	}
}

func TestSameSeedSameRoute(t *testing.T) {
	gm := loadMap(t, "plains")
	route := func() []world.TileRef {
		pf := NewAir(gm, prng.New(99))
		cur, dst := gm.Ref(0, 0), gm.Ref(30, 40)
		var out []world.TileRef
		for {
			next, st := pf.NextTile(cur, dst)
			if st != Next {
				return out
			}
			out = append(out, next)
			cur = next
		}
	}
	a, b := route(), route()
	if len(a) != len(b) {
		t.Fatalf("route lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("routes diverge at step %d", i)
		}
	}
}

func TestRecomputesWhenDestinationChanges(t *testing.T) {
	gm := loadMap(t, "plains")
	pf := New(gm, prng.New(5), land, world.Manhattan)
	cur := gm.Ref(10, 10)
	next, _ := pf.NextTile(cur, gm.Ref(20, 10))
	if gm.X(next) != 11 {
		t.Fatalf("first step east expected, got (%d,%d)", gm.X(next), gm.Y(next))
	}
	next, _ = pf.NextTile(next, gm.Ref(11, 0))
	if gm.Y(next) != 9 {
		t.Fatalf("step north expected after retarget, got (%d,%d)", gm.X(next), gm.Y(next))
	}
}
