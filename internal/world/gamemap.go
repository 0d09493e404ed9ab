package world

import (
	"math"

	"github.com/tilewars/server/internal/data"
)

// TileRef addresses one grid cell: y*width + x.
type TileRef uint32

const (
	flagLand byte = 1 << iota
	flagOcean
	flagShore      // land next to any water
	flagOceanShore // land next to ocean
)

// GameMap is the static terrain grid plus the per-tile owner index.
type GameMap struct {
	width, height int
	terrain       []byte
	flags         []byte
	owners        []uint16 // small player ids, 0 = unowned
}

// NewGameMap builds a grid from loaded map data.
func NewGameMap(md *data.MapData) *GameMap {
	w, h := md.Info.Width, md.Info.Height
	gm := &GameMap{
		width:   w,
		height:  h,
		terrain: append([]byte(nil), md.Terrain...),
		flags:   make([]byte, w*h),
		owners:  make([]uint16, w*h),
	}
	for i, t := range gm.terrain {
		switch t {
		case data.TerrainOcean:
			gm.flags[i] |= flagOcean
		case data.TerrainLake:
		default:
			gm.flags[i] |= flagLand
		}
	}
	for i := range gm.terrain {
		if gm.flags[i]&flagLand == 0 {
			continue
		}
		for _, n := range gm.Neighbors(TileRef(i)) {
			if gm.flags[n]&flagLand == 0 {
				gm.flags[i] |= flagShore
				if gm.flags[n]&flagOcean != 0 {
					gm.flags[i] |= flagOceanShore
				}
			}
		}
	}
	return gm
}

func (m *GameMap) Width() int      { return m.width }
func (m *GameMap) Height() int     { return m.height }
func (m *GameMap) NumTiles() int   { return m.width * m.height }
func (m *GameMap) X(t TileRef) int { return int(t) % m.width }
func (m *GameMap) Y(t TileRef) int { return int(t) / m.width }

// Ref converts coordinates to a TileRef. Coordinates must be valid.
func (m *GameMap) Ref(x, y int) TileRef {
	if !m.IsValidCoord(x, y) {
		Invariantf("tile (%d,%d) outside %dx%d map", x, y, m.width, m.height)
	}
	return TileRef(y*m.width + x)
}

func (m *GameMap) IsValidCoord(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

func (m *GameMap) IsValidRef(t TileRef) bool {
	return int(t) < len(m.terrain)
}

func (m *GameMap) IsLand(t TileRef) bool       { return m.flags[t]&flagLand != 0 }
func (m *GameMap) IsWater(t TileRef) bool      { return m.flags[t]&flagLand == 0 }
func (m *GameMap) IsOcean(t TileRef) bool      { return m.flags[t]&flagOcean != 0 }
func (m *GameMap) IsLake(t TileRef) bool       { return m.terrain[t] == data.TerrainLake }
func (m *GameMap) IsShore(t TileRef) bool      { return m.flags[t]&flagShore != 0 }
func (m *GameMap) IsOceanShore(t TileRef) bool { return m.flags[t]&flagOceanShore != 0 }
func (m *GameMap) IsMountain(t TileRef) bool   { return m.terrain[t] == data.TerrainMountain }
func (m *GameMap) IsHighland(t TileRef) bool   { return m.terrain[t] == data.TerrainHighland }

// OwnerID returns the small id of the tile's owner, 0 when unowned.
func (m *GameMap) OwnerID(t TileRef) uint16 { return m.owners[t] }
func (m *GameMap) HasOwner(t TileRef) bool  { return m.owners[t] != 0 }

func (m *GameMap) setOwnerID(t TileRef, id uint16) { m.owners[t] = id }

// Neighbors returns the 4-connected neighbours in N, E, S, W order.
func (m *GameMap) Neighbors(t TileRef) []TileRef {
	x, y := m.X(t), m.Y(t)
	out := make([]TileRef, 0, 4)
	if y > 0 {
		out = append(out, t-TileRef(m.width))
	}
	if x < m.width-1 {
		out = append(out, t+1)
	}
	if y < m.height-1 {
		out = append(out, t+TileRef(m.width))
	}
	if x > 0 {
		out = append(out, t-1)
	}
	return out
}

func (m *GameMap) ManhattanDist(a, b TileRef) int {
	return absInt(m.X(a)-m.X(b)) + absInt(m.Y(a)-m.Y(b))
}

func (m *GameMap) EuclideanDistSquared(a, b TileRef) int {
	dx, dy := m.X(a)-m.X(b), m.Y(a)-m.Y(b)
	return dx*dx + dy*dy
}

// DistanceMetric measures distance between two tiles.
type DistanceMetric func(m *GameMap, a, b TileRef) float64

func Euclidean(m *GameMap, a, b TileRef) float64 {
	return math.Sqrt(float64(m.EuclideanDistSquared(a, b)))
}

func Manhattan(m *GameMap, a, b TileRef) float64 {
	return float64(m.ManhattanDist(a, b))
}

// Rect is the Chebyshev distance: square footprints.
func Rect(m *GameMap, a, b TileRef) float64 {
	return float64(max(absInt(m.X(a)-m.X(b)), absInt(m.Y(a)-m.Y(b))))
}

// Hex treats the grid as odd-row offset hexes.
func Hex(m *GameMap, a, b TileRef) float64 {
	ax, ay, az := offsetToCube(m.X(a), m.Y(a))
	bx, by, bz := offsetToCube(m.X(b), m.Y(b))
	return float64(max(absInt(ax-bx), absInt(ay-by), absInt(az-bz)))
}

func offsetToCube(col, row int) (x, y, z int) {
	x = col - (row-(row&1))/2
	z = row
	y = -x - z
	return
}

// TilePredicate selects tiles during BFS.
type TilePredicate func(m *GameMap, t TileRef) bool

// DistFN returns a predicate accepting tiles within dist of root under metric.
func DistFN(metric DistanceMetric, root TileRef, dist int) TilePredicate {
	return func(m *GameMap, t TileRef) bool {
		return metric(m, root, t) <= float64(dist)
	}
}

func EuclDistFN(root TileRef, dist int) TilePredicate {
	d2 := dist * dist
	return func(m *GameMap, t TileRef) bool {
		return m.EuclideanDistSquared(root, t) <= d2
	}
}

func ManhattanDistFN(root TileRef, dist int) TilePredicate {
	return func(m *GameMap, t TileRef) bool {
		return m.ManhattanDist(root, t) <= dist
	}
}

func RectDistFN(root TileRef, dist int) TilePredicate { return DistFN(Rect, root, dist) }
func HexDistFN(root TileRef, dist int) TilePredicate  { return DistFN(Hex, root, dist) }

// BFS enumerates tiles reachable from root through tiles accepted by pred,
// in breadth-first order. Root is included only if pred accepts it.
func (m *GameMap) BFS(root TileRef, pred TilePredicate) []TileRef {
	if !pred(m, root) {
		return nil
	}
	seen := map[TileRef]struct{}{root: {}}
	out := []TileRef{root}
	for i := 0; i < len(out); i++ {
		for _, n := range m.Neighbors(out[i]) {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			if pred(m, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
