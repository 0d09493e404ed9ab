package world

// UnitGrid is a cell-based spatial index over unit positions. Radius
// queries visit only the cells overlapping the query square; callers do the
// exact distance filtering and ordering.
// Accessed only from the game loop goroutine, no locks.

const cellSize = 16

type cellKey struct {
	cx int
	cy int
}

type UnitGrid struct {
	cells map[cellKey]map[UnitID]struct{}
}

func NewUnitGrid() *UnitGrid {
	return &UnitGrid{cells: make(map[cellKey]map[UnitID]struct{})}
}

func keyOf(x, y int) cellKey {
	return cellKey{cx: x / cellSize, cy: y / cellSize}
}

func (g *UnitGrid) Add(id UnitID, x, y int) {
	k := keyOf(x, y)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[UnitID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *UnitGrid) Remove(id UnitID, x, y int) {
	k := keyOf(x, y)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates a unit's cell when its position changes.
func (g *UnitGrid) Move(id UnitID, oldX, oldY, newX, newY int) {
	if keyOf(oldX, oldY) == keyOf(newX, newY) {
		return
	}
	g.Remove(id, oldX, oldY)
	g.Add(id, newX, newY)
}

// Candidates returns the ids in every cell overlapping the square of side
// 2*radius+1 centred on (x, y). Order is unspecified.
func (g *UnitGrid) Candidates(x, y, radius int) []UnitID {
	var result []UnitID
	minK, maxK := keyOf(max(0, x-radius), max(0, y-radius)), keyOf(x+radius, y+radius)
	for cx := minK.cx; cx <= maxK.cx; cx++ {
		for cy := minK.cy; cy <= maxK.cy; cy++ {
			for id := range g.cells[cellKey{cx, cy}] {
				result = append(result, id)
			}
		}
	}
	return result
}
