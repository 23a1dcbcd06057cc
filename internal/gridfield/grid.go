// Package gridfield implements the flow-field cost grid: a uniform array of
// per-cell movement costs used both as the walkability source for the
// hierarchical graph's region decomposition and as the rasterization target
// for static obstacles. It generalizes the teacher's uniform navigation grid
// (internal/world/navigation.go) from a float64 A* cost grid tied to player
// pathing into a byte-cost field shared by the hierarchical pathfinder.
package gridfield

import "strategycore/server/internal/fixedmath"

// CostWalkable is the default cost of an unobstructed cell.
const CostWalkable byte = 1

// CostImpassable marks a cell no agent can occupy.
const CostImpassable byte = 255

// Grid is a row-major array of per-cell movement costs. Origin is the
// bottom-left corner of the grid in world space; Cell is the edge length of
// one cell.
type Grid struct {
	Width  int
	Height int
	Cell   fixedmath.Fixed
	Origin fixedmath.Fixed2
	Cost   []byte
}

// New allocates a grid of the given dimensions with every cell walkable.
func New(width, height int, cell fixedmath.Fixed, origin fixedmath.Fixed2) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		Cell:   cell,
		Origin: origin,
		Cost:   make([]byte, width*height),
	}
	for i := range g.Cost {
		g.Cost[i] = CostWalkable
	}
	return g
}

func (g *Grid) index(col, row int) int {
	return row*g.Width + col
}

// InBounds reports whether (col, row) addresses a cell within the grid.
func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && col < g.Width && row >= 0 && row < g.Height
}

// WorldToGrid converts a world position to a grid coordinate, returning ok
// false if the position falls outside the grid. Out-of-bounds coordinates
// are the caller's signal to treat the position as non-walkable.
func (g *Grid) WorldToGrid(p fixedmath.Fixed2) (col, row int, ok bool) {
	rel := p.Sub(g.Origin)
	col = int(rel.X.Div(g.Cell).ToFloat64())
	row = int(rel.Y.Div(g.Cell).ToFloat64())
	if rel.X.ToFloat64() < 0 || rel.Y.ToFloat64() < 0 {
		return 0, 0, false
	}
	if !g.InBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// GridToWorld returns the world-space center of cell (col, row).
func (g *Grid) GridToWorld(col, row int) fixedmath.Fixed2 {
	half := g.Cell.DivInt(2)
	return fixedmath.Fixed2{
		X: g.Origin.X + g.Cell.MulInt(col) + half,
		Y: g.Origin.Y + g.Cell.MulInt(row) + half,
	}
}

// CellCost returns the cost of (col, row) and whether that cell exists.
func (g *Grid) CellCost(col, row int) (byte, bool) {
	if !g.InBounds(col, row) {
		return CostImpassable, false
	}
	return g.Cost[g.index(col, row)], true
}

// Walkable reports whether (col, row) is inside the grid and not impassable.
func (g *Grid) Walkable(col, row int) bool {
	cost, ok := g.CellCost(col, row)
	return ok && cost != CostImpassable
}

// SetCost assigns the cost of an in-bounds cell; out-of-bounds writes are
// silently ignored, matching RasterizeObstacle's off-map tolerance.
func (g *Grid) SetCost(col, row int, cost byte) {
	if !g.InBounds(col, row) {
		return
	}
	g.Cost[g.index(col, row)] = cost
}

// RasterizeObstacle marks every cell whose center lies within radius+cell/2
// of center as impassable. Cells that fall off the edge of the map are
// silently skipped — an obstacle partially off-map rasterizes only its
// on-map portion.
func (g *Grid) RasterizeObstacle(center fixedmath.Fixed2, radius fixedmath.Fixed) {
	reach := radius + g.Cell.DivInt(2)
	reachSq := reach.Mul(reach)

	// The obstacle may overhang the edge of the map, so the scan window is
	// clamped directly against the grid bounds rather than derived from
	// WorldToGrid, which rejects out-of-bounds points outright.
	rel := center.Sub(g.Origin)
	startCol := clampInt(int(rel.X.Sub(reach).Div(g.Cell).ToFloat64())-1, 0, g.Width-1)
	endCol := clampInt(int(rel.X.Add(reach).Div(g.Cell).ToFloat64())+1, 0, g.Width-1)
	startRow := clampInt(int(rel.Y.Sub(reach).Div(g.Cell).ToFloat64())-1, 0, g.Height-1)
	endRow := clampInt(int(rel.Y.Add(reach).Div(g.Cell).ToFloat64())+1, 0, g.Height-1)

	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			cellCenter := g.GridToWorld(col, row)
			distSq := cellCenter.DistanceSquared(center)
			if distSq <= reachSq {
				g.SetCost(col, row, CostImpassable)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
