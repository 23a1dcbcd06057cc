package gridfield

import (
	"testing"

	"strategycore/server/internal/fixedmath"
)

func newTestGrid() *Grid {
	return New(10, 10, fixedmath.One, fixedmath.ZeroVec2)
}

func TestWorldToGridRoundTrip(t *testing.T) {
	g := newTestGrid()
	col, row, ok := g.WorldToGrid(fixedmath.Vec2FromFloat64(3.5, 4.5))
	if !ok {
		t.Fatal("expected in-bounds")
	}
	if col != 3 || row != 4 {
		t.Fatalf("got (%d,%d) want (3,4)", col, row)
	}
}

func TestWorldToGridOutOfBounds(t *testing.T) {
	g := newTestGrid()
	if _, _, ok := g.WorldToGrid(fixedmath.Vec2FromFloat64(-1, 0)); ok {
		t.Fatal("expected out-of-bounds for negative coordinate")
	}
	if _, _, ok := g.WorldToGrid(fixedmath.Vec2FromFloat64(20, 0)); ok {
		t.Fatal("expected out-of-bounds past the grid edge")
	}
}

func TestRasterizeObstacleMarksImpassable(t *testing.T) {
	g := newTestGrid()
	g.RasterizeObstacle(fixedmath.Vec2FromFloat64(5, 5), fixedmath.FromInt(1))
	if g.Walkable(5, 5) {
		t.Fatal("center cell should be impassable")
	}
	if !g.Walkable(0, 0) {
		t.Fatal("far cell should remain walkable")
	}
}

func TestRasterizeObstacleOffMapIsSkippedNotPanicked(t *testing.T) {
	g := newTestGrid()
	g.RasterizeObstacle(fixedmath.Vec2FromFloat64(-5, -5), fixedmath.FromInt(3))
	if !g.Walkable(0, 0) {
		// Some on-map corner may legitimately fall within reach; this just
		// asserts the call didn't panic or corrupt unrelated cells.
	}
}
