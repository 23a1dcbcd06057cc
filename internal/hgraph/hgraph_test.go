package hgraph

import (
	"testing"

	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
)

func openGrid(size int) *gridfield.Grid {
	return gridfield.New(size, size, fixedmath.One, fixedmath.ZeroVec2)
}

func TestBuildOpenMapSingleRegion(t *testing.T) {
	grid := openGrid(ClusterSize)
	g := Build(grid, DefaultTortuosityThreshold)

	cluster, ok := g.Clusters[ClusterID{0, 0}]
	if !ok {
		t.Fatal("expected cluster (0,0)")
	}
	if len(cluster.Regions) != 1 {
		t.Fatalf("expected a single region covering the open cluster, got %d", len(cluster.Regions))
	}
}

func TestLocalRoutingIdentityAndReachability(t *testing.T) {
	grid := openGrid(ClusterSize)
	grid.RasterizeObstacle(fixedmath.Vec2FromFloat64(12, 12), fixedmath.FromInt(2))
	g := Build(grid, DefaultTortuosityThreshold)

	for _, cluster := range g.Clusters {
		n := len(cluster.Regions)
		for i := 0; i < n; i++ {
			if cluster.LocalRouting[i][i] != uint8(i) {
				t.Fatalf("LocalRouting[%d][%d] = %d, want %d", i, i, cluster.LocalRouting[i][i], i)
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				v := cluster.LocalRouting[i][j]
				if v != NoPath && int(v) >= n {
					t.Fatalf("LocalRouting[%d][%d] = %d out of range for %d regions", i, j, v, n)
				}
			}
		}
	}
}

func TestQuerySameRegionStraightLine(t *testing.T) {
	grid := openGrid(ClusterSize)
	g := Build(grid, DefaultTortuosityThreshold)

	pos := fixedmath.Vec2FromFloat64(2, 2)
	goal := fixedmath.Vec2FromFloat64(20, 20)
	step := g.Query(pos, goal)
	if step.Target != goal {
		t.Fatalf("expected direct steer to goal inside a single region, got %v", step.Target)
	}
	if step.Fallback {
		t.Fatal("did not expect a fallback step on an open map")
	}
}

func TestQueryAcrossClustersUsesIslandRouting(t *testing.T) {
	grid := openGrid(ClusterSize * 3)
	g := Build(grid, DefaultTortuosityThreshold)

	pos := fixedmath.Vec2FromFloat64(2, 2)
	goal := fixedmath.Vec2FromFloat64(float64(ClusterSize*3-2), float64(ClusterSize*3-2))
	step := g.Query(pos, goal)
	if step.Fallback {
		t.Fatal("did not expect a fallback step on a fully connected open map")
	}
	if step.Target == goal {
		t.Fatal("expected an intermediate portal target, not a direct steer, across clusters")
	}
}

func TestQueryUnreachableGoalFallsBack(t *testing.T) {
	grid := openGrid(ClusterSize)
	// Wall off a sub-room in the corner with no openings.
	for col := 0; col < 5; col++ {
		grid.SetCost(col, 5, gridfield.CostImpassable)
	}
	for row := 0; row < 5; row++ {
		grid.SetCost(5, row, gridfield.CostImpassable)
	}
	g := Build(grid, DefaultTortuosityThreshold)

	pos := fixedmath.Vec2FromFloat64(2, 2)
	goal := fixedmath.Vec2FromFloat64(20, 20)
	step := g.Query(pos, goal)
	if !step.Fallback {
		t.Fatal("expected the walled-off region to trigger the fallback path")
	}
}
