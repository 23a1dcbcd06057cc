package hgraph

import "strategycore/server/internal/gridfield"

// Build constructs the full hierarchical pathfinding structure for a map:
// it partitions the flow-field grid into clusters, decomposes each cluster
// into convex regions, groups regions into islands, links clusters with
// inter-cluster portals, and runs the two routing tables. Maps are
// typically rebuilt at map load or editor bake (§4.8), not during
// gameplay ticks.
func Build(grid *gridfield.Grid, tortuosityThreshold float64) *Graph {
	g := &Graph{
		Grid:     grid,
		Cluster:  ClusterSize,
		Clusters: make(map[ClusterID]*Cluster),
	}

	clustersWide := (grid.Width + ClusterSize - 1) / ClusterSize
	clustersHigh := (grid.Height + ClusterSize - 1) / ClusterSize

	for cy := 0; cy < clustersHigh; cy++ {
		for cx := 0; cx < clustersWide; cx++ {
			id := ClusterID{CX: cx, CY: cy}
			bounds := Rect{
				MinCol: cx * ClusterSize,
				MinRow: cy * ClusterSize,
				MaxCol: min(cx*ClusterSize+ClusterSize-1, grid.Width-1),
				MaxRow: min(cy*ClusterSize+ClusterSize-1, grid.Height-1),
			}
			cluster := &Cluster{ID: id, Bounds: bounds}
			for r := range cluster.RegionLookup {
				for c := range cluster.RegionLookup[r] {
					cluster.RegionLookup[r][c] = -1
				}
			}
			decomposeRegions(grid, cluster)
			connectRegions(grid, cluster)
			buildLocalRouting(cluster)
			detectIslands(grid, cluster, tortuosityThreshold)
			g.Clusters[id] = cluster
		}
	}

	g.buildInterClusterPortals()
	g.buildIslandRouting()

	return g
}

// RebuildCluster re-runs decomposition, routing, and island detection for a
// single cluster (and the portals/routing table that depend on it) after
// obstacles inside it change. The rebuild is idempotent: calling it twice
// in a row with no intervening edit produces the same tables.
func (g *Graph) RebuildCluster(id ClusterID, tortuosityThreshold float64) {
	cluster, ok := g.Clusters[id]
	if !ok {
		return
	}
	decomposeRegions(g.Grid, cluster)
	connectRegions(g.Grid, cluster)
	buildLocalRouting(cluster)
	detectIslands(g.Grid, cluster, tortuosityThreshold)

	// Portals and the island routing table are derived from every
	// cluster's islands, so a single-cluster edit still needs a full
	// re-derivation of those two structures; this stays cheap relative to
	// gameplay ticks because it only runs at bake time, never mid-tick.
	g.buildInterClusterPortals()
	g.buildIslandRouting()
}
