package hgraph

import "strategycore/server/internal/fixedmath"

// Resolved is the result of locating a world position within the
// hierarchical structure.
type Resolved struct {
	Cluster ClusterID
	Region  RegionID
	Island  IslandID
	OK      bool
}

// Locate resolves a world position to its cluster/region/island, using the
// quantized grid lookup. A position over an impassable or out-of-bounds
// cell resolves with OK=false.
func (g *Graph) Locate(p fixedmath.Fixed2) Resolved {
	col, row, ok := g.Grid.WorldToGrid(p)
	if !ok {
		return Resolved{}
	}
	clusterID := ClusterID{CX: col / ClusterSize, CY: row / ClusterSize}
	cluster, ok := g.Clusters[clusterID]
	if !ok {
		return Resolved{}
	}
	region, ok := cluster.regionAt(col-cluster.Bounds.MinCol, row-cluster.Bounds.MinRow)
	if !ok {
		return Resolved{}
	}
	island, ok := cluster.islandOf(region)
	if !ok {
		return Resolved{}
	}
	return Resolved{Cluster: clusterID, Region: region, Island: island, OK: true}
}

// Step is the outcome of one query-protocol evaluation: where to steer this
// tick, whether the agent should stop now (Arrived: its own position
// resolves to no region, or an unreachable goal has no reachable portal to
// fall back to), and whether Target is a fallback portal rather than a hop
// toward the goal (Fallback).
type Step struct {
	Target   fixedmath.Fixed2
	Arrived  bool
	Fallback bool
}

// Query drives an agent at pos toward goal using the precomputed routing
// tables, per §4.3.8: straight line within a shared region, the local
// routing table within a shared cluster, and the island routing table
// across clusters. Unreachable goals (a different connected component, or a
// goal that fails to resolve at all) fall back to the nearest portal still
// reachable from the agent's own component; that Step carries Fallback, and
// the caller decides when the agent has reached the fallback target.
func (g *Graph) Query(pos, goal fixedmath.Fixed2) Step {
	from := g.Locate(pos)
	if !from.OK {
		return Step{Target: pos, Arrived: true}
	}
	to := g.Locate(goal)
	if !to.OK {
		return g.fallbackStep(from, goal)
	}

	if from.Cluster == to.Cluster {
		if from.Region == to.Region {
			return Step{Target: goal}
		}
		cluster := g.Clusters[from.Cluster]
		hop := cluster.LocalRouting[from.Region][to.Region]
		if hop == NoPath {
			return g.fallbackStep(from, goal)
		}
		return Step{Target: g.portalTarget(cluster, from.Region, RegionID(hop))}
	}

	srcKey := IslandKey{Cluster: from.Cluster, Island: from.Island}
	dstKey := IslandKey{Cluster: to.Cluster, Island: to.Island}
	routes, ok := g.IslandRouting[srcKey]
	if !ok {
		return g.fallbackStep(from, goal)
	}
	portalID, ok := routes[dstKey]
	if !ok {
		return g.fallbackStep(from, goal)
	}
	portal := g.Portals[portalID]
	if portal == nil {
		return g.fallbackStep(from, goal)
	}
	return Step{Target: portal.WorldPos}
}

// portalTarget finds the portal edge on `from` leading to `next` and
// returns its center; this is the within-cluster region-to-region hop.
func (g *Graph) portalTarget(cluster *Cluster, from, next RegionID) fixedmath.Fixed2 {
	region := &cluster.Regions[from]
	for _, portal := range region.Portals {
		if portal.NextRegion == next {
			return portal.Center
		}
	}
	// Should not happen if LocalRouting was derived from the same portal
	// list, but steer toward the next region's center rather than stall.
	cx, cy := cluster.Regions[next].centerGrid()
	return g.Grid.GridToWorld(cluster.Bounds.MinCol+int(cx), cluster.Bounds.MinRow+int(cy))
}

// fallbackStep implements the "unreachable goal" and "region lookup miss"
// failure paths: steer toward the nearest portal still reachable from the
// agent's own connected component, marked Fallback so the caller can stop
// the agent there instead of jittering toward an impossible target. With no
// such portal the step reports arrival at once.
func (g *Graph) fallbackStep(from Resolved, goal fixedmath.Fixed2) Step {
	srcKey := IslandKey{Cluster: from.Cluster, Island: from.Island}
	compID, ok := g.componentOf[srcKey]
	if !ok {
		return Step{Target: goal, Arrived: true, Fallback: true}
	}

	var best *Portal
	var bestDistSq fixedmath.Fixed
	for _, key := range g.components[compID] {
		cluster := g.Clusters[key.Cluster]
		if cluster == nil || int(key.Island) >= len(cluster.Islands) {
			continue
		}
		island := cluster.Islands[key.Island]
		for dir, has := range island.HasExit {
			if !has {
				continue
			}
			portal := g.Portals[island.ExitPortal[dir]]
			if portal == nil {
				continue
			}
			distSq := portal.WorldPos.DistanceSquared(goal)
			if best == nil || distSq < bestDistSq {
				best = portal
				bestDistSq = distSq
			}
		}
	}
	if best == nil {
		return Step{Target: goal, Arrived: true, Fallback: true}
	}
	return Step{Target: best.WorldPos, Fallback: true}
}
