package hgraph

import (
	"math"

	"strategycore/server/internal/gridfield"
)

// tortuosity is path_distance(a,b) / euclidean_distance(center_a, center_b).
// Unreachable pairs (infinite path distance) are never "well-connected".
func tortuosity(pathDist, euclidean float64) float64 {
	if euclidean == 0 {
		return 0
	}
	return pathDist / euclidean
}

// detectIslands groups a cluster's regions into islands by flood-filling
// outward from an unassigned region, adding any region that is
// well-connected (tortuosity below the threshold) to any region already in
// the island. Clusters with more candidate islands than MaxIslands fold the
// overflow into the last island rather than growing the cap — the spec
// does not describe overflow behavior explicitly, so this keeps every
// region assigned without an unbounded table.
func detectIslands(grid *gridfield.Grid, cluster *Cluster, threshold float64) {
	n := len(cluster.Regions)
	if n == 0 {
		cluster.Islands = nil
		return
	}

	pathDist := regionPathDistances(cluster)
	centers := make([][2]float64, n)
	for i := range cluster.Regions {
		cx, cy := cluster.Regions[i].centerGrid()
		centers[i] = [2]float64{cx, cy}
	}

	assigned := make([]bool, n)
	var islandMembers [][]RegionID

	for start := 0; start < n; start++ {
		if assigned[start] {
			continue
		}
		members := []RegionID{RegionID(start)}
		assigned[start] = true
		// Flood-fill: repeatedly scan for any unassigned region
		// well-connected to any region already in this island.
		for {
			added := false
			for cand := 0; cand < n; cand++ {
				if assigned[cand] {
					continue
				}
				for _, m := range members {
					d := pathDist[cand][m]
					if math.IsInf(d, 1) {
						continue
					}
					dx := centers[cand][0] - centers[m][0]
					dy := centers[cand][1] - centers[m][1]
					euclid := math.Hypot(dx, dy)
					if tortuosity(d, euclid) <= threshold {
						members = append(members, RegionID(cand))
						assigned[cand] = true
						added = true
						break
					}
				}
			}
			if !added {
				break
			}
		}
		islandMembers = append(islandMembers, members)

		if len(islandMembers) >= MaxIslands {
			// Dump every remaining unassigned region into the last island
			// bucket and stop forming new ones.
			var overflow []RegionID
			for cand := 0; cand < n; cand++ {
				if !assigned[cand] {
					overflow = append(overflow, RegionID(cand))
					assigned[cand] = true
				}
			}
			if len(overflow) > 0 {
				islandMembers[len(islandMembers)-1] = append(islandMembers[len(islandMembers)-1], overflow...)
			}
			break
		}
	}

	// Single-region islands with no portals are navigation orphans: they
	// are silently attached to island 0 instead of keeping their own
	// island slot.
	if len(islandMembers) > 1 {
		var kept [][]RegionID
		var orphanRegions []RegionID
		for _, members := range islandMembers {
			if len(members) == 1 && len(cluster.Regions[members[0]].Portals) == 0 {
				orphanRegions = append(orphanRegions, members...)
				continue
			}
			kept = append(kept, members)
		}
		if len(orphanRegions) > 0 {
			if len(kept) == 0 {
				kept = [][]RegionID{nil}
			}
			kept[0] = append(kept[0], orphanRegions...)
		}
		islandMembers = kept
	}

	cluster.Islands = make([]Island, len(islandMembers))
	for id, members := range islandMembers {
		repr := members[0]
		cx, cy := cluster.Regions[repr].centerGrid()
		cluster.Islands[id] = Island{
			ID:             IslandID(id),
			Regions:        members,
			Representative: grid.GridToWorld(cluster.Bounds.MinCol+int(cx), cluster.Bounds.MinRow+int(cy)),
		}
		for _, m := range members {
			cluster.Regions[m].Island = IslandID(id)
		}
	}
}
