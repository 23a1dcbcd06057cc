package hgraph

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/graph"
)

// edgeWeight converts an Euclidean distance to the int64 weight lvlath's
// Dijkstra expects, preserving three decimal digits of precision. Edges
// carry only this distance; portal length plays no part in the weight.
func edgeWeight(dist float64) int64 {
	return int64(math.Round(dist * 1000))
}

func regionNodeID(id RegionID) string {
	return fmt.Sprintf("r%d", id)
}

// regionGraph builds the weighted region-adjacency graph for a cluster: one
// vertex per region, one edge per RegionPortal, weighted by the Euclidean
// distance between region centers.
func regionGraph(cluster *Cluster) *graph.Graph {
	g := graph.NewGraph(false, true)
	for i := range cluster.Regions {
		g.AddVertex(&graph.Vertex{ID: regionNodeID(RegionID(i))})
	}
	for i := range cluster.Regions {
		region := &cluster.Regions[i]
		cx, cy := region.centerGrid()
		for _, portal := range region.Portals {
			other := &cluster.Regions[portal.NextRegion]
			ox, oy := other.centerGrid()
			dist := math.Hypot(cx-ox, cy-oy)
			g.AddEdge(regionNodeID(region.ID), regionNodeID(portal.NextRegion), edgeWeight(dist))
		}
	}
	return g
}

// buildLocalRouting runs Dijkstra from every region in the cluster over the
// intra-cluster portal graph and records, for each ordered pair, the first
// region to step to on the shortest path.
func buildLocalRouting(cluster *Cluster) {
	for i := range cluster.LocalRouting {
		for j := range cluster.LocalRouting[i] {
			cluster.LocalRouting[i][j] = NoPath
		}
	}
	n := len(cluster.Regions)
	if n == 0 {
		return
	}

	g := regionGraph(cluster)
	for i := 0; i < n; i++ {
		cluster.LocalRouting[i][i] = uint8(i)
		_, parent, err := g.Dijkstra(regionNodeID(RegionID(i)))
		if err != nil {
			continue
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			hop, ok := firstHop(parent, regionNodeID(RegionID(i)), regionNodeID(RegionID(j)))
			if !ok {
				continue
			}
			var hopID RegionID
			fmt.Sscanf(hop, "r%d", &hopID)
			cluster.LocalRouting[i][j] = uint8(hopID)
		}
	}
}

// regionPathDistances returns, for every region, the shortest-path
// distance (in grid cells) to every other region over the intra-cluster
// portal graph, or math.Inf(1) if unreachable.
func regionPathDistances(cluster *Cluster) [][]float64 {
	n := len(cluster.Regions)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = math.Inf(1)
		}
	}
	if n == 0 {
		return dist
	}
	g := regionGraph(cluster)
	for i := 0; i < n; i++ {
		d, _, err := g.Dijkstra(regionNodeID(RegionID(i)))
		if err != nil {
			continue
		}
		for j := 0; j < n; j++ {
			if raw, ok := d[regionNodeID(RegionID(j))]; ok && raw < math.MaxInt64 {
				dist[i][j] = float64(raw) / 1000
			}
		}
	}
	return dist
}

// firstHop walks the Dijkstra parent chain backward from dst until it finds
// the node whose parent is src, i.e. the first step on the shortest path
// away from src. Returns ok=false if dst is unreachable from src.
func firstHop(parent map[string]string, src, dst string) (string, bool) {
	if src == dst {
		return dst, true
	}
	cur := dst
	for {
		p, hasParent := parent[cur]
		if !hasParent {
			return "", false
		}
		if p == src {
			return cur, true
		}
		cur = p
	}
}
