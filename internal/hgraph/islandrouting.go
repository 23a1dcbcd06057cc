package hgraph

import (
	"fmt"

	"github.com/katalvlaran/lvlath/graph"
)

func islandNodeID(key IslandKey) string {
	return fmt.Sprintf("c%d_%d_i%d", key.Cluster.CX, key.Cluster.CY, key.Island)
}

// allIslandKeys returns every (cluster, island) pair in the graph.
func (g *Graph) allIslandKeys() []IslandKey {
	var keys []IslandKey
	for cid, cluster := range g.Clusters {
		for _, island := range cluster.Islands {
			keys = append(keys, IslandKey{Cluster: cid, Island: island.ID})
		}
	}
	return keys
}

// buildIslandRouting runs Dijkstra, once per island, over the inter-cluster
// portal graph and records the first portal id to take toward every
// reachable destination island.
func (g *Graph) buildIslandRouting() {
	keys := g.allIslandKeys()

	ig := graph.NewGraph(false, true)
	for _, key := range keys {
		ig.AddVertex(&graph.Vertex{ID: islandNodeID(key)})
	}
	for _, portal := range g.Portals {
		if !portal.HasSibing {
			continue
		}
		sibling := g.Portals[portal.Sibling]
		if sibling == nil {
			continue
		}
		from := IslandKey{Cluster: portal.Cluster, Island: portal.Island}
		to := IslandKey{Cluster: sibling.Cluster, Island: sibling.Island}
		ig.AddEdge(islandNodeID(from), islandNodeID(to), 1)
	}

	g.IslandRouting = make(map[IslandKey]map[IslandKey]PortalID, len(keys))
	for _, src := range keys {
		_, parent, err := ig.Dijkstra(islandNodeID(src))
		if err != nil {
			continue
		}
		routes := make(map[IslandKey]PortalID)
		for _, dst := range keys {
			if src == dst {
				continue
			}
			hop, ok := firstHop(parent, islandNodeID(src), islandNodeID(dst))
			if !ok {
				continue
			}
			portalID := g.firstPortalTowardIslandNode(src, hop)
			if portalID != 0 {
				routes[dst] = portalID
			}
		}
		g.IslandRouting[src] = routes
	}

	g.computeComponents(keys, ig)
}

// firstPortalTowardIslandNode finds the portal on src's boundary whose
// sibling belongs to the island identified by hopNodeID.
func (g *Graph) firstPortalTowardIslandNode(src IslandKey, hopNodeID string) PortalID {
	cluster := g.Clusters[src.Cluster]
	if cluster == nil || int(src.Island) >= len(cluster.Islands) {
		return 0
	}
	island := cluster.Islands[src.Island]
	for dir, has := range island.HasExit {
		if !has {
			continue
		}
		portalID := island.ExitPortal[dir]
		portal := g.Portals[portalID]
		if portal == nil || !portal.HasSibing {
			continue
		}
		sibling := g.Portals[portal.Sibling]
		if sibling == nil {
			continue
		}
		siblingKey := IslandKey{Cluster: sibling.Cluster, Island: sibling.Island}
		if islandNodeID(siblingKey) == hopNodeID {
			return portalID
		}
	}
	return 0
}

// computeComponents assigns every island a connected-component id over the
// island graph (ignoring edge direction, since portal edges are already
// bidirectional), used by the unreachable-goal fallback.
func (g *Graph) computeComponents(keys []IslandKey, ig *graph.Graph) {
	g.componentOf = make(map[IslandKey]int, len(keys))
	g.components = nil
	visited := make(map[string]bool, len(keys))

	for _, start := range keys {
		startID := islandNodeID(start)
		if visited[startID] {
			continue
		}
		compID := len(g.components)
		queue := []string{startID}
		visited[startID] = true
		var members []IslandKey
		keyByID := make(map[string]IslandKey, len(keys))
		for _, k := range keys {
			keyByID[islandNodeID(k)] = k
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if k, ok := keyByID[cur]; ok {
				members = append(members, k)
				g.componentOf[k] = compID
			}
			for _, nbVertex := range ig.Neighbors(cur) {
				nb := nbVertex.ID
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		g.components = append(g.components, members)
	}
}
