// Package pathrequest implements §4.6: the Input-phase handler that turns
// a move command's destination into an attached Path. It deliberately does
// no pathfinding work itself — resolving the goal to a grid cell and
// handing the entity a Path::Hierarchical is all §4.3.8's per-tick query
// protocol needs to start steering; no eager portal list is computed or
// stored here.
package pathrequest

import (
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
)

// Request is one PathRequest{entity, start, goal} emitted by the Input
// phase's move-command handling.
type Request struct {
	Entity entity.ID
	Start  fixedmath.Fixed2
	Goal   fixedmath.Fixed2
}

// Handle resolves a batch of path requests against the flow-field grid and
// the hierarchical graph's cluster size, attaching Path::Hierarchical to
// each target agent. A goal outside the grid leaves the agent without a
// Path — it simply does not move, per the errors table.
func Handle(requests []Request, grid *gridfield.Grid, clusterSize int, agents map[entity.ID]*entity.Agent) {
	for _, req := range requests {
		agent, ok := agents[req.Entity]
		if !ok {
			continue
		}
		col, row, ok := grid.WorldToGrid(req.Goal)
		if !ok {
			continue
		}
		agent.Path = entity.Path{
			Kind:        entity.PathHierarchical,
			Goal:        req.Goal,
			GoalCluster: [2]int{col / clusterSize, row / clusterSize},
		}
	}
}
