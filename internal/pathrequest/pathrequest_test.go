package pathrequest

import (
	"testing"

	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
)

func TestHandleAttachesHierarchicalPath(t *testing.T) {
	grid := gridfield.New(100, 100, fixedmath.One, fixedmath.ZeroVec2)
	id := entity.ID{Index: 1}
	agents := map[entity.ID]*entity.Agent{id: {ID: id}}

	Handle([]Request{{Entity: id, Goal: fixedmath.Vec2FromFloat64(30, 40)}}, grid, 25, agents)

	agent := agents[id]
	if agent.Path.Kind != entity.PathHierarchical {
		t.Fatalf("expected hierarchical path, got %v", agent.Path.Kind)
	}
	if agent.Path.GoalCluster != [2]int{1, 1} {
		t.Fatalf("expected cluster (1,1), got %v", agent.Path.GoalCluster)
	}
}

func TestHandleSkipsOutOfBoundsGoal(t *testing.T) {
	grid := gridfield.New(10, 10, fixedmath.One, fixedmath.ZeroVec2)
	id := entity.ID{Index: 1}
	agents := map[entity.ID]*entity.Agent{id: {ID: id}}

	Handle([]Request{{Entity: id, Goal: fixedmath.Vec2FromFloat64(999, 999)}}, grid, 25, agents)

	if agents[id].Path.Kind != entity.PathNone {
		t.Fatal("expected no path attached for out-of-bounds goal")
	}
}

func TestHandleSkipsUnknownEntity(t *testing.T) {
	grid := gridfield.New(10, 10, fixedmath.One, fixedmath.ZeroVec2)
	agents := map[entity.ID]*entity.Agent{}
	// Must not panic on a request referencing an entity not in the table.
	Handle([]Request{{Entity: entity.ID{Index: 99}, Goal: fixedmath.Vec2FromFloat64(1, 1)}}, grid, 25, agents)
}
