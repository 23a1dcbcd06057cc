package snapshot

import (
	"testing"

	"strategycore/server/internal/collision"
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

func TestBuildConvertsAgentsObstaclesForceSources(t *testing.T) {
	agents := []*entity.Agent{
		{ID: entity.ID{Index: 1}, Pos: fixedmath.Vec2FromFloat64(3, 4), Health: entity.Health{Current: 10, Max: 10}},
	}
	obstacles := []entity.Obstacle{{ID: entity.ID{Index: 2}, Pos: fixedmath.Vec2FromFloat64(1, 1), Radius: fixedmath.FromInt(2)}}
	sources := []entity.ForceSource{{ID: entity.ID{Index: 3}, Pos: fixedmath.Vec2FromFloat64(5, 5), Kind: entity.ForceRadial, Radius: fixedmath.FromInt(1)}}

	snap := Build(42, agents, obstacles, sources)
	if snap.Tick != 42 {
		t.Fatalf("expected tick 42, got %d", snap.Tick)
	}
	if len(snap.Agents) != 1 || snap.Agents[0].PosX != 3 || snap.Agents[0].PosY != 4 {
		t.Fatalf("unexpected agent view: %+v", snap.Agents)
	}
	if len(snap.Obstacles) != 1 || snap.Obstacles[0].Radius != 2 {
		t.Fatalf("unexpected obstacle view: %+v", snap.Obstacles)
	}
	if len(snap.ForceSources) != 1 {
		t.Fatalf("unexpected force source view: %+v", snap.ForceSources)
	}
}

func TestBuildCollisionEventsConvertsFields(t *testing.T) {
	events := []collision.Event{
		{A: entity.ID{Index: 1}, B: entity.ID{Index: 2}, Overlap: fixedmath.FromFloat64(0.5), Normal: fixedmath.Fixed2{X: fixedmath.One, Y: 0}},
	}
	out := BuildCollisionEvents(events)
	if len(out) != 1 || out[0].Overlap != 0.5 || out[0].NormalX != 1 {
		t.Fatalf("unexpected collision event conversion: %+v", out)
	}
}
