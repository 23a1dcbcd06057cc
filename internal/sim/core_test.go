package sim

import (
	"testing"

	"strategycore/server/internal/collision"
	"strategycore/server/internal/command"
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
	"strategycore/server/internal/hgraph"
	"strategycore/server/internal/spatialhash"
	"strategycore/server/internal/steering"
)

func testConfig() Config {
	return Config{
		ClusterSize: hgraph.ClusterSize,

		UnitRadius:           fixedmath.FromFloat64(0.5),
		ObstacleRadius:       fixedmath.One,
		CollisionQueryRadius: fixedmath.FromInt(2),

		Steering:  steeringTestConfig(),
		Collision: collisionTestConfig(),

		SpatialHash: spatialHashTestConfig(),

		QueryBufferSize:     32,
		ActiveSetHot:        64,
		ActiveSetHysteresis: 8,
		ActiveSetMax:        4096,
	}
}

func newTestWorld(size int) *World {
	grid := gridfield.New(size, size, fixedmath.One, fixedmath.ZeroVec2)
	graph := hgraph.Build(grid, hgraph.DefaultTortuosityThreshold)
	return NewWorld(grid, graph, testConfig(), Deps{})
}

func TestApplySpawnCreatesAgent(t *testing.T) {
	w := newTestWorld(hgraph.ClusterSize)
	if err := w.Apply([]command.Command{
		{Type: command.TypeSpawn, PlayerID: 1, Spawn: &command.SpawnPayload{PlayerID: 1, Position: fixedmath.Vec2FromFloat64(2, 2)}},
	}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	snap := w.Snapshot()
	if len(snap.Agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(snap.Agents))
	}
}

func TestApplyMoveActivatesPath(t *testing.T) {
	w := newTestWorld(hgraph.ClusterSize)
	w.Apply([]command.Command{
		{Type: command.TypeSpawn, Spawn: &command.SpawnPayload{Position: fixedmath.Vec2FromFloat64(2, 2)}},
	})
	var id entity.ID
	for agentID := range w.agents {
		id = agentID
	}

	w.Apply([]command.Command{
		{Type: command.TypeMove, Move: &command.MovePayload{Entity: id, Goal: fixedmath.Vec2FromFloat64(20, 20)}},
	})
	if !w.activePaths.Contains(id.Index) {
		t.Fatal("expected entity to be in the active-path set after a move command")
	}
	if w.agents[id].Path.Kind == entity.PathNone {
		t.Fatal("expected agent to have a Path attached")
	}
}

func TestApplyStopClearsPathAndActiveSet(t *testing.T) {
	w := newTestWorld(hgraph.ClusterSize)
	w.Apply([]command.Command{
		{Type: command.TypeSpawn, Spawn: &command.SpawnPayload{Position: fixedmath.Vec2FromFloat64(2, 2)}},
	})
	var id entity.ID
	for agentID := range w.agents {
		id = agentID
	}
	w.Apply([]command.Command{
		{Type: command.TypeMove, Move: &command.MovePayload{Entity: id, Goal: fixedmath.Vec2FromFloat64(20, 20)}},
	})
	w.Apply([]command.Command{
		{Type: command.TypeStop, Stop: &command.StopPayload{Entity: id}},
	})
	if w.activePaths.Contains(id.Index) {
		t.Fatal("expected Stop to remove the entity from the active-path set")
	}
	if w.agents[id].Path.Kind != entity.PathNone {
		t.Fatal("expected Stop to clear the agent's Path")
	}
}

func TestStepMovesAgentTowardGoal(t *testing.T) {
	w := newTestWorld(hgraph.ClusterSize)
	w.Apply([]command.Command{
		{Type: command.TypeSpawn, Spawn: &command.SpawnPayload{Position: fixedmath.Vec2FromFloat64(2, 2)}},
	})
	var id entity.ID
	for agentID := range w.agents {
		id = agentID
	}
	goal := fixedmath.Vec2FromFloat64(10, 2)
	w.Apply([]command.Command{
		{Type: command.TypeMove, Move: &command.MovePayload{Entity: id, Goal: goal}},
	})

	start := w.agents[id].Pos
	dt := fixedmath.FromFloat64(1.0 / 30.0)
	for i := 0; i < 30; i++ {
		w.Step(dt)
	}
	moved := w.agents[id].Pos
	if moved.Distance(goal) >= start.Distance(goal) {
		t.Fatalf("expected agent to move closer to goal: start=%v moved=%v goal=%v", start, moved, goal)
	}
}

func TestStepIsDeterministicAcrossIdenticalRuns(t *testing.T) {
	run := func() [][2]float64 {
		w := newTestWorld(hgraph.ClusterSize)
		for i := 0; i < 5; i++ {
			w.Apply([]command.Command{
				{Type: command.TypeSpawn, PlayerID: uint32(i), Spawn: &command.SpawnPayload{
					Position: fixedmath.Vec2FromFloat64(float64(2+i), 2),
				}},
			})
		}
		ids := w.sortedAgentIDs()
		for _, id := range ids {
			w.Apply([]command.Command{
				{Type: command.TypeMove, Move: &command.MovePayload{Entity: id, Goal: fixedmath.Vec2FromFloat64(18, 18)}},
			})
		}
		dt := fixedmath.FromFloat64(1.0 / 30.0)
		for i := 0; i < 20; i++ {
			w.Step(dt)
		}
		snap := w.Snapshot()
		out := make([][2]float64, len(snap.Agents))
		for i, a := range snap.Agents {
			out[i] = [2]float64{a.PosX, a.PosY}
		}
		return out
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("expected identical agent counts, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d diverged across identical runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestDrainPatchesClearsAfterRead(t *testing.T) {
	w := newTestWorld(hgraph.ClusterSize)
	w.Apply([]command.Command{
		{Type: command.TypeSpawn, Spawn: &command.SpawnPayload{Position: fixedmath.Vec2FromFloat64(2, 2)}},
	})
	var id entity.ID
	for agentID := range w.agents {
		id = agentID
	}
	w.Apply([]command.Command{
		{Type: command.TypeMove, Move: &command.MovePayload{Entity: id, Goal: fixedmath.Vec2FromFloat64(10, 10)}},
	})
	w.Step(fixedmath.FromFloat64(1.0 / 30.0))

	if len(w.DrainPatches()) == 0 {
		t.Fatal("expected at least one position patch after a moving step")
	}
	if len(w.DrainPatches()) != 0 {
		t.Fatal("expected DrainPatches to clear the buffer")
	}
}

func steeringTestConfig() steering.Config {
	return steering.Config{
		Friction:               fixedmath.FromFloat64(0.9),
		MinVelocity:            fixedmath.FromFloat64(0.01),
		MaxSpeed:               fixedmath.FromInt(5),
		MaxForce:               fixedmath.FromInt(10),
		ArrivalThreshold:       fixedmath.FromFloat64(0.25),
		CheckDistMultiplier:    fixedmath.FromInt(3),
		NeighborRadius:         fixedmath.FromInt(3),
		SeparationRadius:       fixedmath.FromInt(1),
		BoidsMaxNeighbors:      8,
		SeparationWeight:       fixedmath.FromFloat64(1.5),
		AlignmentWeight:        fixedmath.FromFloat64(1.0),
		CohesionWeight:         fixedmath.FromFloat64(1.0),
		SeparationForceCeiling: fixedmath.FromInt(10),
	}
}

func collisionTestConfig() collision.Config {
	return collision.Config{
		RepulsionDecay: fixedmath.FromFloat64(0.5),
		MapWidth:       fixedmath.FromInt(64),
		MapHeight:      fixedmath.FromInt(64),
	}
}

func spatialHashTestConfig() spatialhash.Config {
	return spatialhash.Config{
		EntityRadii:       []fixedmath.Fixed{fixedmath.FromFloat64(0.5), fixedmath.FromInt(2)},
		RadiusToCellRatio: fixedmath.FromInt(4),
		OvercapacityRatio: fixedmath.FromFloat64(1.5),
		MaxEntityCount:    1024,
	}
}
