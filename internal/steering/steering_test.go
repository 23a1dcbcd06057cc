package steering

import (
	"testing"

	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

func baseConfig() Config {
	return Config{
		Friction:               fixedmath.FromFloat64(0.9),
		MinVelocity:            fixedmath.FromFloat64(0.01),
		MaxSpeed:               fixedmath.FromInt(5),
		MaxForce:               fixedmath.FromInt(2),
		ArrivalThreshold:       fixedmath.FromFloat64(0.5),
		CheckDistMultiplier:    fixedmath.FromInt(3),
		NeighborRadius:         fixedmath.FromInt(10),
		SeparationRadius:       fixedmath.FromInt(2),
		BoidsMaxNeighbors:      5,
		SeparationWeight:       fixedmath.One,
		AlignmentWeight:        fixedmath.One,
		CohesionWeight:         fixedmath.One,
		SeparationForceCeiling: fixedmath.FromInt(10),
	}
}

func TestApplyFrictionSnapsToZeroBelowMinVelocity(t *testing.T) {
	a := &entity.Agent{Vel: fixedmath.Vec2FromFloat64(0.001, 0)}
	cfg := baseConfig()
	ApplyFriction(a, cfg)
	if !a.Vel.IsZero() {
		t.Fatalf("expected velocity snapped to zero, got %v", a.Vel)
	}
}

func TestApplyFrictionDecaysVelocity(t *testing.T) {
	a := &entity.Agent{Vel: fixedmath.Vec2FromFloat64(10, 0)}
	cfg := baseConfig()
	ApplyFriction(a, cfg)
	if a.Vel.X.ToFloat64() >= 10 {
		t.Fatalf("expected velocity to decay, got %v", a.Vel)
	}
}

func TestFollowPathDirectSeeksGoal(t *testing.T) {
	a := &entity.Agent{
		Pos:  fixedmath.Vec2FromFloat64(0, 0),
		Path: entity.Path{Kind: entity.PathDirect, Goal: fixedmath.Vec2FromFloat64(10, 0)},
	}
	cfg := baseConfig()
	FollowPath(a, nil, cfg)
	if a.Accel.X.ToFloat64() <= 0 {
		t.Fatalf("expected positive x acceleration toward goal, got %v", a.Accel)
	}
}

func TestCheckArrivalDropsPathWithinThreshold(t *testing.T) {
	a := &entity.Agent{
		Pos:  fixedmath.Vec2FromFloat64(0, 0),
		Vel:  fixedmath.Vec2FromFloat64(1, 0),
		Path: entity.Path{Kind: entity.PathDirect, Goal: fixedmath.Vec2FromFloat64(0.1, 0)},
	}
	cfg := baseConfig()
	CheckArrival(a, nil, cfg)
	if a.Path.Kind != entity.PathNone {
		t.Fatal("expected path dropped on arrival")
	}
	if !a.Vel.IsZero() {
		t.Fatal("expected velocity zeroed on arrival")
	}
}

func TestApplyForceSourcesGatedByRadius(t *testing.T) {
	a := &entity.Agent{Pos: fixedmath.Vec2FromFloat64(0, 0)}
	sources := []entity.ForceSource{
		{Kind: entity.ForceRadial, Pos: fixedmath.Vec2FromFloat64(100, 0), Strength: fixedmath.FromInt(5), Radius: fixedmath.FromInt(1)},
		{Kind: entity.ForceRadial, Pos: fixedmath.Vec2FromFloat64(1, 0), Strength: fixedmath.FromInt(5), Radius: fixedmath.FromInt(10)},
	}
	ApplyForceSources(a, sources, baseConfig())
	if a.Accel.IsZero() {
		t.Fatal("expected the in-range source to contribute")
	}
	if a.Accel.X.ToFloat64() <= 0 {
		t.Fatalf("expected attraction toward the in-range source, got %v", a.Accel)
	}
}

func TestApplyBoidsSeparationPushesApart(t *testing.T) {
	a := &entity.Agent{Pos: fixedmath.Vec2FromFloat64(0, 0)}
	neighbor := &entity.Agent{Pos: fixedmath.Vec2FromFloat64(1, 0)}
	cfg := baseConfig()
	ApplyBoids(a, []*entity.Agent{neighbor}, cfg)
	if a.Accel.X.ToFloat64() >= 0 {
		t.Fatalf("expected separation to push away from neighbor at +x, got %v", a.Accel)
	}
}
