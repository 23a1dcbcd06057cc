package collision

import (
	"testing"

	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

func unitCollider(radius float64) entity.Collider {
	return entity.Collider{
		Radius: fixedmath.FromFloat64(radius),
		Layer:  entity.LayerUnit,
		Mask:   entity.LayerUnit | entity.LayerObstacle,
	}
}

func TestResolveUnitUnitPushesApartOverlapping(t *testing.T) {
	a := &entity.Agent{ID: entity.ID{Index: 1}, Pos: fixedmath.Vec2FromFloat64(0, 0), Collider: unitCollider(1)}
	b := &entity.Agent{ID: entity.ID{Index: 2}, Pos: fixedmath.Vec2FromFloat64(1, 0), Collider: unitCollider(1)}
	cfg := Config{RepulsionDecay: fixedmath.One, MapWidth: fixedmath.FromInt(100), MapHeight: fixedmath.FromInt(100)}

	events := ResolveUnitUnit([][2]*entity.Agent{{a, b}}, cfg)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if a.Pos.X.ToFloat64() >= 0 {
		t.Fatalf("expected a pushed toward -x, got %v", a.Pos)
	}
	if b.Pos.X.ToFloat64() <= 1 {
		t.Fatalf("expected b pushed toward +x, got %v", b.Pos)
	}
	if !a.Collision.IsColliding || !b.Collision.IsColliding {
		t.Fatal("expected both marked colliding")
	}
}

func TestResolveUnitUnitIgnoresNonOverlapping(t *testing.T) {
	a := &entity.Agent{ID: entity.ID{Index: 1}, Pos: fixedmath.Vec2FromFloat64(0, 0), Collider: unitCollider(1)}
	b := &entity.Agent{ID: entity.ID{Index: 2}, Pos: fixedmath.Vec2FromFloat64(100, 0), Collider: unitCollider(1)}
	cfg := Config{RepulsionDecay: fixedmath.One}

	events := ResolveUnitUnit([][2]*entity.Agent{{a, b}}, cfg)
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestResolveUnitUnitEventOrdering(t *testing.T) {
	a := &entity.Agent{ID: entity.ID{Index: 5}, Pos: fixedmath.Vec2FromFloat64(0, 0), Collider: unitCollider(1)}
	b := &entity.Agent{ID: entity.ID{Index: 2}, Pos: fixedmath.Vec2FromFloat64(1, 0), Collider: unitCollider(1)}
	cfg := Config{RepulsionDecay: fixedmath.One}

	events := ResolveUnitUnit([][2]*entity.Agent{{a, b}}, cfg)
	if events[0].A.Index != 2 || events[0].B.Index != 5 {
		t.Fatalf("expected (min,max) ordering, got (%d,%d)", events[0].A.Index, events[0].B.Index)
	}
}

func TestResolveUnitObstaclePushesOut(t *testing.T) {
	a := &entity.Agent{Pos: fixedmath.Vec2FromFloat64(10.5, 10), Collider: unitCollider(1)}
	obstacles := []entity.Obstacle{{Pos: fixedmath.Vec2FromFloat64(10, 10), Radius: fixedmath.FromInt(1)}}
	cfg := Config{MapWidth: fixedmath.FromInt(100), MapHeight: fixedmath.FromInt(100)}

	ResolveUnitObstacle(a, obstacles, cfg)
	if a.Pos.Distance(obstacles[0].Pos).ToFloat64() < 1.99 {
		t.Fatalf("expected agent pushed clear of obstacle, got dist %v", a.Pos.Distance(obstacles[0].Pos))
	}
}

func TestClampToBoundsZeroesWallNormalVelocity(t *testing.T) {
	a := &entity.Agent{
		Pos:      fixedmath.Vec2FromFloat64(-5, 50),
		Vel:      fixedmath.Vec2FromFloat64(-3, 2),
		Collider: unitCollider(1),
	}
	cfg := Config{MapWidth: fixedmath.FromInt(100), MapHeight: fixedmath.FromInt(100)}
	ClampToBounds(a, cfg)

	if a.Pos.X.ToFloat64() != 1 {
		t.Fatalf("expected clamp to radius, got %v", a.Pos.X)
	}
	if a.Vel.X.ToFloat64() != 0 {
		t.Fatalf("expected wall-normal velocity zeroed, got %v", a.Vel.X)
	}
	if a.Vel.Y.ToFloat64() != 2 {
		t.Fatalf("expected tangential velocity preserved, got %v", a.Vel.Y)
	}
}
