// Package collision implements the Physics phase's collision resolution
// (§4.5 step 4): unit-unit impulse resolution, unit-obstacle resolution,
// and map-bounds clamping. The penetration-recovery shape is carried over
// directly from the teacher's internal/world/movement.go
// (ResolveObstaclePenetration: closest-point-on-rect, push-out-by-overlap,
// degenerate-center fallback by nearest edge), generalized from
// rectangle-vs-circle against static obstacles to circle-vs-circle against
// any collider pair, and from float64 to fixed-point throughout.
package collision

import (
	"sort"

	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

// Config carries the resolution tunables.
type Config struct {
	RepulsionDecay fixedmath.Fixed
	MapWidth       fixedmath.Fixed
	MapHeight      fixedmath.Fixed
}

// Event mirrors the spec's CollisionEvent: emitted once per colliding pair
// per tick, in (min(a,b), max(a,b)) order; ResolveUnitUnit sorts the
// events it returns.
type Event struct {
	A, B    entity.ID
	Overlap fixedmath.Fixed
	Normal  fixedmath.Fixed2
}

// pairOverlaps reports whether two colliders currently overlap and, if so,
// the penetration depth and the unit normal pointing from b toward a.
func pairOverlaps(a, b *entity.Agent) (overlap fixedmath.Fixed, normal fixedmath.Fixed2, ok bool) {
	if a.Collider.Mask&b.Collider.Layer == 0 && b.Collider.Mask&a.Collider.Layer == 0 {
		return 0, fixedmath.ZeroVec2, false
	}
	delta := a.Pos.Sub(b.Pos)
	dist := delta.Length()
	contactDist := a.Collider.Radius + b.Collider.Radius
	if dist >= contactDist {
		return 0, fixedmath.ZeroVec2, false
	}
	overlap = contactDist - dist
	if delta.IsZero() {
		normal = fixedmath.Fixed2{X: fixedmath.One, Y: 0}
	} else {
		normal = delta.Normalize()
	}
	return overlap, normal, true
}

// ResolveUnitUnit implements §4.5's "resolve unit-unit (impulse along
// contact normal scaled by overlap * repulsion_decay)" for every pair
// supplied by the caller (collected via the spatial hash's neighbor
// queries). Each agent in a colliding pair is pushed apart along the
// contact normal in proportion to its share of total inverse mass; since
// the data model carries no mass, both sides split the push evenly.
// Returns the collision events, sorted per the ordering guarantee in §5
// ((min(a,b), max(a,b))).
func ResolveUnitUnit(pairs [][2]*entity.Agent, cfg Config) []Event {
	events := make([]Event, 0, len(pairs))
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		overlap, normal, ok := pairOverlaps(a, b)
		if !ok {
			continue
		}
		push := normal.Scale(overlap.Mul(cfg.RepulsionDecay).DivInt(2))
		a.Pos = a.Pos.Add(push)
		b.Pos = b.Pos.Sub(push)
		a.Collision.IsColliding = true
		b.Collision.IsColliding = true

		lo, hi := a.ID, b.ID
		if idLess(hi, lo) {
			lo, hi = hi, lo
		}
		events = append(events, Event{A: lo, B: hi, Overlap: overlap, Normal: normal})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].A != events[j].A {
			return idLess(events[i].A, events[j].A)
		}
		return idLess(events[i].B, events[j].B)
	})
	return events
}

func idLess(a, b entity.ID) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Gen < b.Gen
}

// ResolveUnitObstacle pushes an agent out of any obstacle it overlaps,
// mirroring ResolveObstaclePenetration's closest-point + degenerate-center
// fallback, generalized from a rectangle to a circular obstacle since the
// data model's StaticObstacle is circular.
func ResolveUnitObstacle(a *entity.Agent, obstacles []entity.Obstacle, cfg Config) {
	for _, obs := range obstacles {
		contactDist := a.Collider.Radius + obs.Radius
		delta := a.Pos.Sub(obs.Pos)
		dist := delta.Length()
		if dist >= contactDist {
			continue
		}
		a.Collision.IsColliding = true
		if delta.IsZero() {
			// Degenerate: agent center exactly on the obstacle center.
			// Push along +x arbitrarily but deterministically rather than
			// leaving the agent stuck (mirrors the teacher's
			// nearest-edge fallback, simplified for a circular obstacle
			// which has no distinguished edges).
			a.Pos = obs.Pos.Add(fixedmath.Fixed2{X: contactDist, Y: 0})
			continue
		}
		overlap := contactDist - dist
		a.Pos = a.Pos.Add(delta.Normalize().Scale(overlap))
	}
	ClampToBounds(a, cfg)
}

// ClampToBounds clamps an agent's position to the map and zeroes the
// wall-normal velocity component, per §4.5 step 3's integration clamp.
func ClampToBounds(a *entity.Agent, cfg Config) {
	r := a.Collider.Radius
	if a.Pos.X < r {
		a.Pos.X = r
		if a.Vel.X < 0 {
			a.Vel.X = 0
		}
	} else if a.Pos.X > cfg.MapWidth-r {
		a.Pos.X = cfg.MapWidth - r
		if a.Vel.X > 0 {
			a.Vel.X = 0
		}
	}
	if a.Pos.Y < r {
		a.Pos.Y = r
		if a.Vel.Y < 0 {
			a.Vel.Y = 0
		}
	} else if a.Pos.Y > cfg.MapHeight-r {
		a.Pos.Y = cfg.MapHeight - r
		if a.Vel.Y > 0 {
			a.Vel.Y = 0
		}
	}
}
