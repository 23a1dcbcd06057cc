// Package steering implements the per-tick steering systems run during the
// simulation loop's Steering phase (§4.5): friction, path-follow through
// the hierarchical graph's query protocol, external force sources, boids,
// and arrival/crowding. Every system here only writes Accel — Integration
// is the sole system that turns acceleration into velocity and position,
// matching the teacher's phase separation in internal/sim/loop.go.
package steering

import (
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/hgraph"
)

// Config carries every tunable the steering systems read. All distances,
// speeds, and weights are determinism-affecting and therefore live in the
// initial (not runtime) configuration document.
type Config struct {
	Friction    fixedmath.Fixed
	MinVelocity fixedmath.Fixed

	MaxSpeed fixedmath.Fixed
	MaxForce fixedmath.Fixed

	ArrivalThreshold    fixedmath.Fixed
	CheckDistMultiplier fixedmath.Fixed

	NeighborRadius         fixedmath.Fixed
	SeparationRadius       fixedmath.Fixed
	BoidsMaxNeighbors      int
	SeparationWeight       fixedmath.Fixed
	AlignmentWeight        fixedmath.Fixed
	CohesionWeight         fixedmath.Fixed
	SeparationForceCeiling fixedmath.Fixed
}

// ApplyFriction implements §4.5 step 2(a): v <- v*friction, snapped to
// zero below MinVelocity so agents at rest don't drift from fixed-point
// residue.
func ApplyFriction(a *entity.Agent, cfg Config) {
	a.Vel = a.Vel.Scale(cfg.Friction)
	if a.Vel.Length() < cfg.MinVelocity {
		a.Vel = fixedmath.ZeroVec2
	}
}

// FollowPath implements §4.5 step 2(b): an agent with a Path steers
// toward the target the hierarchical query protocol returns this tick,
// accumulating a seek force into Accel. Arrival (and the crowding variant)
// is handled separately by CheckArrival so the caller can run it before or
// after neighbor-dependent systems.
func FollowPath(a *entity.Agent, graph *hgraph.Graph, cfg Config) {
	if a.Path.Kind == entity.PathNone {
		return
	}

	var target fixedmath.Fixed2
	switch a.Path.Kind {
	case entity.PathDirect:
		target = a.Path.Goal
	case entity.PathHierarchical:
		step := graph.Query(a.Pos, a.Path.Goal)
		// A fallback target (nearest reachable portal toward an unreachable
		// goal) counts as arrival once the agent is within ArrivalThreshold.
		if step.Arrived || (step.Fallback && a.Pos.Distance(step.Target) <= cfg.ArrivalThreshold) {
			a.Path = entity.Path{}
			a.Vel = fixedmath.ZeroVec2
			return
		}
		target = step.Target
	default:
		return
	}

	desired := target.Sub(a.Pos)
	if desired.IsZero() {
		return
	}
	desired = desired.Normalize().Scale(cfg.MaxSpeed)
	force := desired.Sub(a.Vel).ClampMagnitude(cfg.MaxForce)
	a.Accel = a.Accel.Add(force)
}

// CheckArrival implements the arrival/crowding paragraph of §4.5: an agent
// within ArrivalThreshold of its goal, or touching an already-arrived unit
// while within CheckDistMultiplier*radius of the goal, drops its Path and
// stops.
func CheckArrival(a *entity.Agent, neighbors []*entity.Agent, cfg Config) {
	if a.Path.Kind == entity.PathNone {
		return
	}
	goal := a.Path.Goal
	if a.Pos.Distance(goal) <= cfg.ArrivalThreshold {
		a.Path = entity.Path{}
		a.Vel = fixedmath.ZeroVec2
		return
	}

	checkDist := cfg.CheckDistMultiplier.Mul(a.Collider.Radius)
	if a.Pos.Distance(goal) > checkDist {
		return
	}
	for _, other := range neighbors {
		if other.Path.Kind != entity.PathNone {
			continue
		}
		contactDist := a.Collider.Radius + other.Collider.Radius
		if a.Pos.Distance(other.Pos) <= contactDist {
			a.Path = entity.Path{}
			a.Vel = fixedmath.ZeroVec2
			return
		}
	}
}

// ApplyForceSources implements §4.5 step 2(c): every force source within
// Radius of the agent contributes to Accel, radial sources scaled by
// Strength (signed: attract or repel) and directional sources contributing
// their vector outright.
func ApplyForceSources(a *entity.Agent, sources []entity.ForceSource, cfg Config) {
	for _, src := range sources {
		dist := a.Pos.Distance(src.Pos)
		if dist > src.Radius {
			continue
		}
		switch src.Kind {
		case entity.ForceRadial:
			dir := src.Pos.Sub(a.Pos)
			if dir.IsZero() {
				continue
			}
			a.Accel = a.Accel.Add(dir.Normalize().Scale(src.Strength))
		case entity.ForceDirectional:
			a.Accel = a.Accel.Add(src.Vector)
		}
	}
}
