package steering

import (
	"sort"

	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

// neighborDist pairs a candidate with its squared distance to the agent,
// so the closest-N selection sorts once instead of recomputing distance on
// every comparison.
type neighborDist struct {
	agent  *entity.Agent
	distSq fixedmath.Fixed
}

// ApplyBoids implements the boids paragraph of §4.5. candidates is every
// entity the spatial hash returned within NeighborRadius (already resolved
// to *entity.Agent by the caller, which owns the entity table); this
// function selects the closest BoidsMaxNeighbors by squared distance and
// accumulates separation, alignment, and cohesion into Accel.
func ApplyBoids(a *entity.Agent, candidates []*entity.Agent, cfg Config) {
	if len(candidates) == 0 {
		return
	}

	ranked := make([]neighborDist, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, neighborDist{agent: c, distSq: a.Pos.DistanceSquared(c.Pos)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].distSq < ranked[j].distSq })
	if cfg.BoidsMaxNeighbors > 0 && len(ranked) > cfg.BoidsMaxNeighbors {
		ranked = ranked[:cfg.BoidsMaxNeighbors]
	}

	var separation, velSum, posSum fixedmath.Fixed2
	velCount := 0
	posCount := 0
	sepRadiusSq := cfg.SeparationRadius.Mul(cfg.SeparationRadius)

	for _, n := range ranked {
		if n.distSq > 0 && n.distSq <= sepRadiusSq {
			away := a.Pos.Sub(n.agent.Pos)
			// Inverse-square weighting: closer neighbors push harder.
			weight := fixedmath.One.Div(n.distSq)
			separation = separation.Add(away.Normalize().Scale(weight))
		}
		velSum = velSum.Add(n.agent.Vel)
		velCount++
		posSum = posSum.Add(n.agent.Pos)
		posCount++
	}

	if !separation.IsZero() {
		separation = separation.ClampMagnitude(cfg.SeparationForceCeiling)
		desired := separation.Normalize().Scale(cfg.MaxSpeed)
		force := desired.Sub(a.Vel).ClampMagnitude(cfg.MaxForce)
		a.Accel = a.Accel.Add(force.Scale(cfg.SeparationWeight))
	}

	if velCount > 0 {
		avgVel := velSum.Scale(fixedmath.One.DivInt(velCount))
		if !avgVel.IsZero() {
			desired := avgVel.Normalize().Scale(cfg.MaxSpeed)
			force := desired.Sub(a.Vel).ClampMagnitude(cfg.MaxForce)
			a.Accel = a.Accel.Add(force.Scale(cfg.AlignmentWeight))
		}
	}

	if posCount > 0 {
		avgPos := posSum.Scale(fixedmath.One.DivInt(posCount))
		toCenter := avgPos.Sub(a.Pos)
		if !toCenter.IsZero() {
			desired := toCenter.Normalize().Scale(cfg.MaxSpeed)
			force := desired.Sub(a.Vel).ClampMagnitude(cfg.MaxForce)
			a.Accel = a.Accel.Add(force.Scale(cfg.CohesionWeight))
		}
	}
}
