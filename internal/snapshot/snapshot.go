// Package snapshot implements the per-tick outbound state (§6 "Snapshot
// (out, per tick)") and the CollisionEvent stream. The shape is grounded
// on the teacher's internal/sim/snapshot.go (a struct of slices, one per
// entity kind, `omitempty` JSON tags) and patch.go (a typed
// Kind+EntityID+Payload diff entry) — generalized from separate
// Player/NPC/GroundItem/EffectTrigger slices into the spec's uniform
// agent/obstacle/force-source lists, and from float64 coordinates to the
// fixed-point boundary conversion the renderer actually needs.
package snapshot

import (
	"strategycore/server/internal/collision"
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
)

// AgentView is the per-tick rendering-facing view of one live agent.
type AgentView struct {
	ID          uint64  `json:"id"`
	PosX        float64 `json:"posX"`
	PosY        float64 `json:"posY"`
	PrevX       float64 `json:"prevX"`
	PrevY       float64 `json:"prevY"`
	VelX        float64 `json:"velX"`
	VelY        float64 `json:"velY"`
	Health      float64 `json:"health"`
	MaxHealth   float64 `json:"maxHealth"`
	Selected    bool    `json:"selected,omitempty"`
	IsColliding bool    `json:"isColliding,omitempty"`
}

// ObstacleView is the per-tick view of one static obstacle.
type ObstacleView struct {
	ID     uint64  `json:"id"`
	PosX   float64 `json:"posX"`
	PosY   float64 `json:"posY"`
	Radius float64 `json:"radius"`
}

// ForceSourceView is the per-tick view of one force source.
type ForceSourceView struct {
	ID     uint64  `json:"id"`
	PosX   float64 `json:"posX"`
	PosY   float64 `json:"posY"`
	Kind   int     `json:"kind"`
	Radius float64 `json:"radius"`
}

// Snapshot is the complete outbound per-tick state.
type Snapshot struct {
	Tick         uint64            `json:"tick"`
	Agents       []AgentView       `json:"agents,omitempty"`
	Obstacles    []ObstacleView    `json:"obstacles,omitempty"`
	ForceSources []ForceSourceView `json:"forceSources,omitempty"`
}

// CollisionEvent mirrors §6's CollisionEvent{a, b, overlap, normal},
// emitted once per colliding pair per tick in (min(a,b), max(a,b)) order.
type CollisionEvent struct {
	A       uint64  `json:"a"`
	B       uint64  `json:"b"`
	Overlap float64 `json:"overlap"`
	NormalX float64 `json:"normalX"`
	NormalY float64 `json:"normalY"`
}

// fixedToFloat converts a Fixed2 to its float64 rendering pair — this is
// the one deliberate crossing of the float boundary the data model
// allows, matching §3's "floating-point appears only at the rendering
// boundary".
func fixedToFloat(v fixedmath.Fixed2) (x, y float64) {
	return v.X.ToFloat64(), v.Y.ToFloat64()
}

// EntityKey packs an entity.ID into the uint64 wire identifier every
// view and patch uses, so callers outside this package never need to
// know the Gen/Index packing scheme.
func EntityKey(id entity.ID) uint64 {
	return uint64(id.Gen)<<32 | uint64(id.Index)
}

func idToUint64(id entity.ID) uint64 {
	return EntityKey(id)
}

// Build assembles the outbound per-tick snapshot from the live simulation
// state.
func Build(tick uint64, agents []*entity.Agent, obstacles []entity.Obstacle, sources []entity.ForceSource) Snapshot {
	snap := Snapshot{Tick: tick}
	for _, a := range agents {
		posX, posY := fixedToFloat(a.Pos)
		prevX, prevY := fixedToFloat(a.PosPrev)
		velX, velY := fixedToFloat(a.Vel)
		snap.Agents = append(snap.Agents, AgentView{
			ID:          idToUint64(a.ID),
			PosX:        posX,
			PosY:        posY,
			PrevX:       prevX,
			PrevY:       prevY,
			VelX:        velX,
			VelY:        velY,
			Health:      a.Health.Current,
			MaxHealth:   a.Health.Max,
			Selected:    a.Selected,
			IsColliding: a.Collision.IsColliding,
		})
	}
	for _, o := range obstacles {
		posX, posY := fixedToFloat(o.Pos)
		snap.Obstacles = append(snap.Obstacles, ObstacleView{
			ID:     idToUint64(o.ID),
			PosX:   posX,
			PosY:   posY,
			Radius: o.Radius.ToFloat64(),
		})
	}
	for _, f := range sources {
		posX, posY := fixedToFloat(f.Pos)
		snap.ForceSources = append(snap.ForceSources, ForceSourceView{
			ID:     idToUint64(f.ID),
			PosX:   posX,
			PosY:   posY,
			Kind:   int(f.Kind),
			Radius: f.Radius.ToFloat64(),
		})
	}
	return snap
}

// BuildCollisionEvents converts resolved collision events to their wire
// form.
func BuildCollisionEvents(events []collision.Event) []CollisionEvent {
	out := make([]CollisionEvent, 0, len(events))
	for _, e := range events {
		out = append(out, CollisionEvent{
			A:       idToUint64(e.A),
			B:       idToUint64(e.B),
			Overlap: e.Overlap.ToFloat64(),
			NormalX: e.Normal.X.ToFloat64(),
			NormalY: e.Normal.Y.ToFloat64(),
		})
	}
	return out
}
