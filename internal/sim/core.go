package sim

import (
	"context"
	"fmt"
	"sort"

	"strategycore/server/internal/activeset"
	"strategycore/server/internal/collision"
	"strategycore/server/internal/command"
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
	"strategycore/server/internal/hgraph"
	"strategycore/server/internal/pathrequest"
	"strategycore/server/internal/snapshot"
	"strategycore/server/internal/spatialhash"
	"strategycore/server/internal/steering"
	"strategycore/server/logging"
	"strategycore/server/logging/lifecycle"
)

// Config carries every determinism-affecting tunable the World's tick
// phases read, mirroring the teacher's habit of threading one config struct
// through the engine core rather than scattering constants.
type Config struct {
	ClusterSize int

	UnitRadius           fixedmath.Fixed
	ObstacleRadius       fixedmath.Fixed
	CollisionQueryRadius fixedmath.Fixed

	Steering  steering.Config
	Collision collision.Config

	SpatialHash         spatialhash.Config
	QueryBufferSize     int
	ActiveSetHot        int
	ActiveSetHysteresis int
	ActiveSetMax        uint32
}

// World is the concrete EngineCore: the live entity tables plus the
// spatial index, hierarchical graph, and active-path set every tick phase
// reads and writes. It plays the role of the teacher's world.World adapter,
// generalized from Player/NPC/GroundItem storage to the single Agent/
// Obstacle/ForceSource shape this domain calls for.
type World struct {
	deps Deps
	cfg  Config

	grid  *gridfield.Grid
	graph *hgraph.Graph
	hash  *spatialhash.Hash
	query *spatialhash.QueryBuffer

	agents       map[entity.ID]*entity.Agent
	obstacles    map[entity.ID]*entity.Obstacle
	forceSources map[entity.ID]*entity.ForceSource

	activePaths *activeset.Set

	nextIndex uint32
	tick      uint64

	patches         []snapshot.Patch
	collisionEvents []collision.Event
}

// NewWorld constructs an empty World over the given flow-field grid and
// hierarchical graph (built or loaded beforehand per §6/§7).
func NewWorld(grid *gridfield.Grid, graph *hgraph.Graph, cfg Config, deps Deps) *World {
	return &World{
		deps:         deps,
		cfg:          cfg,
		grid:         grid,
		graph:        graph,
		hash:         spatialhash.New(cfg.SpatialHash),
		query:        spatialhash.NewQueryBuffer(cfg.QueryBufferSize),
		agents:       make(map[entity.ID]*entity.Agent),
		obstacles:    make(map[entity.ID]*entity.Obstacle),
		forceSources: make(map[entity.ID]*entity.ForceSource),
		activePaths:  activeset.New(cfg.ActiveSetHot, cfg.ActiveSetHysteresis, cfg.ActiveSetMax),
	}
}

// Deps returns the injected dependencies, letting Loop reach the clock and
// metrics sink it needs without the World exposing them more broadly.
func (w *World) Deps() Deps { return w.deps }

func (w *World) allocID() entity.ID {
	w.nextIndex++
	return entity.ID{Index: w.nextIndex}
}

// sortedAgentIDs returns every live agent id in ascending Index order. Every
// tick phase iterates agents in this order instead of Go's randomized map
// order so a given command stream always produces the same tick-by-tick
// result, matching §3's determinism requirement.
func (w *World) sortedAgentIDs() []entity.ID {
	ids := make([]entity.ID, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Index < ids[j].Index })
	return ids
}

func (w *World) forceSourceList() []entity.ForceSource {
	list := make([]entity.ForceSource, 0, len(w.forceSources))
	for _, src := range w.forceSources {
		list = append(list, *src)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID.Index < list[j].ID.Index })
	return list
}

func (w *World) obstacleList() []entity.Obstacle {
	list := make([]entity.Obstacle, 0, len(w.obstacles))
	for _, o := range w.obstacles {
		list = append(list, *o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID.Index < list[j].ID.Index })
	return list
}

func occupiedCellOf(oc spatialhash.OccupiedCell) entity.OccupiedCell {
	return entity.OccupiedCell{
		SizeClass: oc.Class,
		Grid:      oc.Grid,
		Col:       oc.Col,
		Row:       oc.Row,
		VecIdx:    oc.Index,
		Valid:     oc.Valid(),
	}
}

func noopActiveSetMove(int, int) {}

// Apply implements the Input phase (§4.5 step 1): stage every command
// against the entity tables, in the order the command buffer already
// sorted them (player_id, sequence). Move commands are batched into a
// single pathrequest.Handle call per §4.6.
func (w *World) Apply(cmds []command.Command) error {
	var moveRequests []pathrequest.Request

	for _, cmd := range cmds {
		switch cmd.Type {
		case command.TypeMove:
			if cmd.Move == nil {
				continue
			}
			agent, ok := w.agents[cmd.Move.Entity]
			if !ok {
				continue
			}
			moveRequests = append(moveRequests, pathrequest.Request{
				Entity: cmd.Move.Entity,
				Start:  agent.Pos,
				Goal:   cmd.Move.Goal,
			})
		case command.TypeStop:
			if cmd.Stop == nil {
				continue
			}
			agent, ok := w.agents[cmd.Stop.Entity]
			if !ok {
				continue
			}
			agent.Path = entity.Path{}
			agent.Vel = fixedmath.ZeroVec2
			w.activePaths.ExcludeSwapRemove(cmd.Stop.Entity.Index, noopActiveSetMove)
		case command.TypeSpawn:
			if cmd.Spawn == nil {
				continue
			}
			w.spawnAgent(cmd.PlayerID, cmd.Spawn.Position)
		case command.TypeSpawnObstacle:
			if cmd.SpawnObstacle == nil {
				continue
			}
			w.spawnObstacle(cmd.SpawnObstacle.Position, cmd.SpawnObstacle.Radius)
		case command.TypeSpawnForceSource:
			if cmd.SpawnForceSource == nil {
				continue
			}
			w.spawnForceSource(*cmd.SpawnForceSource)
		}
	}

	if len(moveRequests) > 0 {
		pathrequest.Handle(moveRequests, w.grid, w.cfg.ClusterSize, w.agents)
		for _, req := range moveRequests {
			agent, ok := w.agents[req.Entity]
			if !ok || agent.Path.Kind == entity.PathNone {
				continue
			}
			w.activePaths.Include(req.Entity.Index)
		}
	}

	return nil
}

func (w *World) spawnAgent(playerID uint32, pos fixedmath.Fixed2) entity.ID {
	id := w.allocID()
	agent := &entity.Agent{
		ID:  id,
		Pos: pos,
		Collider: entity.Collider{
			Radius: w.cfg.UnitRadius,
			Layer:  entity.LayerUnit,
			Mask:   entity.LayerUnit | entity.LayerObstacle,
		},
		Health: entity.Health{Current: 100, Max: 100},
	}
	occ := w.hash.Insert(spatialhash.EntityID(id.Index), pos, agent.Collider.Radius)
	agent.Cell = occupiedCellOf(occ)
	w.agents[id] = agent

	x, y := pos.ToFloat64()
	actor := logging.EntityRef{ID: fmt.Sprintf("%d:%d", id.Index, id.Gen), Kind: "agent"}
	lifecycle.PlayerJoined(context.Background(), w.deps.Publisher, w.tick, actor, lifecycle.PlayerJoinedPayload{SpawnX: x, SpawnY: y}, nil)
	return id
}

func (w *World) spawnObstacle(pos fixedmath.Fixed2, radius fixedmath.Fixed) entity.ID {
	id := w.allocID()
	w.obstacles[id] = &entity.Obstacle{ID: id, Pos: pos, Radius: radius}
	w.grid.RasterizeObstacle(pos, radius)
	return id
}

func (w *World) spawnForceSource(payload command.SpawnForceSourcePayload) entity.ID {
	id := w.allocID()
	w.forceSources[id] = &entity.ForceSource{
		ID:       id,
		Pos:      payload.Position,
		Kind:     payload.Kind,
		Strength: payload.Strength,
		Vector:   payload.Vector,
		Radius:   payload.Radius,
	}
	return id
}

// Step advances the simulation by one fixed timestep, running the
// Steering, Integration, and Physics phases of §4.5 in order.
func (w *World) Step(dt fixedmath.Fixed) {
	w.tick++
	ids := w.sortedAgentIDs()
	forces := w.forceSourceList()
	obstacles := w.obstacleList()

	w.runSteering(ids, forces)
	w.integrate(ids, dt)
	w.runPhysics(ids, obstacles)
	w.diffPatches(ids)
}

func (w *World) runSteering(ids []entity.ID, forces []entity.ForceSource) {
	for _, id := range ids {
		agent := w.agents[id]
		steering.ApplyFriction(agent, w.cfg.Steering)

		if w.activePaths.Contains(id.Index) {
			steering.FollowPath(agent, w.graph, w.cfg.Steering)
			if agent.Path.Kind == entity.PathNone {
				w.activePaths.ExcludeSwapRemove(id.Index, noopActiveSetMove)
			}
		}

		steering.ApplyForceSources(agent, forces, w.cfg.Steering)

		neighbors := w.neighborAgents(agent, w.cfg.Steering.NeighborRadius, id)
		steering.ApplyBoids(agent, neighbors, w.cfg.Steering)

		if w.activePaths.Contains(id.Index) {
			steering.CheckArrival(agent, neighbors, w.cfg.Steering)
			if agent.Path.Kind == entity.PathNone {
				w.activePaths.ExcludeSwapRemove(id.Index, noopActiveSetMove)
			}
		}
	}
}

func (w *World) neighborAgents(a *entity.Agent, radius fixedmath.Fixed, self entity.ID) []*entity.Agent {
	w.hash.Query(a.Pos, radius, spatialhash.EntityID(self.Index), w.query)
	neighbors := make([]*entity.Agent, 0, len(w.query.Results))
	for _, result := range w.query.Results {
		other, ok := w.agents[entity.ID{Index: uint32(result)}]
		if ok {
			neighbors = append(neighbors, other)
		}
	}
	return neighbors
}

func (w *World) integrate(ids []entity.ID, dt fixedmath.Fixed) {
	for _, id := range ids {
		agent := w.agents[id]
		agent.PosPrev = agent.Pos
		agent.Vel = agent.Vel.Add(agent.Accel.Scale(dt))
		agent.Pos = agent.Pos.Add(agent.Vel.Scale(dt))
		agent.Accel = fixedmath.ZeroVec2
		w.hash.Update(spatialhash.EntityID(id.Index), agent.Pos)
	}
}

func (w *World) runPhysics(ids []entity.ID, obstacles []entity.Obstacle) {
	pairs := w.collisionPairs(ids)
	w.collisionEvents = collision.ResolveUnitUnit(pairs, w.cfg.Collision)

	colliding := make(map[entity.ID]bool, len(w.collisionEvents)*2)
	for _, event := range w.collisionEvents {
		colliding[event.A] = true
		colliding[event.B] = true
	}

	for _, id := range ids {
		agent := w.agents[id]
		collision.ResolveUnitObstacle(agent, obstacles, w.cfg.Collision)
		collision.ClampToBounds(agent, w.cfg.Collision)
		agent.Collision.IsColliding = colliding[id]
		w.hash.Update(spatialhash.EntityID(id.Index), agent.Pos)
	}
}

func (w *World) collisionPairs(ids []entity.ID) [][2]*entity.Agent {
	seen := make(map[[2]entity.ID]struct{})
	var pairs [][2]*entity.Agent
	for _, id := range ids {
		agent := w.agents[id]
		neighbors := w.neighborAgents(agent, w.cfg.CollisionQueryRadius, id)
		for _, other := range neighbors {
			key := pairKey(id, other.ID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, [2]*entity.Agent{agent, other})
		}
	}
	return pairs
}

func pairKey(a, b entity.ID) [2]entity.ID {
	if a.Index < b.Index {
		return [2]entity.ID{a, b}
	}
	return [2]entity.ID{b, a}
}

func (w *World) diffPatches(ids []entity.ID) {
	for _, id := range ids {
		agent := w.agents[id]
		if patch, moved := snapshot.DiffAgentPos(id, agent.PosPrev, agent.Pos); moved {
			w.patches = append(w.patches, patch)
		}
	}
}

// Snapshot assembles the outbound per-tick state from the live entity
// tables.
func (w *World) Snapshot() snapshot.Snapshot {
	ids := w.sortedAgentIDs()
	agents := make([]*entity.Agent, 0, len(ids))
	for _, id := range ids {
		agents = append(agents, w.agents[id])
	}
	return snapshot.Build(w.tick, agents, w.obstacleList(), w.forceSourceList())
}

// DrainPatches returns every incremental patch accumulated since the last
// call and clears the buffer.
func (w *World) DrainPatches() []snapshot.Patch {
	patches := w.patches
	w.patches = nil
	return patches
}

// CollisionEvents returns the collision pairs detected on the most recent
// Step, rendered into the wire CollisionEvent shape.
func (w *World) CollisionEvents() []snapshot.CollisionEvent {
	return snapshot.BuildCollisionEvents(w.collisionEvents)
}

var _ interface {
	Apply([]command.Command) error
	Step(fixedmath.Fixed)
	Snapshot() snapshot.Snapshot
	DrainPatches() []snapshot.Patch
} = (*World)(nil)
