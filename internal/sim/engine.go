package sim

import (
	"strategycore/server/internal/command"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/snapshot"
)

// Engine defines the minimal surface area exposed to non-simulation callers:
// stage a tick's commands, advance the simulation by one fixed timestep, and
// read back the outbound state. It replaces the teacher's wider Engine
// interface (effect-event draining, keyframe persistence) now that the
// itemization/effects system those concerns served has no place in this
// domain — see DESIGN.md for the dropped-module justification.
type Engine interface {
	Apply(cmds []command.Command) error
	Step(dt fixedmath.Fixed)
	Snapshot() snapshot.Snapshot
	DrainPatches() []snapshot.Patch
}
