// Package intake stages decoded client frames onto the simulation's
// command buffer, the Input-phase front door described by §6 "Commands
// (in)". Grounded on the teacher's internal/net/intake/command.go
// (decode-then-enqueue against a narrow Engine interface, propagating the
// engine's own rejection reason back to the caller) adapted from the
// teacher's string-actor-id model to this domain's five commands keyed by
// entity.ID/player index.
package intake

import (
	"strategycore/server/internal/command"
	"strategycore/server/internal/net/proto"
)

// Engine is the staging surface intake needs: enqueue one parsed command
// onto the tick loop's command buffer. *sim.Loop satisfies this.
type Engine interface {
	Enqueue(cmd command.Command) (bool, command.RejectReason)
}

// Stage decodes one client frame, attaches the originating player id, and
// stages it on engine's command buffer.
func Stage(engine Engine, playerID uint32, msg proto.ClientMessage) (command.Command, bool, command.RejectReason) {
	cmd, err := proto.ToCommand(msg)
	if err != nil {
		return command.Command{}, false, command.RejectInvalid
	}
	cmd.PlayerID = playerID
	cmd.Sequence = msg.Seq

	if engine == nil {
		return cmd, false, command.RejectBufferFull
	}
	ok, reason := engine.Enqueue(cmd)
	return cmd, ok, reason
}
