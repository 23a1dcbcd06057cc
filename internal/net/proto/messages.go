// Package proto implements the wire codec for the websocket command
// channel (§6 "Commands (in)" / "Snapshot (out, per tick)"): decode a
// client's JSON command frame into an internal/command.Command, and
// encode outbound state/patch/ack frames. Grounded on the teacher's
// internal/net/proto/messages.go (a flat ClientMessage struct decoded by
// type switch, one envelope struct per outbound message, a shared Version
// constant stamped on every frame) generalized from the teacher's
// move/path/action/heartbeat/console vocabulary to the five commands this
// domain accepts.
package proto

import (
	"encoding/json"
	"fmt"

	"strategycore/server/internal/command"
	"strategycore/server/internal/entity"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/snapshot"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Outbound message type identifiers.
const (
	TypeState         = "state"
	TypePatch         = "patch"
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"
)

// ClientMessage is one inbound command frame. Every field is shared
// across the five command variants; a given Type only reads the fields
// that variant needs, exactly the teacher's flat-struct-plus-type-switch
// decoding shape.
type ClientMessage struct {
	Seq      uint64  `json:"seq"`
	Type     string  `json:"type"`
	Entity   uint32  `json:"entity"`
	GoalX    float64 `json:"goalX"`
	GoalY    float64 `json:"goalY"`
	PosX     float64 `json:"posX"`
	PosY     float64 `json:"posY"`
	Radius   float64 `json:"radius"`
	Kind     int     `json:"kind"`
	VecX     float64 `json:"vecX"`
	VecY     float64 `json:"vecY"`
	Strength float64 `json:"strength"`
}

// DecodeClientMessage parses one inbound websocket frame.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

// ToCommand converts a decoded client frame into the domain command it
// names. The returned command carries no PlayerID or Sequence yet; the
// caller (internal/net/intake) stamps those from the connection it
// arrived on.
func ToCommand(msg ClientMessage) (command.Command, error) {
	switch command.Type(msg.Type) {
	case command.TypeMove:
		return command.Command{
			Type: command.TypeMove,
			Move: &command.MovePayload{
				Entity: entity.ID{Index: msg.Entity},
				Goal:   fixedmath.Vec2FromFloat64(msg.GoalX, msg.GoalY),
			},
		}, nil
	case command.TypeStop:
		return command.Command{
			Type: command.TypeStop,
			Stop: &command.StopPayload{Entity: entity.ID{Index: msg.Entity}},
		}, nil
	case command.TypeSpawn:
		return command.Command{
			Type: command.TypeSpawn,
			Spawn: &command.SpawnPayload{
				Position: fixedmath.Vec2FromFloat64(msg.PosX, msg.PosY),
			},
		}, nil
	case command.TypeSpawnObstacle:
		return command.Command{
			Type: command.TypeSpawnObstacle,
			SpawnObstacle: &command.SpawnObstaclePayload{
				Position: fixedmath.Vec2FromFloat64(msg.PosX, msg.PosY),
				Radius:   fixedmath.FromFloat64(msg.Radius),
			},
		}, nil
	case command.TypeSpawnForceSource:
		return command.Command{
			Type: command.TypeSpawnForceSource,
			SpawnForceSource: &command.SpawnForceSourcePayload{
				Position: fixedmath.Vec2FromFloat64(msg.PosX, msg.PosY),
				Kind:     entity.ForceKind(msg.Kind),
				Strength: fixedmath.FromFloat64(msg.Strength),
				Vector:   fixedmath.Vec2FromFloat64(msg.VecX, msg.VecY),
				Radius:   fixedmath.FromFloat64(msg.Radius),
			},
		}, nil
	default:
		return command.Command{}, fmt.Errorf("proto: unrecognized command type %q", msg.Type)
	}
}

// StateMessage is the outbound full-snapshot envelope.
type StateMessage struct {
	Ver      int               `json:"ver"`
	Type     string            `json:"type"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// EncodeState renders a full-snapshot frame.
func EncodeState(snap snapshot.Snapshot) ([]byte, error) {
	return json.Marshal(StateMessage{Ver: Version, Type: TypeState, Snapshot: snap})
}

// PatchMessage is the outbound incremental-diff envelope.
type PatchMessage struct {
	Ver     int              `json:"ver"`
	Type    string           `json:"type"`
	Tick    uint64           `json:"tick"`
	Patches []snapshot.Patch `json:"patches"`
}

// EncodePatches renders an incremental-diff frame.
func EncodePatches(tick uint64, patches []snapshot.Patch) ([]byte, error) {
	return json.Marshal(PatchMessage{Ver: Version, Type: TypePatch, Tick: tick, Patches: patches})
}

// CommandAckMessage acknowledges a staged command.
type CommandAckMessage struct {
	Ver int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

// EncodeCommandAck renders a command-acknowledgement frame.
func EncodeCommandAck(seq uint64) ([]byte, error) {
	return json.Marshal(CommandAckMessage{Ver: Version, Type: TypeCommandAck, Seq: seq})
}

// CommandRejectMessage reports a staged command's rejection.
type CommandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
}

// EncodeCommandReject renders a command-rejection frame.
func EncodeCommandReject(seq uint64, reason command.RejectReason) ([]byte, error) {
	return json.Marshal(CommandRejectMessage{Ver: Version, Type: TypeCommandReject, Seq: seq, Reason: string(reason)})
}
