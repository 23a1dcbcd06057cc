package intake

import (
	"testing"

	"strategycore/server/internal/command"
	"strategycore/server/internal/net/proto"
)

type fakeEngine struct {
	ok       bool
	reason   command.RejectReason
	enqueued []command.Command
}

func (f *fakeEngine) Enqueue(cmd command.Command) (bool, command.RejectReason) {
	f.enqueued = append(f.enqueued, cmd)
	return f.ok, f.reason
}

func TestStageAcceptsMoveAndStampsActor(t *testing.T) {
	engine := &fakeEngine{ok: true}
	msg := proto.ClientMessage{Seq: 4, Type: string(command.TypeMove), Entity: 2, GoalX: 1, GoalY: 1}

	cmd, ok, reason := Stage(engine, 7, msg)
	if !ok || reason != command.RejectNone {
		t.Fatalf("expected command to be accepted, got ok=%v reason=%v", ok, reason)
	}
	if cmd.PlayerID != 7 || cmd.Sequence != 4 {
		t.Fatalf("expected stamped player/sequence, got %+v", cmd)
	}
	if len(engine.enqueued) != 1 {
		t.Fatalf("expected engine to record one command, got %d", len(engine.enqueued))
	}
}

func TestStageRejectsUnknownCommandType(t *testing.T) {
	engine := &fakeEngine{ok: true}
	msg := proto.ClientMessage{Type: "Nonsense"}

	_, ok, reason := Stage(engine, 1, msg)
	if ok || reason != command.RejectInvalid {
		t.Fatalf("expected invalid-command rejection, got ok=%v reason=%v", ok, reason)
	}
	if len(engine.enqueued) != 0 {
		t.Fatalf("expected nothing staged for an invalid frame, got %d", len(engine.enqueued))
	}
}

func TestStagePropagatesEngineRejection(t *testing.T) {
	engine := &fakeEngine{ok: false, reason: command.RejectBufferFull}
	msg := proto.ClientMessage{Type: string(command.TypeStop), Entity: 1}

	_, ok, reason := Stage(engine, 1, msg)
	if ok || reason != command.RejectBufferFull {
		t.Fatalf("expected buffer_full rejection, got ok=%v reason=%v", ok, reason)
	}
}

func TestStageHandlesNilEngine(t *testing.T) {
	msg := proto.ClientMessage{Type: string(command.TypeStop), Entity: 1}

	_, ok, reason := Stage(nil, 1, msg)
	if ok || reason != command.RejectBufferFull {
		t.Fatalf("expected buffer_full rejection for a nil engine, got ok=%v reason=%v", ok, reason)
	}
}
