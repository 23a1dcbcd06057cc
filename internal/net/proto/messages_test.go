package proto

import (
	"encoding/json"
	"testing"

	"strategycore/server/internal/command"
	"strategycore/server/internal/snapshot"
)

func TestDecodeClientMessageRoundTrips(t *testing.T) {
	payload := []byte(`{"seq":7,"type":"Move","entity":3,"goalX":1.5,"goalY":-2}`)

	msg, err := DecodeClientMessage(payload)
	if err != nil {
		t.Fatalf("decode client message: %v", err)
	}
	if msg.Seq != 7 || msg.Type != "Move" || msg.Entity != 3 {
		t.Fatalf("unexpected decode: %+v", msg)
	}
}

func TestToCommandMove(t *testing.T) {
	cmd, err := ToCommand(ClientMessage{Type: string(command.TypeMove), Entity: 5, GoalX: 10, GoalY: 20})
	if err != nil {
		t.Fatalf("ToCommand returned error: %v", err)
	}
	if cmd.Type != command.TypeMove || cmd.Move == nil {
		t.Fatalf("expected move command, got %+v", cmd)
	}
	if cmd.Move.Entity.Index != 5 {
		t.Fatalf("expected entity index 5, got %d", cmd.Move.Entity.Index)
	}
}

func TestToCommandStop(t *testing.T) {
	cmd, err := ToCommand(ClientMessage{Type: string(command.TypeStop), Entity: 9})
	if err != nil {
		t.Fatalf("ToCommand returned error: %v", err)
	}
	if cmd.Type != command.TypeStop || cmd.Stop == nil || cmd.Stop.Entity.Index != 9 {
		t.Fatalf("unexpected stop command: %+v", cmd)
	}
}

func TestToCommandRejectsUnknownType(t *testing.T) {
	if _, err := ToCommand(ClientMessage{Type: "Nonsense"}); err == nil {
		t.Fatalf("expected an error for an unrecognized command type")
	}
}

func TestEncodeStateIncludesSnapshot(t *testing.T) {
	data, err := EncodeState(snapshot.Snapshot{Tick: 12})
	if err != nil {
		t.Fatalf("EncodeState returned error: %v", err)
	}
	var decoded StateMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal encoded state: %v", err)
	}
	if decoded.Ver != Version || decoded.Type != TypeState || decoded.Snapshot.Tick != 12 {
		t.Fatalf("unexpected state envelope: %+v", decoded)
	}
}

func TestEncodeCommandRejectCarriesReason(t *testing.T) {
	data, err := EncodeCommandReject(3, command.RejectBufferFull)
	if err != nil {
		t.Fatalf("EncodeCommandReject returned error: %v", err)
	}
	var decoded CommandRejectMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal encoded reject: %v", err)
	}
	if decoded.Seq != 3 || decoded.Reason != string(command.RejectBufferFull) {
		t.Fatalf("unexpected reject envelope: %+v", decoded)
	}
}
