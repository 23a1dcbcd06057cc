package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"

	"strategycore/server/internal/command"
)

type fakeEngine struct {
	ok     bool
	reason command.RejectReason
}

func (f *fakeEngine) Enqueue(cmd command.Command) (bool, command.RejectReason) {
	return f.ok, f.reason
}

func TestHandleAcknowledgesAcceptedCommand(t *testing.T) {
	engine := &fakeEngine{ok: true}
	hub := NewHub()
	handler := NewHandler(engine, hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + srv.URL[len("http"):]
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.WriteJSON(map[string]any{"seq": 1, "type": string(command.TypeStop), "entity": 1}); err != nil {
		t.Fatalf("failed to write command frame: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read ack: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode ack frame: %v", err)
	}
	if frame["type"] != "commandAck" {
		t.Fatalf("expected commandAck, got %v", frame["type"])
	}
	if hub.Count() != 1 {
		t.Fatalf("expected one registered session, got %d", hub.Count())
	}
}

func TestHandleRejectsEngineRefusal(t *testing.T) {
	engine := &fakeEngine{ok: false, reason: command.RejectBufferFull}
	hub := NewHub()
	handler := NewHandler(engine, hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + srv.URL[len("http"):]
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.WriteJSON(map[string]any{"seq": 1, "type": string(command.TypeStop), "entity": 1}); err != nil {
		t.Fatalf("failed to write command frame: %v", err)
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read rejection: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode reject frame: %v", err)
	}
	if frame["type"] != "commandReject" {
		t.Fatalf("expected commandReject, got %v", frame["type"])
	}
	if frame["reason"] != string(command.RejectBufferFull) {
		t.Fatalf("expected reason %q, got %v", command.RejectBufferFull, frame["reason"])
	}
}
