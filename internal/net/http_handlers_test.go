package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
	"strategycore/server/internal/hgraph"
	"strategycore/server/internal/net/ws"
	"strategycore/server/internal/sim"
)

func newTestLoop(t *testing.T) *sim.Loop {
	t.Helper()
	grid := gridfield.New(hgraph.ClusterSize, hgraph.ClusterSize, fixedmath.One, fixedmath.ZeroVec2)
	graph := hgraph.Build(grid, hgraph.DefaultTortuosityThreshold)
	world := sim.NewWorld(grid, graph, sim.Config{ClusterSize: hgraph.ClusterSize}, sim.Deps{})
	loop := sim.NewLoop(world, sim.LoopConfig{CommandCapacity: 16}, sim.LoopHooks{})
	if loop == nil {
		t.Fatal("expected NewLoop to return a non-nil loop")
	}
	return loop
}

func TestHealthReportsOK(t *testing.T) {
	loop := newTestLoop(t)
	handler := NewHTTPHandler(loop, ws.NewHub(), HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if resp.Body.String() != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", resp.Body.String())
	}
}

func TestDiagnosticsReportsConnectionCountAndTick(t *testing.T) {
	loop := newTestLoop(t)
	hub := ws.NewHub()
	handler := NewHTTPHandler(loop, hub, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", payload["status"])
	}
	if _, ok := payload["tick"].(float64); !ok {
		t.Fatalf("expected numeric tick field, got %v", payload["tick"])
	}
}

func TestStateReturnsSnapshotJSON(t *testing.T) {
	loop := newTestLoop(t)
	handler := NewHTTPHandler(loop, ws.NewHub(), HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode state payload: %v", err)
	}
	if _, ok := payload["tick"]; !ok {
		t.Fatalf("expected tick field in state payload, got %v", payload)
	}
}
