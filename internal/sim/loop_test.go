package sim

import (
	"testing"

	"strategycore/server/internal/command"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/snapshot"
)

// stubCore is a minimal EngineCore used to test Loop's queueing and
// Advance orchestration in isolation from World's systems.
type stubCore struct {
	applied [][]command.Command
	steps   []fixedmath.Fixed
	tick    uint64
}

func (s *stubCore) Deps() Deps { return Deps{} }

func (s *stubCore) Apply(cmds []command.Command) error {
	s.applied = append(s.applied, cmds)
	return nil
}

func (s *stubCore) Step(dt fixedmath.Fixed) {
	s.tick++
	s.steps = append(s.steps, dt)
}

func (s *stubCore) Snapshot() snapshot.Snapshot                { return snapshot.Snapshot{Tick: s.tick} }
func (s *stubCore) DrainPatches() []snapshot.Patch             { return nil }
func (s *stubCore) CollisionEvents() []snapshot.CollisionEvent { return nil }

var _ EngineCore = (*stubCore)(nil)

func TestEnqueueRespectsPerActorLimit(t *testing.T) {
	core := &stubCore{}
	loop := NewLoop(core, LoopConfig{CommandCapacity: 16, PerActorLimit: 2}, LoopHooks{})

	ok, reason := loop.Enqueue(command.Command{PlayerID: 1, Type: command.TypeStop})
	if !ok || reason != command.RejectNone {
		t.Fatalf("expected first enqueue to succeed, got ok=%v reason=%v", ok, reason)
	}
	ok, reason = loop.Enqueue(command.Command{PlayerID: 1, Type: command.TypeStop})
	if !ok || reason != command.RejectNone {
		t.Fatalf("expected second enqueue to succeed, got ok=%v reason=%v", ok, reason)
	}
	ok, reason = loop.Enqueue(command.Command{PlayerID: 1, Type: command.TypeStop})
	if ok || reason != command.RejectBufferFull {
		t.Fatalf("expected third enqueue for the same actor to be rejected, got ok=%v reason=%v", ok, reason)
	}

	// A different actor still has headroom.
	ok, _ = loop.Enqueue(command.Command{PlayerID: 2, Type: command.TypeStop})
	if !ok {
		t.Fatal("expected a different actor's command to be accepted independently")
	}
}

func TestEnqueueRejectsWhenBufferFull(t *testing.T) {
	core := &stubCore{}
	loop := NewLoop(core, LoopConfig{CommandCapacity: 1, PerActorLimit: 0}, LoopHooks{})

	ok, reason := loop.Enqueue(command.Command{PlayerID: 1})
	if !ok || reason != command.RejectNone {
		t.Fatalf("expected first enqueue to succeed, got ok=%v reason=%v", ok, reason)
	}
	ok, reason = loop.Enqueue(command.Command{PlayerID: 2})
	if ok || reason != command.RejectBufferFull {
		t.Fatalf("expected enqueue past capacity to be rejected, got ok=%v reason=%v", ok, reason)
	}
}

func TestAdvanceDrainsCommandsAndSteps(t *testing.T) {
	core := &stubCore{}
	loop := NewLoop(core, LoopConfig{CommandCapacity: 8, PerActorLimit: 0}, LoopHooks{})

	loop.Enqueue(command.Command{PlayerID: 1, Type: command.TypeStop})
	loop.Enqueue(command.Command{PlayerID: 2, Type: command.TypeMove})

	result := loop.Advance(LoopTickContext{Tick: 1, Delta: 1.0 / 30.0})
	if len(result.Commands) != 2 {
		t.Fatalf("expected 2 commands applied, got %d", len(result.Commands))
	}
	if loop.Pending() != 0 {
		t.Fatal("expected the queue to be drained after Advance")
	}
	if len(core.steps) != 1 {
		t.Fatalf("expected exactly one Step call, got %d", len(core.steps))
	}
}

func TestAdvanceInvokesHooks(t *testing.T) {
	core := &stubCore{}
	var prepared, stepped bool
	hooks := LoopHooks{
		Prepare:   func(LoopTickContext) { prepared = true },
		AfterStep: func(LoopStepResult) { stepped = true },
	}
	loop := NewLoop(core, LoopConfig{CommandCapacity: 4}, hooks)
	loop.Advance(LoopTickContext{Tick: 1, Delta: 1.0 / 30.0})
	if !prepared {
		t.Fatal("expected Prepare hook to fire during Advance")
	}
	// AfterStep is invoked by Run, not Advance directly; call it out here
	// to document the split without relying on wall-clock ticking.
	loop.hooks.AfterStep(LoopStepResult{})
	if !stepped {
		t.Fatal("expected AfterStep hook to be callable with a LoopStepResult")
	}
}

func TestCommandDropHookFiresOnReject(t *testing.T) {
	core := &stubCore{}
	var dropped command.RejectReason
	hooks := LoopHooks{
		OnCommandDrop: func(reason command.RejectReason, cmd command.Command) { dropped = reason },
	}
	loop := NewLoop(core, LoopConfig{CommandCapacity: 1}, hooks)
	loop.Enqueue(command.Command{PlayerID: 1})
	loop.Enqueue(command.Command{PlayerID: 1})
	if dropped != command.RejectBufferFull {
		t.Fatalf("expected OnCommandDrop to report buffer_full, got %q", dropped)
	}
}
