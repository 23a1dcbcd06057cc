package sim

import (
	"context"
	"sync"
	"time"

	"strategycore/server/internal/command"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/snapshot"
	"strategycore/server/logging"
	"strategycore/server/logging/simulation"
)

// EngineCore is the concrete simulation implementation a Loop drives. World
// is the only implementation in this repository; the interface stays
// narrow so tests can substitute a stub core.
type EngineCore interface {
	Deps() Deps
	Apply(cmds []command.Command) error
	Step(dt fixedmath.Fixed)
	Snapshot() snapshot.Snapshot
	DrainPatches() []snapshot.Patch
	CollisionEvents() []snapshot.CollisionEvent
}

// LoopConfig tunes the command buffer and tick loop orchestration, carried
// over from the teacher's own LoopConfig field-for-field.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	CommandCapacity int
	PerActorLimit   int
	WarningStep     int
}

// LoopTickContext describes one tick's timing inputs.
type LoopTickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult reports everything observers need after one Advance call.
type LoopStepResult struct {
	Tick            uint64
	Now             time.Time
	Delta           float64
	Duration        time.Duration
	Budget          time.Duration
	ClampedDelta    bool
	MaxDelta        float64
	Snapshot        snapshot.Snapshot
	Patches         []snapshot.Patch
	CollisionEvents []snapshot.CollisionEvent
	Commands        []command.Command
}

// LoopHooks exposes the orchestration callbacks a caller can observe
// without reaching into Loop internals, mirroring the teacher's
// Prepare/AfterStep/OnQueueWarning/OnCommandDrop quartet.
type LoopHooks struct {
	Prepare        func(LoopTickContext)
	AfterStep      func(LoopStepResult)
	OnQueueWarning func(length int)
	OnCommandDrop  func(reason command.RejectReason, cmd command.Command)
}

// Loop coordinates command ingestion and the fixed-timestep simulation
// runner, exactly the teacher's Loop/CommandBuffer pairing adapted to the
// five-command, Fixed-point domain.
type Loop struct {
	core    EngineCore
	buffer  *command.Buffer
	hooks   LoopHooks
	config  LoopConfig
	deps    Deps

	queueMu       sync.Mutex
	perActorCount map[uint32]int
	dropCounts    map[uint32]uint64

	tickBudgetStreak uint64
}

// NewLoop wraps the provided engine core with a ring-buffer queue and loop.
func NewLoop(core EngineCore, cfg LoopConfig, hooks LoopHooks) *Loop {
	if core == nil {
		return nil
	}
	deps := core.Deps()
	return &Loop{
		core:          core,
		buffer:        command.NewBuffer(cfg.CommandCapacity, deps.Metrics),
		hooks:         hooks,
		config:        cfg,
		deps:          deps,
		perActorCount: make(map[uint32]int),
		dropCounts:    make(map[uint32]uint64),
	}
}

// Deps returns the injected dependencies for the underlying engine.
func (l *Loop) Deps() Deps {
	if l == nil {
		return Deps{}
	}
	return l.deps
}

// Snapshot delegates to the underlying engine.
func (l *Loop) Snapshot() snapshot.Snapshot {
	if l == nil {
		return snapshot.Snapshot{}
	}
	return l.core.Snapshot()
}

// DrainPatches delegates to the underlying engine.
func (l *Loop) DrainPatches() []snapshot.Patch {
	if l == nil {
		return nil
	}
	return l.core.DrainPatches()
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// DrainCommands clears the staged command queue without advancing the
// engine.
func (l *Loop) DrainCommands() []command.Command {
	if l == nil {
		return nil
	}
	return l.drainCommands()
}

// Enqueue stages a command, enforcing per-player throttling and capacity
// limits, exactly the teacher's backpressure policy (per-actor queue limit,
// then overall buffer capacity).
func (l *Loop) Enqueue(cmd command.Command) (bool, command.RejectReason) {
	if l == nil {
		return false, command.RejectBufferFull
	}
	var reason command.RejectReason
	var dropCount uint64

	l.queueMu.Lock()
	if l.config.PerActorLimit > 0 {
		count := l.perActorCount[cmd.PlayerID]
		if count >= l.config.PerActorLimit {
			reason = command.RejectBufferFull
			dropCount = l.incrementDropLocked(cmd.PlayerID)
		} else {
			l.perActorCount[cmd.PlayerID] = count + 1
		}
	}
	if reason == command.RejectNone {
		if pushReason := l.buffer.Push(cmd); pushReason != command.RejectNone {
			reason = pushReason
			dropCount = l.incrementDropLocked(cmd.PlayerID)
		} else if l.config.WarningStep > 0 {
			length := l.buffer.Len()
			if length >= l.config.WarningStep && length%l.config.WarningStep == 0 {
				l.queueMu.Unlock()
				l.warnQueue(length)
				return true, command.RejectNone
			}
		}
	}
	l.queueMu.Unlock()

	if reason != command.RejectNone {
		l.reportDrop(reason, cmd, dropCount)
		return false, reason
	}
	return true, command.RejectNone
}

// Advance executes a single simulation step using the staged commands.
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	commands := l.drainCommands()
	if l.hooks.Prepare != nil {
		l.hooks.Prepare(ctx)
	}
	_ = l.core.Apply(commands)
	l.core.Step(fixedmath.FromFloat64(ctx.Delta))
	return LoopStepResult{
		Tick:            ctx.Tick,
		Now:             ctx.Now,
		Delta:           ctx.Delta,
		Snapshot:        l.core.Snapshot(),
		Patches:         l.core.DrainPatches(),
		CollisionEvents: l.core.CollisionEvents(),
		Commands:        commands,
	}
}

// Run drives the fixed-timestep loop until the stop channel closes,
// logging a tick-budget overrun via logging/simulation whenever a tick's
// wall-clock duration exceeds its budget (the teacher's own tick-budget
// telemetry, per SPEC_FULL.md's supplemented-features section).
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	if tickRate <= 0 {
		tickRate = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	clock := l.deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	last := clock.Now()
	budgetSeconds := 1.0 / float64(tickRate)
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}
	budgetDuration := time.Second / time.Duration(tickRate)

	var tick uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now
			tick++

			start := clock.Now()
			result := l.Advance(LoopTickContext{Tick: tick, Now: now, Delta: dt})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budgetDuration
			result.ClampedDelta = clamped
			result.MaxDelta = maxDt

			l.reportTickBudget(tick, result.Duration, budgetDuration)

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) drainCommands() []command.Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		l.perActorCount = make(map[uint32]int)
	}
	return commands
}

func (l *Loop) incrementDropLocked(playerID uint32) uint64 {
	count := l.dropCounts[playerID] + 1
	l.dropCounts[playerID] = count
	return count
}

func (l *Loop) warnQueue(length int) {
	if l.hooks.OnQueueWarning != nil {
		l.hooks.OnQueueWarning(length)
	}
}

func (l *Loop) reportDrop(reason command.RejectReason, cmd command.Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if count > 0 && count&(count-1) == 0 && l.deps.Logger != nil {
		l.deps.Logger.Printf(
			"[backpressure] dropping command player=%d type=%s count=%d limit=%d",
			cmd.PlayerID, cmd.Type, count, l.config.PerActorLimit,
		)
	}
}

func (l *Loop) reportTickBudget(tick uint64, duration, budget time.Duration) {
	if duration <= budget {
		l.tickBudgetStreak = 0
		return
	}
	l.tickBudgetStreak++
	ratio := float64(duration) / float64(budget)
	simulation.TickBudgetOverrun(context.Background(), l.publisher(), tick, simulation.TickBudgetOverrunPayload{
		DurationMillis: duration.Milliseconds(),
		BudgetMillis:   budget.Milliseconds(),
		Ratio:          ratio,
		Streak:         l.tickBudgetStreak,
	}, nil)
}

func (l *Loop) publisher() logging.Publisher {
	if l.deps.Publisher != nil {
		return l.deps.Publisher
	}
	return logging.NopPublisher{}
}
