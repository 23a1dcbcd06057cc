package sim

import (
	"log"
	"math/rand"

	"strategycore/server/internal/telemetry"
	"strategycore/server/logging"
)

// Deps carries shared infrastructure dependencies required by the simulation
// engine: a plain *log.Logger for operational messages, the telemetry
// metrics sink the command buffer reports occupancy/overflow through, a
// Clock so the tick loop is testable without wall-clock sleeps, an RNG for
// anything that needs deterministic randomness, and a logging.Publisher for
// the structured lifecycle/network/simulation events described in
// SPEC_FULL.md's supplemented-features section.
type Deps struct {
	Logger    *log.Logger
	Metrics   telemetry.Metrics
	Clock     logging.Clock
	RNG       *rand.Rand
	Publisher logging.Publisher
}
