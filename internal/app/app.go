// Package app wires the simulation core to its external surface: the
// logging router, the fixed-timestep Loop, the websocket command channel,
// and the HTTP server. Grounded on the teacher's internal/app/app.go
// (construct logging sinks, build the Hub, start its goroutine, hand the
// Hub to an HTTP handler, serve), adapted from the teacher's Hub/NPC/
// keyframe world to this domain's grid/graph-backed World and Loop.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"

	"strategycore/server/internal/collision"
	"strategycore/server/internal/configschema"
	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
	"strategycore/server/internal/hgraph"
	stratnet "strategycore/server/internal/net"
	"strategycore/server/internal/net/ws"
	"strategycore/server/internal/observability"
	"strategycore/server/internal/sim"
	"strategycore/server/internal/spatialhash"
	"strategycore/server/internal/steering"
	"strategycore/server/internal/telemetry"
	"strategycore/server/logging"
	loggingSinks "strategycore/server/logging/sinks"
)

// Config carries Run's dependencies. Logger defaults to a stdlib logger
// wrapped for telemetry when left nil, matching the teacher's habit of
// accepting an optional logger at the entry point rather than a global.
type Config struct {
	Logger      telemetry.Logger
	Addr        string
	ClientDir   string
	ConfigPath  string
	EnablePprof bool
}

// Run starts the logging router, the simulation loop, and the HTTP server,
// and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	stdLogger := log.Default()
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(stdLogger)
	}

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsoleSink(os.Stdout, logging.ConsoleConfig{}),
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, stdLogger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			cfg.Logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	initialCfg, err := loadInitialConfig(cfg.ConfigPath)
	if err != nil {
		cfg.Logger.Printf("failed to load initial config, using defaults: %v", err)
		initialCfg = defaultInitialConfig()
	}

	grid := gridfield.New(mapCells(initialCfg.MapWidth), mapCells(initialCfg.MapHeight), fixedmath.One, fixedmath.ZeroVec2)
	graph := hgraph.Build(grid, hgraph.DefaultTortuosityThreshold)

	deps := sim.Deps{
		Logger:    stdLogger,
		Metrics:   telemetry.WrapMetrics(router.Metrics()),
		Clock:     logging.SystemClock{},
		RNG:       rand.New(rand.NewSource(1)),
		Publisher: router,
	}

	world := sim.NewWorld(grid, graph, buildSimConfig(initialCfg), deps)
	loop := sim.NewLoop(world, sim.LoopConfig{
		TickRate:        int(initialCfg.TickRate),
		CatchupMaxTicks: 5,
		CommandCapacity: 4096,
		PerActorLimit:   64,
		WarningStep:     512,
	}, sim.LoopHooks{
		OnQueueWarning: func(length int) {
			cfg.Logger.Printf("command queue depth warning: %d", length)
		},
	})

	stop := make(chan struct{})
	go loop.Run(stop)
	defer close(stop)

	hub := ws.NewHub()
	clientDir := cfg.ClientDir
	if clientDir == "" {
		clientDir = filepath.Clean(filepath.Join("..", "client"))
	}
	handler := stratnet.NewHTTPHandler(loop, hub, stratnet.HTTPHandlerConfig{
		ClientDir:     clientDir,
		Logger:        cfg.Logger,
		Observability: observabilityConfig(cfg.EnablePprof),
	})

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}
	cfg.Logger.Printf("server listening on %s", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// defaultInitialConfig mirrors the determinism-affecting tunables the
// teacher's own world.DefaultWorldConfig hardcodes, expressed against
// configschema.InitialConfig so the same document the schema describes is
// the one the server actually boots from.
func defaultInitialConfig() configschema.InitialConfig {
	cfg := configschema.InitialConfig{
		TickRate:   30,
		UnitSpeed:  5,
		MapWidth:   float64(hgraph.ClusterSize * 4),
		MapHeight:  float64(hgraph.ClusterSize * 4),
		UnitRadius: 0.5,

		RepulsionDecay:      0.5,
		Friction:            0.9,
		MinVelocity:         0.01,
		MaxSpeed:            5,
		MaxForce:            10,
		ArrivalThreshold:    0.25,
		CheckDistMultiplier: 3,

		NeighborRadius:         3,
		SeparationRadius:       1,
		BoidsMaxNeighbors:      8,
		SeparationWeight:       1.5,
		AlignmentWeight:        1.0,
		CohesionWeight:         1.0,
		SeparationForceCeiling: 10,

		PathfindingBuildBatchSize: 8,

		SpatialHashEntityRadii:            []float32{0.5, 2},
		SpatialHashRadiusToCellRatio:      4,
		SpatialHashMaxEntityCount:         4096,
		SpatialHashArenaOvercapacityRatio: 1.5,
	}
	return cfg
}

// loadInitialConfig reads path as a JSON-encoded configschema.InitialConfig
// document, or falls back to defaultInitialConfig when path is empty. A
// document that cannot be read or parsed is returned as an error; Run logs
// that error and boots from defaultInitialConfig instead.
func loadInitialConfig(path string) (configschema.InitialConfig, error) {
	if path == "" {
		return defaultInitialConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return configschema.InitialConfig{}, err
	}
	cfg := defaultInitialConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return configschema.InitialConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// buildSimConfig converts the float64 authoring document into the
// Fixed-point tunables the tick phases actually read, the same
// responsibility the teacher's world bootstrap gives its own config
// adapter.
func buildSimConfig(ic configschema.InitialConfig) sim.Config {
	radii := make([]fixedmath.Fixed, len(ic.SpatialHashEntityRadii))
	for i, r := range ic.SpatialHashEntityRadii {
		radii[i] = fixedmath.FromFloat64(float64(r))
	}

	return sim.Config{
		ClusterSize: hgraph.ClusterSize,

		UnitRadius:           fixedmath.FromFloat64(ic.UnitRadius),
		ObstacleRadius:       fixedmath.FromFloat64(ic.UnitRadius),
		CollisionQueryRadius: fixedmath.FromFloat64(ic.NeighborRadius),

		Steering: steering.Config{
			Friction:               fixedmath.FromFloat64(ic.Friction),
			MinVelocity:            fixedmath.FromFloat64(ic.MinVelocity),
			MaxSpeed:               fixedmath.FromFloat64(ic.MaxSpeed),
			MaxForce:               fixedmath.FromFloat64(ic.MaxForce),
			ArrivalThreshold:       fixedmath.FromFloat64(ic.ArrivalThreshold),
			CheckDistMultiplier:    fixedmath.FromFloat64(ic.CheckDistMultiplier),
			NeighborRadius:         fixedmath.FromFloat64(ic.NeighborRadius),
			SeparationRadius:       fixedmath.FromFloat64(ic.SeparationRadius),
			BoidsMaxNeighbors:      ic.BoidsMaxNeighbors,
			SeparationWeight:       fixedmath.FromFloat64(ic.SeparationWeight),
			AlignmentWeight:        fixedmath.FromFloat64(ic.AlignmentWeight),
			CohesionWeight:         fixedmath.FromFloat64(ic.CohesionWeight),
			SeparationForceCeiling: fixedmath.FromFloat64(ic.SeparationForceCeiling),
		},
		Collision: collision.Config{
			RepulsionDecay: fixedmath.FromFloat64(ic.RepulsionDecay),
			MapWidth:       fixedmath.FromFloat64(ic.MapWidth),
			MapHeight:      fixedmath.FromFloat64(ic.MapHeight),
		},
		SpatialHash: spatialhash.Config{
			EntityRadii:       radii,
			RadiusToCellRatio: fixedmath.FromFloat64(float64(ic.SpatialHashRadiusToCellRatio)),
			OvercapacityRatio: fixedmath.FromFloat64(float64(ic.SpatialHashArenaOvercapacityRatio)),
			MaxEntityCount:    ic.SpatialHashMaxEntityCount,
		},

		QueryBufferSize:     64,
		ActiveSetHot:        128,
		ActiveSetHysteresis: 16,
		ActiveSetMax:        4096,
	}
}

func mapCells(dimension float64) int {
	cells := int(dimension)
	if cells < hgraph.ClusterSize {
		return hgraph.ClusterSize
	}
	return cells
}

func observabilityConfig(enablePprof bool) observability.Config {
	return observability.Config{EnablePprofTrace: enablePprof}
}
