// Package net assembles the HTTP surface around the simulation loop (§10
// "External IO glue"): health and diagnostics endpoints, the websocket
// command channel, and the static client bundle. Grounded on the
// teacher's internal/net/http_handlers.go (one http.ServeMux, pprof
// registered behind a toggle, a health/diagnostics pair, a websocket
// route, a static file server as the catch-all) adapted from the
// teacher's Hub-backed itemization endpoints (resubscribe, world/reset,
// effects/catalog) down to the surface this domain's tick loop actually
// needs.
package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"strategycore/server/internal/net/ws"
	"strategycore/server/internal/observability"
	"strategycore/server/internal/sim"
	"strategycore/server/internal/telemetry"
)

// HTTPHandlerConfig carries the handler's optional dependencies.
type HTTPHandlerConfig struct {
	ClientDir     string
	Logger        telemetry.Logger
	Observability observability.Config
}

// NewHTTPHandler assembles the full HTTP surface for one running Loop.
func NewHTTPHandler(loop *sim.Loop, hub *ws.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	mux := nethttp.NewServeMux()

	registerPprofHandlers(mux, cfg.Observability.EnablePprofTrace)

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string `json:"status"`
			ServerTime  int64  `json:"serverTime"`
			Connections int    `json:"connections"`
			Tick        uint64 `json:"tick"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Connections: hub.Count(),
			Tick:        loop.Snapshot().Tick,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/state", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		data, err := json.Marshal(loop.Snapshot())
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	wsHandler := ws.NewHandler(loop, hub, ws.HandlerConfig{})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}

func registerPprofHandlers(mux *nethttp.ServeMux, enableTrace bool) {
	mux.HandleFunc("/debug/pprof/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/debug/pprof/" {
			nethttp.NotFound(w, r)
			return
		}
		pprof.Index(w, r)
	})

	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)

	profiles := []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}
	for _, name := range profiles {
		mux.Handle("/debug/pprof/"+name, pprof.Handler(name))
	}

	if enableTrace {
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		return
	}

	mux.HandleFunc("/debug/pprof/trace", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		httpError(w, "pprof trace disabled", nethttp.StatusNotFound)
	})
}
