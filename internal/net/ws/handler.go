// Package ws implements the websocket command channel (§10 "External IO
// glue"): upgrade a connection, decode each inbound frame into a staged
// command, and acknowledge or reject it. Grounded on the teacher's
// internal/net/ws/handler.go (one upgrader, one per-connection read loop,
// ack/reject frames keyed by client sequence number) adapted from the
// teacher's Hub-bound player-session model to this domain, where a
// connection is simply assigned a player id and every command it sends is
// staged through internal/net/intake onto the tick loop.
package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"strategycore/server/internal/net/intake"
	"strategycore/server/internal/net/proto"
)

// HandlerConfig carries the handler's optional dependencies.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades incoming requests to websocket sessions and stages
// decoded client commands onto the simulation's command buffer.
type Handler struct {
	engine   intake.Engine
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler that stages commands on engine and
// registers every connection with hub so the tick loop can broadcast
// state back out.
func NewHandler(engine intake.Engine, hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		engine: engine,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *nethttp.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and runs the per-connection read loop until
// the client disconnects.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	playerID, session := h.hub.Register(conn)
	defer h.hub.Unregister(playerID)
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed message from player %d: %v", playerID, err)
			continue
		}

		_, ok, reason := intake.Stage(h.engine, playerID, msg)
		if msg.Seq == 0 {
			continue
		}

		var data []byte
		var encodeErr error
		if ok {
			data, encodeErr = proto.EncodeCommandAck(msg.Seq)
		} else {
			data, encodeErr = proto.EncodeCommandReject(msg.Seq, reason)
		}
		if encodeErr != nil {
			h.logger.Printf("failed to encode response for player %d: %v", playerID, encodeErr)
			continue
		}
		if err := session.WriteRaw(data); err != nil {
			return
		}
	}
}
