package websocket

import (
	"encoding/json"
	"net/http"
	"slices"

	"cputop/internal/config"
	"cputop/internal/domain"
	"cputop/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// LatestFunc returns the most recent snapshot, if any, so new subscribers do
// not start with an empty screen.
type LatestFunc func() (domain.Snapshot, bool)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	latest   LatestFunc
	log      logger.Logger
}

func NewHandler(hub *Hub, cfg *config.Config, log logger.Logger, latest LatestFunc) *Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(cfg.AllowedOrigins) == 0 {
				return true
			}

			allowed := slices.Contains(cfg.AllowedOrigins, origin)
			if !allowed {
				log.Warn("ws origin rejected", "origin", origin)
			}

			return allowed
		},
	}

	return &Handler{
		hub:      hub,
		upgrader: upgrader,
		latest:   latest,
		log:      log,
	}
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, h.log, uuid.NewString())

	if h.latest != nil {
		if s, ok := h.latest(); ok {
			if message, err := json.Marshal(s); err == nil {
				client.send <- message
			}
		}
	}

	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.log.Info("ws client connected", "id", client.ID, "remote_addr", conn.RemoteAddr())
}
