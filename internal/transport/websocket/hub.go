// Package websocket fans CPU snapshots out to realtime stream subscribers.
package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"
)

type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	clients map[*Client]bool
	count   atomic.Int64

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	log     logger.Logger
	metrics *telemetry.Metrics
}

func NewHub(parent context.Context, log logger.Logger, metrics *telemetry.Metrics) *Hub {
	ctx, cancel := context.WithCancel(parent)

	return &Hub{
		ctx:    ctx,
		cancel: cancel,

		clients: make(map[*Client]bool),

		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),

		log:     log,
		metrics: metrics,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("ws: hub shutting down")
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.track()
			h.log.Info("ws: client registered", "id", client.ID, "total_clients", len(h.clients))

		case client := <-h.unregister:
			if !h.clients[client] {
				continue
			}

			h.drop(client)
			h.log.Info("ws: client unregistered", "id", client.ID, "total_clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.log.Warn("ws: client channel full, dropping client", "id", client.ID)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// Publish queues a snapshot for every connected client. When the hub is
// backed up the snapshot is skipped; the next one supersedes it anyway.
func (h *Hub) Publish(s domain.Snapshot) {
	if s == nil {
		s = domain.Snapshot{}
	}

	message, err := json.Marshal(s)
	if err != nil {
		h.log.Error("ws: failed to marshal snapshot", "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	default:
		h.log.Warn("ws: broadcast queue full, snapshot skipped")
	}
}

func (h *Hub) Clients() int {
	return int(h.count.Load())
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.track()
}

func (h *Hub) track() {
	h.count.Store(int64(len(h.clients)))
	h.metrics.Subscribers.Set(float64(len(h.clients)))
}
