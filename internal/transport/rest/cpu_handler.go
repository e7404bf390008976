package rest

import (
	"context"
	"net/http"
	"time"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/system"
)

type Sampler interface {
	Run(ctx context.Context) error
	Latest() (domain.Snapshot, time.Time, bool)
}

type HostReader interface {
	Host(ctx context.Context) system.HostInfo
}

type SubscriberCounter interface {
	Clients() int
}

type CPUHandler struct {
	sampler     Sampler
	host        HostReader
	subscribers SubscriberCounter
	log         logger.Logger
}

func NewCPUHandler(sampler Sampler, host HostReader, subscribers SubscriberCounter, log logger.Logger) *CPUHandler {
	return &CPUHandler{
		sampler:     sampler,
		host:        host,
		subscribers: subscribers,
		log:         log,
	}
}

// CPUs answers with the bare JSON array of per-core percentages.
func (h *CPUHandler) CPUs(w http.ResponseWriter, r *http.Request) {
	snapshot, _, ok := h.sampler.Latest()
	if !ok {
		if err := h.sampler.Run(r.Context()); err != nil {
			h.log.Error("http: on-demand cpu sample failed", "error", err)
			JSONError(w, http.StatusServiceUnavailable, "cpu usage not available")
			return
		}
		snapshot, _, _ = h.sampler.Latest()
	}

	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}

	JSON(w, http.StatusOK, snapshot)
}

type healthPayload struct {
	Status      string          `json:"status"`
	Host        system.HostInfo `json:"host"`
	Subscribers int             `json:"subscribers"`
	LastSample  *time.Time      `json:"last_sample,omitempty"`
}

func (h *CPUHandler) Health(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		Status: "ok",
		Host:   h.host.Host(r.Context()),
	}

	if h.subscribers != nil {
		payload.Subscribers = h.subscribers.Clients()
	}

	if _, at, ok := h.sampler.Latest(); ok {
		payload.LastSample = &at
	}

	JSON(w, http.StatusOK, APIResponse{Message: "OK", Data: payload})
}
