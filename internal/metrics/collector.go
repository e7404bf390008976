// Package metrics samples per-core CPU usage on the server side and keeps
// the latest snapshot for the HTTP and websocket endpoints.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"
)

type Source interface {
	CPUPercentPerCore(ctx context.Context) ([]float64, error)
}

type Publisher interface {
	Publish(s domain.Snapshot)
}

type Collector struct {
	source    Source
	publisher Publisher
	log       logger.Logger
	metrics   *telemetry.Metrics

	mu         sync.RWMutex
	latest     domain.Snapshot
	recordedAt time.Time
}

func NewCollector(source Source, publisher Publisher, log logger.Logger, metrics *telemetry.Metrics) *Collector {
	return &Collector{
		source:    source,
		publisher: publisher,
		log:       log,
		metrics:   metrics,
	}
}

func (c *Collector) Name() string {
	return "cpu-sampler"
}

// Run takes one sample, stores it and publishes it to stream subscribers.
func (c *Collector) Run(ctx context.Context) error {
	values, err := c.source.CPUPercentPerCore(ctx)
	if err != nil {
		return fmt.Errorf("sample cpu usage: %w", err)
	}

	snapshot := domain.Snapshot(values).Clone()
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}

	c.mu.Lock()
	c.latest = snapshot
	c.recordedAt = time.Now().UTC()
	c.mu.Unlock()

	c.metrics.Samples.Inc()

	if c.publisher != nil {
		c.publisher.Publish(snapshot.Clone())
	}

	return nil
}

// Latest returns a copy of the last sample and whether one exists yet.
func (c *Collector) Latest() (domain.Snapshot, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil {
		return nil, time.Time{}, false
	}

	return c.latest.Clone(), c.recordedAt, true
}
