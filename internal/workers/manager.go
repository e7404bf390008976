// Package workers
package workers

import (
	"context"
	"time"

	"cputop/internal/logger"
)

type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

type Job struct {
	Every  time.Duration
	Worker Worker
	// Immediate runs the worker once before the first tick.
	Immediate bool
}

type Manager struct {
	log logger.Logger

	scheduler *Scheduler
	jobs      []Job
}

func NewManager(log logger.Logger, scheduler *Scheduler, jobs ...Job) *Manager {
	return &Manager{
		log: log,

		scheduler: scheduler,
		jobs:      jobs,
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("worker: manager started", "jobs", len(m.jobs))

	for _, job := range m.jobs {
		if job.Immediate {
			if err := job.Worker.Run(ctx); err != nil {
				m.log.Error("worker failed", "name", job.Worker.Name(), "error", err)
			}
		}

		m.scheduler.RunByDuration(ctx, job.Every, job.Worker)
	}
}
