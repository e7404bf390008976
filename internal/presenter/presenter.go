package presenter

import (
	"fmt"
	"sync"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"
)

type State int

const (
	StateEmpty State = iota
	StateShowing
)

func (s State) String() string {
	if s == StateShowing {
		return "showing"
	}
	return "empty"
}

type Options struct {
	// DropStale refuses updates whose sequence is lower than the last
	// applied one. Without it the last update to arrive wins.
	DropStale bool
}

// Presenter owns the display state. Receive is the only way to change it and
// all calls are serialised.
type Presenter struct {
	mu sync.Mutex

	display Display
	log     logger.Logger
	metrics *telemetry.Metrics
	opts    Options

	state   State
	current domain.Snapshot
	lastSeq uint64
}

func New(display Display, log logger.Logger, metrics *telemetry.Metrics, opts Options) *Presenter {
	return &Presenter{
		display: display,
		log:     log.With("component", "presenter"),
		metrics: metrics,
		opts:    opts,
		state:   StateEmpty,
	}
}

func (p *Presenter) Receive(u domain.Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.opts.DropStale && p.state == StateShowing && u.Seq < p.lastSeq {
		p.metrics.StaleDrops.Inc()
		p.log.Debug("presenter: dropping stale update", "seq", u.Seq, "last_seq", p.lastSeq, "source", u.Source)
		return domain.ErrStaleUpdate
	}

	view, err := Project(u.Snapshot)
	if err != nil {
		return err
	}

	if err := p.display.Show(view); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}

	p.state = StateShowing
	p.current = u.Snapshot.Clone()
	p.lastSeq = u.Seq

	p.metrics.Renders.Inc()
	p.metrics.Cores.Set(float64(len(view.Bars)))

	return nil
}

// Current returns a copy of the shown snapshot and the presenter state.
func (p *Presenter) Current() (domain.Snapshot, State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current.Clone(), p.state
}
