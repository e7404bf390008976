package sampler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"

	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

type PollerOptions struct {
	BaseURL  string
	Interval time.Duration
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
	Policy  FaultPolicy
	Client  *http.Client
}

// Poller fires a request on every tick without waiting for the previous one.
// Responses are delivered in the order they arrive, which is not necessarily
// the order they were issued; each carries the sequence number of its tick.
type Poller struct {
	url      string
	interval time.Duration
	timeout  time.Duration
	policy   FaultPolicy
	client   *http.Client

	sink    Sink
	log     logger.Logger
	metrics *telemetry.Metrics

	seq    atomic.Uint64
	haltCh chan error
	wg     sync.WaitGroup
}

func NewPoller(opts PollerOptions, sink Sink, log logger.Logger, metrics *telemetry.Metrics) (*Poller, error) {
	target, err := PollURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	if opts.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", opts.Interval)
	}

	if opts.Policy == nil {
		opts.Policy = DefaultPolicy
	}

	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	return &Poller{
		url:      target,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		policy:   opts.Policy,
		client:   opts.Client,

		sink:    sink,
		log:     log.With("component", "sampler", "mode", SourcePoll),
		metrics: metrics,

		haltCh: make(chan error, 1),
	}, nil
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// in-flight requests share ctx and end with it
	defer p.wg.Wait()

	p.log.Info("sampler: polling started", "url", p.url, "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("sampler: polling stopped")
			return ctx.Err()
		case err := <-p.haltCh:
			p.log.Error("sampler: polling halted by fault policy", "error", err)
			return err
		case <-ticker.C:
			seq := p.seq.Add(1)
			p.metrics.Ticks.Inc()

			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.tick(ctx, seq)
			}()
		}
	}
}

func (p *Poller) tick(ctx context.Context, seq uint64) {
	snapshot, err := p.Fetch(ctx)
	if err == nil {
		err = deliver(p.sink, domain.Update{Seq: seq, Source: SourcePoll, Snapshot: snapshot}, p.log, p.metrics)
	}

	if err == nil {
		return
	}

	if ctx.Err() != nil {
		return
	}

	kind := domain.Kind(err)
	p.metrics.Faults.WithLabelValues(kind).Inc()
	p.log.Warn("sampler: poll failed", "seq", seq, "kind", kind, "error", err)

	if p.policy(err) == Halt {
		select {
		case p.haltCh <- err:
		default:
		}
	}
}

// Fetch performs a single request and decodes the response body.
func (p *Poller) Fetch(ctx context.Context) (domain.Snapshot, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, &domain.TransportError{StatusCode: res.StatusCode, URL: p.url}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}

	return domain.DecodeSnapshot(SourcePoll, body)
}
