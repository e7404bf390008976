package sampler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type StreamerOptions struct {
	BaseURL string
	Policy  FaultPolicy
	Dialer  *websocket.Dialer
}

// Streamer reads snapshots pushed over one websocket connection. Messages
// are delivered strictly in the order they are read. The connection is not
// re-established once lost.
type Streamer struct {
	url    string
	policy FaultPolicy
	dialer *websocket.Dialer

	sink    Sink
	log     logger.Logger
	metrics *telemetry.Metrics

	seq uint64
}

func NewStreamer(opts StreamerOptions, sink Sink, log logger.Logger, metrics *telemetry.Metrics) (*Streamer, error) {
	target, err := StreamURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	if opts.Policy == nil {
		opts.Policy = DefaultPolicy
	}

	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Streamer{
		url:    target,
		policy: opts.Policy,
		dialer: opts.Dialer,

		sink:    sink,
		log:     log.With("component", "sampler", "mode", SourceStream),
		metrics: metrics,
	}, nil
}

func (s *Streamer) Run(ctx context.Context) error {
	conn, res, err := s.dialer.DialContext(ctx, s.url, http.Header{})
	if err != nil {
		if res != nil {
			return fmt.Errorf("stream dial failed with status %d: %w", res.StatusCode, err)
		}
		return fmt.Errorf("stream dial failed: %w", err)
	}
	defer conn.Close()

	s.log.Info("sampler: stream connected", "url", s.url)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"),
				time.Now().Add(writeWait),
			)
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("sampler: stream stopped")
				return ctx.Err()
			}

			s.metrics.Faults.WithLabelValues(domain.KindNetwork).Inc()
			s.log.Warn("sampler: stream lost, no further updates", "error", err)
			return fmt.Errorf("%w: %w", ErrStreamClosed, err)
		}

		s.seq++

		if err := s.handle(s.seq, message); err != nil {
			kind := domain.Kind(err)
			s.metrics.Faults.WithLabelValues(kind).Inc()
			s.log.Warn("sampler: stream message rejected", "seq", s.seq, "kind", kind, "error", err)

			if s.policy(err) == Halt {
				return err
			}
		}
	}
}

func (s *Streamer) handle(seq uint64, message []byte) error {
	snapshot, err := domain.DecodeSnapshot(SourceStream, message)
	if err != nil {
		return err
	}

	return deliver(s.sink, domain.Update{Seq: seq, Source: SourceStream, Snapshot: snapshot}, s.log, s.metrics)
}
