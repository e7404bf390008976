// Package sampler obtains CPU snapshots from the server, either by polling
// GET /api/cpus on a fixed period or by reading a websocket stream at
// /realtime/cpus, and hands every valid snapshot to a Sink.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cputop/internal/config"
	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/telemetry"
)

const (
	PollPath   = "/api/cpus"
	StreamPath = "/realtime/cpus"

	SourcePoll   = "poll"
	SourceStream = "stream"
)

var (
	ErrStreamClosed      = errors.New("stream connection closed")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// Sink receives snapshots. The presenter implements it.
type Sink interface {
	Receive(u domain.Update) error
}

type Sampler interface {
	Run(ctx context.Context) error
}

type Action int

const (
	Continue Action = iota
	Halt
)

// FaultPolicy decides what the run loop does after a failed tick or message.
type FaultPolicy func(err error) Action

// DefaultPolicy keeps going after any single failure and only stops once the
// run context is canceled.
func DefaultPolicy(err error) Action {
	if errors.Is(err, context.Canceled) {
		return Halt
	}
	return Continue
}

// New builds the sampler selected by cfg.Mode.
func New(cfg *config.Config, sink Sink, log logger.Logger, metrics *telemetry.Metrics) (Sampler, error) {
	switch cfg.Mode {
	case config.ModePoll:
		p, err := NewPoller(PollerOptions{
			BaseURL:  cfg.ServerURL,
			Interval: cfg.PollInterval,
			Timeout:  cfg.RequestTimeout,
		}, sink, log, metrics)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ModeStream:
		s, err := NewStreamer(StreamerOptions{
			BaseURL: cfg.ServerURL,
		}, sink, log, metrics)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sampler mode %q", cfg.Mode)
	}
}

// PollURL joins the base URL with the polling endpoint.
func PollURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w %q for polling", ErrUnsupportedScheme, u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + PollPath
	return u.String(), nil
}

// StreamURL derives the websocket endpoint from the base URL: http becomes
// ws and https becomes wss.
func StreamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w %q for streaming", ErrUnsupportedScheme, u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + StreamPath
	return u.String(), nil
}

// deliver hands a decoded snapshot to the sink. A stale refusal is not a fault.
func deliver(sink Sink, u domain.Update, log logger.Logger, metrics *telemetry.Metrics) error {
	err := sink.Receive(u)
	if errors.Is(err, domain.ErrStaleUpdate) {
		log.Debug("sampler: update superseded", "seq", u.Seq, "source", u.Source)
		return nil
	}
	if err != nil {
		return err
	}

	metrics.Deliveries.WithLabelValues(u.Source).Inc()
	return nil
}
