package sampler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/presenter"
	"cputop/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoller(t *testing.T, base string, opts PollerOptions, sink Sink, m *telemetry.Metrics) *Poller {
	t.Helper()

	opts.BaseURL = base
	if opts.Interval == 0 {
		opts.Interval = 20 * time.Millisecond
	}

	p, err := NewPoller(opts, sink, logger.Discard(), m)
	require.NoError(t, err)
	return p
}

func startPoller(t *testing.T, p *Poller) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	t.Cleanup(cancel)
	return cancel, errCh
}

func TestFetch(t *testing.T) {
	requestIDs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cpus", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		requestIDs <- r.Header.Get("X-Request-ID")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[12.5, 87.333]")
	}))
	defer srv.Close()

	p := newTestPoller(t, srv.URL, PollerOptions{}, &recordingSink{}, telemetry.New())

	snapshot, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{12.5, 87.333}, snapshot)
	assert.NotEmpty(t, <-requestIDs)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", kind: domain.KindTransport},
		{name: "not found", status: http.StatusNotFound, body: "", kind: domain.KindTransport},
		{name: "created is not success", status: http.StatusCreated, body: "[1]", kind: domain.KindTransport},
		{name: "invalid json", status: http.StatusOK, body: "not json", kind: domain.KindDecode},
		{name: "object", status: http.StatusOK, body: `{"cpus":[1]}`, kind: domain.KindDecode},
		{name: "null", status: http.StatusOK, body: "null", kind: domain.KindDecode},
		{name: "strings", status: http.StatusOK, body: `["12.5"]`, kind: domain.KindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := newTestPoller(t, srv.URL, PollerOptions{}, &recordingSink{}, telemetry.New())

			_, err := p.Fetch(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.Kind(err))

			if tt.kind == domain.KindTransport {
				var transportErr *domain.TransportError
				require.ErrorAs(t, err, &transportErr)
				assert.Equal(t, tt.status, transportErr.StatusCode)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := newTestPoller(t, srv.URL, PollerOptions{Timeout: 50 * time.Millisecond}, &recordingSink{}, telemetry.New())

	_, err := p.Fetch(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.KindNetwork, domain.Kind(err))
}

func TestPollerKeepsTickingAfterFailure(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch requests.Add(1) {
		case 1:
			fmt.Fprint(w, "[5]")
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprint(w, "[42]")
		}
	}))
	defer srv.Close()

	m := telemetry.New()
	rec := presenter.NewRecorder()
	pres := presenter.New(rec, logger.Discard(), m, presenter.Options{})
	sink := &recordingSink{next: pres}

	p := newTestPoller(t, srv.URL, PollerOptions{Interval: 50 * time.Millisecond}, sink, m)
	cancel, errCh := startPoller(t, p)

	require.Eventually(t, func() bool {
		current, _ := pres.Current()
		return current.Equal(domain.Snapshot{42})
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	got := sink.snapshots()
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, domain.Snapshot{5}, got[0])
	assert.Equal(t, domain.Snapshot{42}, got[1])

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Faults.WithLabelValues(domain.KindTransport)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.Ticks), float64(3))
}

func TestPollerHaltPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	halting := func(err error) Action {
		if domain.Kind(err) == domain.KindTransport {
			return Halt
		}
		return Continue
	}

	p := newTestPoller(t, srv.URL, PollerOptions{Policy: halting}, &recordingSink{}, telemetry.New())
	_, errCh := startPoller(t, p)

	select {
	case err := <-errCh:
		var transportErr *domain.TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not halt")
	}
}

// The first request is answered only after the second one has been
// delivered, so the responses reach the presenter in reverse order.
func runOutOfOrder(t *testing.T, opts presenter.Options) (*presenter.Presenter, *recordingSink, *telemetry.Metrics) {
	t.Helper()

	secondDelivered := make(chan struct{})

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch requests.Add(1) {
		case 1:
			select {
			case <-secondDelivered:
			case <-r.Context().Done():
				return
			}
			fmt.Fprint(w, "[1]")
		case 2:
			fmt.Fprint(w, "[2]")
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	m := telemetry.New()
	pres := presenter.New(presenter.NewRecorder(), logger.Discard(), m, opts)
	sink := &recordingSink{next: pres, trigger: domain.Snapshot{2}, fired: secondDelivered}

	p := newTestPoller(t, srv.URL, PollerOptions{Interval: 30 * time.Millisecond}, sink, m)
	cancel, errCh := startPoller(t, p)

	require.Eventually(t, func() bool { return sink.calls() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	return pres, sink, m
}

func TestPollerOutOfOrderLastArrivalWins(t *testing.T) {
	pres, sink, m := runOutOfOrder(t, presenter.Options{})

	assert.Equal(t, []domain.Snapshot{{2}, {1}}, sink.snapshots())

	current, _ := pres.Current()
	assert.Equal(t, domain.Snapshot{1}, current)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Deliveries.WithLabelValues(SourcePoll)))
}

func TestPollerOutOfOrderSequenced(t *testing.T) {
	pres, sink, m := runOutOfOrder(t, presenter.Options{DropStale: true})

	assert.Equal(t, []domain.Snapshot{{2}, {1}}, sink.snapshots())

	current, _ := pres.Current()
	assert.Equal(t, domain.Snapshot{2}, current)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StaleDrops))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Deliveries.WithLabelValues(SourcePoll)))
}
