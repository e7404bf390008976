package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cputop/internal/config"
	"cputop/internal/logger"
	"cputop/internal/presenter"
	"cputop/internal/sampler"
	"cputop/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func run(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display := resolveDisplay(cfg.Display, os.Stdout)

	logOut, closeLog, err := logOutput(cfg, display)
	if err != nil {
		return err
	}
	defer closeLog()

	appLog := logger.NewWithWriter(cfg, logOut)
	m := telemetry.New()

	var (
		screen presenter.Display
		tui    *presenter.TUIDisplay
	)
	if display == config.DisplayTUI {
		tui = presenter.NewTUIDisplay(fmt.Sprintf("cputop %s (%s)", cfg.ServerURL, cfg.Mode), presenter.DefaultBarWidth)
		screen = tui
	} else {
		screen = presenter.NewTextDisplay(os.Stdout, presenter.DefaultBarWidth)
	}

	pres := presenter.New(screen, appLog, m, presenter.Options{
		DropStale: cfg.Ordering == config.OrderingSequenced,
	})

	smp, err := sampler.New(cfg, pres, appLog, m)
	if err != nil {
		return err
	}

	var metricsLn net.Listener
	if cfg.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
	}

	appLog.Info("cputop: starting", "server", cfg.ServerURL, "mode", cfg.Mode, "display", display)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := smp.Run(gCtx)
		if errors.Is(err, sampler.ErrStreamClosed) {
			// the last frame stays on screen until the user quits
			appLog.Warn("cputop: stream ended, display is now stale", "error", err)
			<-gCtx.Done()
			return nil
		}
		return err
	})

	if tui != nil {
		g.Go(func() error {
			err := tui.Run(gCtx)
			stop()
			return err
		})
	}

	if metricsLn != nil {
		g.Go(func() error {
			return serveMetrics(gCtx, metricsLn, m, appLog)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("cputop: stopped with error", "error", err)
		return err
	}

	appLog.Info("cputop: stopped")
	return nil
}

func resolveDisplay(choice string, out *os.File) string {
	if choice != config.DisplayAuto {
		return choice
	}
	if presenter.IsTerminal(out) {
		return config.DisplayTUI
	}
	return config.DisplayText
}

// logOutput keeps log lines off the full-screen UI.
func logOutput(cfg *config.Config, display string) (io.Writer, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}

	if display == config.DisplayTUI {
		return io.Discard, func() {}, nil
	}

	return os.Stderr, func() {}, nil
}

// serveMetrics exposes /metrics on ln until ctx is done.
func serveMetrics(ctx context.Context, ln net.Listener, m *telemetry.Metrics, log logger.Logger) error {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics: listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
