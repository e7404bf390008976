package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cputop/internal/config"
	"cputop/internal/domain"
	"cputop/internal/logger"
	"cputop/internal/metrics"
	"cputop/internal/system"
	"cputop/internal/telemetry"
	"cputop/internal/transport/rest"
	"cputop/internal/transport/websocket"
	"cputop/internal/workers"
)

func main() {
	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	appLog := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := telemetry.New()
	reader := system.NewReader(appLog)

	hub := websocket.NewHub(ctx, appLog, m)
	go hub.Run()

	collector := metrics.NewCollector(reader, hub, appLog, m)
	latest := func() (domain.Snapshot, bool) {
		s, _, ok := collector.Latest()
		return s, ok
	}

	scheduler := workers.NewScheduler(appLog)
	workers.NewManager(appLog, scheduler, workers.Job{
		Every:     cfg.SampleInterval,
		Worker:    collector,
		Immediate: true,
	}).Start(ctx)

	host := reader.Host(ctx)
	appLog.Info("server: host detected",
		"hostname", host.Hostname,
		"os", host.OS,
		"arch", host.Arch,
		"kernel", host.KernelVersion,
		"cores", host.Cores,
	)

	router := rest.NewRouter(&rest.RouterDeps{
		CPU:     rest.NewCPUHandler(collector, reader, hub, appLog),
		Stream:  websocket.NewHandler(hub, cfg, appLog, latest).Serve,
		Metrics: m.Handler(),
	}, appLog)

	srv := rest.NewServer(router, cfg.Address)

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("http: starting server", "address", cfg.Address, "sample_interval", cfg.SampleInterval)
		errCh <- srv.ListenAndServe()
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("http: server shutdown error", "error", err)
		}

	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			appLog.Error("http: server error", "error", err)
		}
	}

	appLog.Info("server stopped")
}
