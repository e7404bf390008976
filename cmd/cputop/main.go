package main

import (
	"os"

	"cputop/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cputop",
		Short: "Live per-core CPU usage bars",
		Long: `cputop shows the latest per-core CPU usage reported by a cputop server.

It either polls GET /api/cpus on a fixed interval or listens on the
/realtime/cpus websocket stream. Defaults come from the environment
(CPUTOP_* variables, .env supported); flags override them.

Examples:
  # Poll every 500ms and draw plain text frames
  cputop --interval 500ms --display text

  # Follow the push stream of a remote server
  cputop --server https://metrics.example.com --mode stream`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "base URL of the cputop server")
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "update strategy: poll or stream")
	f.DurationVar(&cfg.PollInterval, "interval", cfg.PollInterval, "poll period, between 200ms and 1s")
	f.StringVar(&cfg.Ordering, "ordering", cfg.Ordering, "poll ordering: arrival (last response wins) or sequenced (drop stale responses)")
	f.StringVar(&cfg.Display, "display", cfg.Display, "display: auto, tui or text")
	f.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout for polling, 0 disables it")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file instead of stderr")

	return cmd
}
