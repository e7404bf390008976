// Package config
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModePoll   = "poll"
	ModeStream = "stream"

	OrderingArrival   = "arrival"
	OrderingSequenced = "sequenced"

	DisplayAuto = "auto"
	DisplayTUI  = "tui"
	DisplayText = "text"
)

type Config struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	// Client
	ServerURL      string        `validate:"required,url"`
	Mode           string        `validate:"oneof=poll stream"`
	PollInterval   time.Duration `validate:"min=200ms,max=1s"`
	Ordering       string        `validate:"oneof=arrival sequenced"`
	Display        string        `validate:"oneof=auto tui text"`
	RequestTimeout time.Duration `validate:"min=0"`
	MetricsAddr    string

	// Server
	Address        string        `validate:"required"`
	AllowedOrigins []string
	SampleInterval time.Duration `validate:"min=100ms"`
}

func Load() *Config {
	_ = godotenv.Load()

	// Logs
	logLevel := getEnv("LOG_LEVEL", "info")
	logFormat := getEnv("LOG_FORMAT", "text")
	logFile := getEnv("LOG_FILE", "")

	// Client target and update pipeline
	serverURL := getEnv("CPUTOP_SERVER_URL", "http://localhost:8080")
	mode := strings.ToLower(getEnv("CPUTOP_MODE", ModePoll))
	pollInterval := getDuration("CPUTOP_POLL_INTERVAL", time.Second)
	ordering := strings.ToLower(getEnv("CPUTOP_ORDERING", OrderingArrival))
	display := strings.ToLower(getEnv("CPUTOP_DISPLAY", DisplayAuto))
	requestTimeout := getDuration("CPUTOP_REQUEST_TIMEOUT", 0)
	metricsAddr := getEnv("CPUTOP_METRICS_ADDR", "")

	// Server HTTP Address
	addr := getEnv("SERVER_ADDRESS", "0.0.0.0:8080")
	sampleInterval := getDuration("SAMPLE_INTERVAL", time.Second)

	// Server Allowed Origins
	var origins []string
	rawOrigins := os.Getenv("ALLOWED_ORIGINS")
	if rawOrigins != "" {
		parts := strings.SplitSeq(rawOrigins, ",")
		for o := range parts {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return &Config{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		LogFile:   logFile,

		ServerURL:      serverURL,
		Mode:           mode,
		PollInterval:   pollInterval,
		Ordering:       ordering,
		Display:        display,
		RequestTimeout: requestTimeout,
		MetricsAddr:    metricsAddr,

		Address:        addr,
		AllowedOrigins: origins,
		SampleInterval: sampleInterval,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	if duration, err := time.ParseDuration(raw); err == nil && duration >= 0 {
		return duration
	}

	return fallback
}
