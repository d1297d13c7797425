package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/mmqueue/internal/config"
	"github.com/srediag/mmqueue/internal/health"
	"github.com/srediag/mmqueue/internal/logger"
	"github.com/srediag/mmqueue/pkg/queue"
)

// globalMetrics is shared by every subcommand that opens a queue handle,
// registered once against the default Prometheus registry.
var globalMetrics = queue.NewMetrics(prometheus.DefaultRegisterer, nil, nil)

// logLevels maps the config file's log_level string onto internal/logger's
// numeric levels.
var logLevels = map[string]int{
	"trace":   logger.LevelTrace,
	"debug":   logger.LevelDebug,
	"info":    logger.LevelInfo,
	"warn":    logger.LevelWarn,
	"error":   logger.LevelError,
	"noprint": logger.LevelNoPrint,
}

// applyLogLevel sets logger.Default's level from cfg.LogLevel, leaving the
// default (LevelWarn) in place for an unrecognized value.
func applyLogLevel(cfg *config.Config) {
	if level, ok := logLevels[cfg.LogLevel]; ok {
		logger.Default.SetLevel(level)
	}
}

func pathsFromConfig(cfg *config.Config) queue.Paths {
	return queue.Paths{
		IndexPath:   cfg.IndexPath,
		DataPath:    cfg.DataPath,
		ControlPath: cfg.ControlPath,
		NewSemName:  cfg.NewSemName,
		RegSemName:  cfg.RegSemName,
	}
}

// serveAmbient starts the health and metrics HTTP listeners in background
// goroutines when the corresponding addresses are configured; a failed
// listener only logs, since the CLI's primary job is the publish/drain
// loop, not serving HTTP.
func serveAmbient(cfg *config.Config, q *queue.Queue) {
	applyLogLevel(cfg)
	if cfg.HealthAddr != "" {
		go func() {
			if err := health.Serve(cfg.HealthAddr, q); err != nil {
				logger.Default.Warnf("health server stopped: %v", err)
			}
		}()
	}
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Default.Warnf("metrics server stopped: %v", err)
			}
		}()
	}
}
