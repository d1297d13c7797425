package main

import (
	"flag"

	"github.com/srediag/mmqueue/internal/config"
)

// loadConfig parses the common --config/--health-addr/--metrics-addr flags
// from fs (already populated with any subcommand-specific flags) and
// returns the resulting config, with flag values taking precedence over
// whatever --config's file set.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	configPath := fs.String("config", "", "path to a YAML config file")
	healthAddr := fs.String("health-addr", "", "address to serve liveness/readiness on, e.g. :8080")
	metricsAddr := fs.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}
	if *healthAddr != "" {
		cfg.HealthAddr = *healthAddr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	return cfg, nil
}
