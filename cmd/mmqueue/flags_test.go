package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("health_addr: :1111\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := loadConfig(fs, []string{"--config", path, "--health-addr", ":2222"})
	require.NoError(t, err)
	require.Equal(t, ":2222", cfg.HealthAddr)
}

func TestLoadConfigDefaultsWithoutConfigFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := loadConfig(fs, nil)
	require.NoError(t, err)
	require.Equal(t, "index.mm", cfg.IndexPath)
}
