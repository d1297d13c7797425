package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_consumers: 8\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(8), c.MaxConsumers)
	require.Equal(t, "index.mm", c.IndexPath)
	require.Equal(t, "info", c.LogLevel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultAppliesAllDefaults(t *testing.T) {
	c := Default()
	require.Equal(t, uint32(16), c.MaxConsumers)
	require.Equal(t, int64(64*1024), c.IndexInitialBytes)
}
