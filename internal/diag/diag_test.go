package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectReportsCurrentProcess(t *testing.T) {
	report, err := Collect(FileSizes{IndexBytes: 10, DataBytes: 20, ControlBytes: 30})
	require.NoError(t, err)
	require.Greater(t, report.PID, int32(0))
	require.Equal(t, int64(10), report.Files.IndexBytes)
	require.Equal(t, int64(20), report.Files.DataBytes)
	require.Equal(t, int64(30), report.Files.ControlBytes)
}
