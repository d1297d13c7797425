//go:build linux || darwin

package mmio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seg.mm")

	require.False(t, Exists(path))

	f, err := CreateRW(path, 4096)
	require.NoError(t, err)
	require.True(t, f.IsWriteable())
	require.EqualValues(t, 4096, f.Size())

	rw := f.AddressRW()
	require.Len(t, rw, 4096)
	copy(rw, []byte("hello"))
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	require.True(t, Exists(path))

	g, err := OpenRO(path)
	require.NoError(t, err)
	require.False(t, g.IsWriteable())
	require.Equal(t, "hello", string(g.AddressRO()[:5]))
	require.NoError(t, g.Close())
}

func TestExtendSizeRemapsAndPreservesBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grow.mm")

	f, err := CreateRW(path, 64)
	require.NoError(t, err)
	defer f.Close()

	copy(f.AddressRW(), []byte("preserved"))

	require.NoError(t, f.ExtendSize(128))
	require.EqualValues(t, 128, f.Size())

	grown := f.AddressRW()
	require.Len(t, grown, 128)
	require.Equal(t, "preserved", string(grown[:9]))
}

func TestExtendSizeRejectsShrink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shrink.mm")

	f, err := CreateRW(path, 128)
	require.NoError(t, err)
	defer f.Close()

	require.Error(t, f.ExtendSize(64))
}

func TestExtendSizeOnReadOnlyFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ro.mm")

	f, err := CreateRW(path, 32)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	g, err := OpenRO(path)
	require.NoError(t, err)
	defer g.Close()

	require.ErrorIs(t, g.ExtendSize(64), ErrNotWriteable)
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idem.mm")

	f, err := CreateRW(path, 16)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestCreateRWReusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reuse.mm")

	f, err := CreateRW(path, 32)
	require.NoError(t, err)
	copy(f.AddressRW(), []byte("original"))
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 32, info.Size())

	g, err := CreateRW(path, 64)
	require.NoError(t, err)
	defer g.Close()
	require.EqualValues(t, 64, g.Size())
	require.Equal(t, "original", string(g.AddressRW()[:8]))
}
