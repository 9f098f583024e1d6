package fwimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcinbor85/gohex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBin(t *testing.T) {
	dir := t.TempDir()
	want := []byte{0x7F, 0x45, 0x4C, 0x46, 0x00, 0xFF}
	filename := filepath.Join(dir, "app.bin")
	require.NoError(t, os.WriteFile(filename, want, 0644))

	got, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadBinEmpty(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(filename, nil, 0644))

	_, err := Load(filename)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestLoadHexFlattensSegments(t *testing.T) {
	segA := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	segB := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	mem := gohex.NewMemory()
	require.NoError(t, mem.AddBinary(0x1000, segA))
	require.NoError(t, mem.AddBinary(0x1010, segB))

	dir := t.TempDir()
	filename := filepath.Join(dir, "app.hex")
	f, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, mem.DumpIntelHex(f, 16))
	require.NoError(t, f.Close())

	got, err := Load(filename)
	require.NoError(t, err)
	require.Len(t, got, 0x14, "lowest to highest programmed address")

	assert.Equal(t, segA, got[:8])
	for i := 8; i < 0x10; i++ {
		assert.EqualValues(t, 0xFF, got[i], "gap byte %d must read as erased flash", i)
	}
	assert.Equal(t, segB, got[0x10:])
}
