package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Urethramancer/minimisa/memory"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchMemoryDefaultSegments(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, memory.DefaultSegments(), cfg.Segments)
	require.False(t, cfg.Huffman)
	require.Zero(t, cfg.MaxCycles)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimisa.toml")
	cfg := Config{
		Segments:  memory.Segments{Text: 1024, Stack: 512, Data: 512, VRAM: 256},
		MaxCycles: 10000,
		Huffman:   true,
	}

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
}

func TestLoadOfPartialFileKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimisa.toml")
	require.NoError(t, os.WriteFile(path, []byte("huffman = true\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	require.True(t, got.Huffman)
	require.Equal(t, memory.DefaultSegments(), got.Segments)
}

func TestLoadOfMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
