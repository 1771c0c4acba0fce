package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	opts, err := cfg.MeshOptions(voxel.DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, voxel.FidelityHigh, opts.Fidelity.Name)
	assert.Equal(t, voxel.BorderOpen, opts.Border)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
mesher:
  fidelity: mid
  border: stitch
  workers: 3
  merge_runs: true
  verify_bounds: true
fidelity:
  mid:
    chunk_size: 16
  glass:
    chunk_size: 8
    closed_blocks: [stone, "minecraft:sand"]
terrain:
  seed: 99
  chunks: [1, 2, 3]
log:
  level: debug
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Mesher.Workers)
	assert.Equal(t, int64(99), cfg.Terrain.Seed)
	assert.Equal(t, [3]int{1, 2, 3}, cfg.Terrain.Chunks)
	assert.Equal(t, "debug", cfg.Log.Level)

	reg := voxel.DefaultRegistry()
	opts, err := cfg.MeshOptions(reg)
	require.NoError(t, err)
	assert.Equal(t, int32(16), opts.Fidelity.ChunkSize)
	assert.Equal(t, voxel.BorderStitch, opts.Border)
	assert.True(t, opts.MergeRuns)
	assert.True(t, opts.VerifyBounds)
	assert.False(t, opts.Fidelity.IsClosed(reg.MustByName("water")), "mid keeps its closed set")

	levels, err := cfg.FidelityLevels(reg)
	require.NoError(t, err)
	glass := levels["glass"]
	assert.Equal(t, int32(8), glass.ChunkSize)
	assert.Equal(t, []voxel.BlockID{reg.MustByName("stone"), reg.MustByName("sand")}, glass.ClosedIDs())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "mesher:\n  fidelity: extreme\n"))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, voxel.FidelityExtreme, cfg.Mesher.Fidelity)
	assert.Equal(t, Default().Terrain, cfg.Terrain)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "mesher: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "mesher:\n  border: sideways\n"))
	assert.ErrorContains(t, err, "sideways")

	_, err = Load(writeConfig(t, "terrain:\n  chunks: [1, 0, 1]\n"))
	assert.Error(t, err)
}

func TestFidelityLevels_Errors(t *testing.T) {
	reg := voxel.DefaultRegistry()
	tests := map[string]map[string]FidelityConfig{
		"unknown block":   {"high": {ClosedBlocks: []string{"bedrock"}}},
		"incomplete new":  {"custom": {ChunkSize: 8}},
		"too large":       {"mid": {ChunkSize: 64}},
		"no closed block": {"mid": {ClosedBlocks: []string{"air"}}},
	}
	for name, fidelity := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Fidelity = fidelity
			_, err := cfg.FidelityLevels(reg)
			assert.Error(t, err)
		})
	}

	cfg := Default()
	cfg.Mesher.Fidelity = "ultra"
	_, err := cfg.MeshOptions(reg)
	assert.ErrorContains(t, err, "ultra")
}
