package terrain

import (
	"context"
	"testing"

	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, seed int64) (*Generator, *voxel.Registry) {
	t.Helper()
	reg := voxel.DefaultRegistry()
	g, err := NewGenerator(seed, reg)
	require.NoError(t, err)
	return g, reg
}

func TestNewGenerator_NeedsTerrainBlocks(t *testing.T) {
	_, err := NewGenerator(1, voxel.NewRegistry(nil))
	assert.Error(t, err)
}

func TestGenerator_Layers(t *testing.T) {
	g, reg := newTestGenerator(t, 50)

	assert.Equal(t, voxel.Air, g.BlockAt(3, 200, 3))
	for x := int32(0); x < 32; x++ {
		base := g.BaseLevel(float64(x), 7)
		if base > SAND_LEVEL+4 {
			assert.Equal(t, reg.MustByName("sand"), g.BlockAt(x, 0, 7), "x %d", x)
			assert.Equal(t, reg.MustByName("stone"), g.BlockAt(x, int32(SAND_LEVEL)+1, 7), "x %d", x)
		}
		if base < SEA_LEVEL-2 {
			assert.Equal(t, reg.MustByName("water"), g.BlockAt(x, int32(SEA_LEVEL), 7), "x %d", x)
		}
	}
}

func TestGenerateChunk_TracksBounds(t *testing.T) {
	g, reg := newTestGenerator(t, 50)
	levels := voxel.DefaultFidelityLevels(reg)
	nonAir := func(id voxel.BlockID) bool { return !id.IsAir() }

	for _, position := range []voxel.Int3{{}, {X: 1, Y: 1, Z: -2}, {X: 3, Y: 0, Z: 5}} {
		chunk := g.GenerateChunk(position, 16)

		bounds := chunk.HeightBounds()
		require.NotNil(t, bounds)
		assert.Equal(t, voxel.ComputeHeightBounds(chunk.Volume(), nonAir).Columns(), bounds.Columns(), "chunk %s", position.ToString())
		for _, name := range voxel.FidelityNames(levels) {
			assert.NoError(t, bounds.Verify(position, chunk.Volume(), levels[name].Predicate()))
		}
	}
}

func TestGenerateChunk_Deterministic(t *testing.T) {
	a, _ := newTestGenerator(t, 7)
	b, _ := newTestGenerator(t, 7)

	assert.Equal(t, a.GenerateChunk(voxel.Int3{X: 2}, 8).Volume().Data(), b.GenerateChunk(voxel.Int3{X: 2}, 8).Volume().Data())
}

func TestGenerateMap_MeshesLikeReference(t *testing.T) {
	g, reg := newTestGenerator(t, 50)
	level := voxel.DefaultFidelityLevels(reg)[voxel.FidelityExtreme]
	m := voxel.NewMap(2, 2, 2, level.ChunkSize)

	require.NoError(t, g.GenerateMap(context.Background(), m, 4))
	require.Len(t, m.Chunks(), 8)

	report, err := m.MeshAll(context.Background(), voxel.MeshOptions{Fidelity: level, VerifyBounds: true}, 4)
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	assert.Positive(t, report.FaceCount())
	for _, chunk := range m.Chunks() {
		reference := voxel.MeshNaive(chunk.Position(), chunk.Volume(), level.Predicate(), nil)
		assert.Equal(t, reference.SortedFaces(), report.Meshes[chunk.Position()].SortedFaces(), "chunk %s", chunk.Position().ToString())
	}
}
