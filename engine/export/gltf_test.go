package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleVoxelMesh(t *testing.T, reg *voxel.Registry) *voxel.ChunkMesh {
	t.Helper()
	vol := voxel.NewVolume(4)
	vol.Set(1, 1, 1, reg.MustByName("stone"))
	level := voxel.NewFidelityLevel("test", 4, []voxel.BlockID{reg.MustByName("stone")})
	mesh, err := voxel.MeshVolume(context.Background(), voxel.Int3{}, vol, voxel.ComputeHeightBounds(vol, level.Predicate()), voxel.MeshOptions{Fidelity: level})
	require.NoError(t, err)
	return mesh
}

func TestDocument_AddChunk(t *testing.T) {
	reg := voxel.DefaultRegistry()
	doc := NewDocument(reg)

	meshIndex, ok := doc.AddChunk("chunk", singleVoxelMesh(t, reg), mgl32.Vec3{8, 0, 0})
	require.True(t, ok)
	_, ok = doc.AddChunk("empty", voxel.NewChunkMesh(voxel.Int3{}), mgl32.Vec3{})
	assert.False(t, ok)

	g := doc.GLTF()
	require.Len(t, g.Meshes, 1)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, []uint32{0}, g.Scenes[0].Nodes)
	primitive := g.Meshes[meshIndex].Primitives[0]
	positions := g.Accessors[primitive.Attributes[gltf.POSITION]]
	assert.EqualValues(t, 24, positions.Count)
	assert.EqualValues(t, 36, g.Accessors[*primitive.Indices].Count)
	vertices, err := modeler.ReadPosition(g, positions, nil)
	require.NoError(t, err)
	for _, v := range vertices {
		assert.True(t, v[0] == 9 || v[0] == 10, "x %v", v[0])
		assert.True(t, v[1] == 1 || v[1] == 2, "y %v", v[1])
	}
}

func TestDocument_SaveAndOpen(t *testing.T) {
	reg := voxel.DefaultRegistry()
	report := &voxel.MeshReport{Meshes: map[voxel.Int3]*voxel.ChunkMesh{
		{}:     singleVoxelMesh(t, reg),
		{X: 1}: singleVoxelMesh(t, reg),
		{Z: 1}: voxel.NewChunkMesh(voxel.Int3{Z: 1}),
	}}
	doc := NewDocument(reg)
	assert.Equal(t, 2, doc.AddReport(report, 4))

	for _, name := range []string{"map.glb", "map.gltf"} {
		filename := filepath.Join(t.TempDir(), name)
		require.NoError(t, doc.Save(filename))

		opened, err := gltf.Open(filename)
		require.NoError(t, err, name)
		require.Len(t, opened.Meshes, 2)
		assert.Equal(t, "chunk_0_0_0", opened.Meshes[0].Name)
		assert.Equal(t, "chunk_1_0_0", opened.Meshes[1].Name)
	}
}
