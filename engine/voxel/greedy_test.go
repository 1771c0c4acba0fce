package voxel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// unitFaces splits merged faces back into unit faces.
func unitFaces(mesh *ChunkMesh) *ChunkMesh {
	units := NewChunkMesh(mesh.Position)
	for _, face := range mesh.AllFaces() {
		u, v := face.Side.Axis().Orthogonal()
		for dv := int32(0); dv < face.Size[1]; dv++ {
			for du := int32(0); du < face.Size[0]; du++ {
				anchor := face.Anchor.With(u, face.Anchor.Get(u)+du).With(v, face.Anchor.Get(v)+dv)
				units.Append(NewFace(anchor, face.Side, face.Material))
			}
		}
	}
	return units
}

func TestMergeRuns_FullChunk(t *testing.T) {
	const size = 8
	vol := NewVolume(size)
	vol.Fill(Int3{}, Int3{X: size - 1, Y: size - 1, Z: size - 1}, testStone)

	merged := MergeRuns(meshOf(t, vol, testOptions(size)), size)

	assert.Equal(t, 6, merged.FaceCount())
	assert.Equal(t, 6*size*size, merged.UnitArea())
	for _, face := range merged.AllFaces() {
		assert.Equal(t, [2]int32{size, size}, face.Size)
	}
}

func TestMergeRuns_KeepsMaterialsApart(t *testing.T) {
	const size = 4
	vol := NewVolume(size)
	vol.Fill(Int3{}, Int3{X: 1, Y: 0, Z: size - 1}, testStone)
	vol.Fill(Int3{X: 2}, Int3{X: size - 1, Y: 0, Z: size - 1}, testDirt)

	merged := MergeRuns(meshOf(t, vol, testOptions(size)), size)

	assert.Len(t, merged.Faces(YP), 2)
	for _, face := range merged.Faces(YP) {
		if face.Material == testStone {
			assert.Equal(t, int32(0), face.Anchor.X)
		} else {
			assert.Equal(t, int32(2), face.Anchor.X)
		}
	}
}

func TestMergeRuns_CoversSameSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for _, size := range []int32{3, 8, 16} {
		mesh := meshOf(t, randomVolume(rng, size, 0.6), testOptions(size))

		merged := MergeRuns(mesh, size)

		assert.LessOrEqual(t, merged.FaceCount(), mesh.FaceCount())
		assert.Equal(t, mesh.FaceCount(), merged.UnitArea())
		assert.Equal(t, mesh.SortedFaces(), unitFaces(merged).SortedFaces())
	}
}

func TestMesh_MergeRunsOption(t *testing.T) {
	vol := NewVolume(8)
	vol.Fill(Int3{}, Int3{X: 7, Y: 0, Z: 7}, testSand)
	opts := testOptions(8)
	opts.MergeRuns = true

	mesh := meshOf(t, vol, opts)

	assert.Equal(t, 6, mesh.FaceCount())
	assert.Equal(t, 2*64+4*8, mesh.UnitArea())
}
