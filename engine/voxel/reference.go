package voxel

import "sort"

// MeshNaive checks all six neighbors of every closed voxel. It reads S³·7 voxels and exists to
// cross-check the transition grid mesher, not to be fast. neighbors follows the same rules as the
// stitching border policy, nil means open borders.
func MeshNaive(position Int3, volume *Volume, closed OpaquePredicate, neighbors *[FACE_TYPE_COUNT]*Volume) *ChunkMesh {
	mesh := NewChunkMesh(position)
	size := volume.Size()
	isClosedAt := func(p Int3, side FaceType) bool {
		if volume.Contains(p.X, p.Y, p.Z) {
			return closed(volume.At(p))
		}
		if neighbors == nil || neighbors[side] == nil {
			return false
		}
		axis := side.Axis()
		wrapped := p.With(axis, (p.Get(axis)+size)%size)
		return closed(neighbors[side].At(wrapped))
	}
	for z := int32(0); z < size; z++ {
		for y := int32(0); y < size; y++ {
			for x := int32(0); x < size; x++ {
				id := volume.TypeAt(x, y, z)
				if !closed(id) {
					continue
				}
				p := Int3{x, y, z}
				for _, side := range AllFaceTypes() {
					if !isClosedAt(p.Add(side.Normal()), side) {
						mesh.Append(NewFace(p, side, id))
					}
				}
			}
		}
	}
	return mesh
}

// SortedFaces returns all faces ordered by side, then anchor z, y, x. Two meshes cover the same
// surface with the same unit faces iff their sorted faces are equal.
func (m *ChunkMesh) SortedFaces() []Face {
	faces := m.AllFaces()
	sort.Slice(faces, func(i, j int) bool {
		a, b := faces[i], faces[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Anchor.Z != b.Anchor.Z {
			return a.Anchor.Z < b.Anchor.Z
		}
		if a.Anchor.Y != b.Anchor.Y {
			return a.Anchor.Y < b.Anchor.Y
		}
		return a.Anchor.X < b.Anchor.X
	})
	return faces
}
