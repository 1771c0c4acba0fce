package voxel

import "sort"

// MergeRuns is an optional post-process over a finished mesh: per side and per plane it grows
// rectangles of equal material, first along u then along v, and replaces the covered faces with
// one face of that size. The covered surface is unchanged.
func MergeRuns(mesh *ChunkMesh, size int32) *ChunkMesh {
	merged := NewChunkMesh(mesh.Position)
	mask := make([]BlockID, int(size)*int(size))
	filled := make([]bool, len(mask))

	for _, side := range AllFaceTypes() {
		axis := side.Axis()
		u, v := axis.Orthogonal()

		planes := make(map[int32][]Face)
		for _, face := range mesh.Faces(side) {
			d := face.Anchor.Get(axis)
			planes[d] = append(planes[d], face)
		}
		depths := make([]int32, 0, len(planes))
		for d := range planes {
			depths = append(depths, d)
		}
		sort.Slice(depths, func(i, j int) bool { return depths[i] < depths[j] })

		for _, d := range depths {
			for n := range filled {
				filled[n] = false
			}
			for _, face := range planes[d] {
				for dv := int32(0); dv < face.Size[1]; dv++ {
					for du := int32(0); du < face.Size[0]; du++ {
						n := int(face.Anchor.Get(u)+du) + int(face.Anchor.Get(v)+dv)*int(size)
						mask[n] = face.Material
						filled[n] = true
					}
				}
			}

			n := 0
			for j := int32(0); j < size; j++ {
				for i := int32(0); i < size; {
					if !filled[n] {
						i++
						n++
						continue
					}
					material := mask[n]
					w := int32(1)
					for i+w < size && filled[n+int(w)] && mask[n+int(w)] == material {
						w++
					}

					h := int32(1)
				grow:
					for j+h < size {
						for k := int32(0); k < w; k++ {
							m := n + int(k) + int(h)*int(size)
							if !filled[m] || mask[m] != material {
								break grow
							}
						}
						h++
					}

					anchor := Int3{}.With(axis, d).With(u, i).With(v, j)
					merged.Append(Face{Anchor: anchor, Side: side, Material: material, Size: [2]int32{w, h}})

					for l := int32(0); l < h; l++ {
						for k := int32(0); k < w; k++ {
							filled[n+int(k)+int(l)*int(size)] = false
						}
					}
					i += w
					n += int(w)
				}
			}
		}
	}
	return merged
}

// UnitArea is the number of voxel sides a mesh covers, merged or not.
func (m *ChunkMesh) UnitArea() int {
	area := 0
	for _, faces := range m.faces {
		for _, face := range faces {
			area += int(face.Size[0] * face.Size[1])
		}
	}
	return area
}
