package voxel

import (
	"fmt"

	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkMesh collects the faces of one chunk in six ordered sequences, one per side.
// It is owned by the chunk while meshing and read-only once handed to rendering.
type ChunkMesh struct {
	Position Int3
	faces    [FACE_TYPE_COUNT][]Face
}

func NewChunkMesh(position Int3) *ChunkMesh {
	return &ChunkMesh{Position: position}
}

func (m *ChunkMesh) Append(face Face) {
	m.faces[face.Side] = append(m.faces[face.Side], face)
}

func (m *ChunkMesh) AppendAll(side FaceType, faces []Face) {
	m.faces[side] = append(m.faces[side], faces...)
}

// appendPass joins the private output of one axis pass.
func (m *ChunkMesh) appendPass(pass *axisFaces) {
	m.AppendAll(pass.axis.Positive(), pass.positive)
	m.AppendAll(pass.axis.Negative(), pass.negative)
}

func (m *ChunkMesh) Merge(other *ChunkMesh) {
	if other == nil {
		return
	}
	for side := range other.faces {
		m.faces[side] = append(m.faces[side], other.faces[side]...)
	}
}

func (m *ChunkMesh) Faces(side FaceType) []Face {
	return m.faces[side]
}

func (m *ChunkMesh) AllFaces() []Face {
	all := make([]Face, 0, m.FaceCount())
	for _, side := range m.faces {
		all = append(all, side...)
	}
	return all
}

func (m *ChunkMesh) FaceCount() int {
	count := 0
	for _, side := range m.faces {
		count += len(side)
	}
	return count
}

func (m *ChunkMesh) CountBySide() [FACE_TYPE_COUNT]int {
	var counts [FACE_TYPE_COUNT]int
	for side, faces := range m.faces {
		counts[side] = len(faces)
	}
	return counts
}

func (m *ChunkMesh) TriangleCount() int {
	return m.FaceCount() * 2
}

func (m *ChunkMesh) IsEmpty() bool {
	return m.FaceCount() == 0
}

func (m *ChunkMesh) Reset() {
	for side := range m.faces {
		m.faces[side] = m.faces[side][:0]
	}
}

func (m *ChunkMesh) String() string {
	c := m.CountBySide()
	return fmt.Sprintf("chunk %s: %d faces (+X %d, -X %d, +Y %d, -Y %d, +Z %d, -Z %d)",
		m.Position.ToString(), m.FaceCount(), c[XP], c[XN], c[YP], c[YN], c[ZP], c[ZN])
}

// IndexRange is a contiguous run of indices belonging to one side.
type IndexRange struct {
	Start int32
	Count int32
}

// MeshData is the flattened vertex/index form of a ChunkMesh in chunk local coordinates.
type MeshData struct {
	Positions      []mgl32.Vec3
	Normals        []mgl32.Vec3
	UVs            []mgl32.Vec2
	TextureIndices []uint32
	Indices        []uint32
	SideRanges     [FACE_TYPE_COUNT]IndexRange
}

func (d *MeshData) VertexCount() int {
	return len(d.Positions)
}

// Flatten turns every face into four vertices and two triangles, wound counter clockwise seen
// from outside. UVs tile once per voxel so merged faces repeat their texture.
func (m *ChunkMesh) Flatten(reg *Registry) *MeshData {
	count := m.FaceCount()
	data := &MeshData{
		Positions:      make([]mgl32.Vec3, 0, count*4),
		Normals:        make([]mgl32.Vec3, 0, count*4),
		UVs:            make([]mgl32.Vec2, 0, count*4),
		TextureIndices: make([]uint32, 0, count*4),
		Indices:        make([]uint32, 0, count*6),
	}
	for side, faces := range m.faces {
		data.SideRanges[side].Start = int32(len(data.Indices))
		for _, face := range faces {
			base := uint32(len(data.Positions))
			bl, tl, br, tr := face.Corners()
			w, h := float32(face.Size[0]), float32(face.Size[1])
			normal := face.Side.NormalVec3()
			texture := uint32(reg.TextureIndex(face.Material, face.Side))
			data.Positions = append(data.Positions, bl.ToVec3(), tl.ToVec3(), br.ToVec3(), tr.ToVec3())
			data.UVs = append(data.UVs, mgl32.Vec2{0, h}, mgl32.Vec2{0, 0}, mgl32.Vec2{w, h}, mgl32.Vec2{w, 0})
			for i := 0; i < 4; i++ {
				data.Normals = append(data.Normals, normal)
				data.TextureIndices = append(data.TextureIndices, texture)
			}
			if face.Side.IsPositive() {
				data.Indices = append(data.Indices, base, base+2, base+3, base, base+3, base+1)
			} else {
				data.Indices = append(data.Indices, base, base+3, base+2, base, base+1, base+3)
			}
		}
		data.SideRanges[side].Count = int32(len(data.Indices)) - data.SideRanges[side].Start
	}
	return data
}

// PackedVertices emits six packed vertices per face (flat, non indexed draw), grouped by side.
func (m *ChunkMesh) PackedVertices(reg *Registry) []uint32 {
	vertices := make([]uint32, 0, m.FaceCount()*6)
	for _, faces := range m.faces {
		for _, face := range faces {
			bl, tl, br, tr := face.Corners()
			texture := reg.TextureIndex(face.Material, face.Side)
			cBL := Compress(bl, face.Side, texture, 0)
			cTL := Compress(tl, face.Side, texture, 0)
			cBR := Compress(br, face.Side, texture, 0)
			cTR := Compress(tr, face.Side, texture, 0)
			if face.Side.IsPositive() {
				vertices = append(vertices, cBL, cBR, cTR, cBL, cTR, cTL)
			} else {
				vertices = append(vertices, cBL, cTR, cBR, cBL, cTL, cTR)
			}
		}
	}
	return vertices
}

// Compress packs the position, normal direction and texture index into a 32 bit integer.
// 6 bits per axis, 3 bits side, 8 bits texture, 3 extra bits.
func Compress(position Int3, side FaceType, textureIndex byte, extraBits uint8) uint32 {
	const maxAxis = int32(63)
	if position.X < 0 || position.X > maxAxis || position.Y < 0 || position.Y > maxAxis || position.Z < 0 || position.Z > maxAxis {
		util.LogVoxelError(fmt.Sprintf("[MeshBuffer] vertex %s does not fit 6 bits per axis", position.ToString()))
	}
	compressedPosition := uint32(position.X)&63 | (uint32(position.Y)&63)<<6 | (uint32(position.Z)&63)<<12
	attributes := uint32(side) << 18
	attributes |= uint32(textureIndex) << 21
	attributes |= uint32(extraBits&7) << 29
	return compressedPosition | attributes
}

func Decompress(vertex uint32) (position Int3, side FaceType, textureIndex byte, extraBits uint8) {
	position = Int3{int32(vertex & 63), int32(vertex >> 6 & 63), int32(vertex >> 12 & 63)}
	side = FaceType(vertex >> 18 & 7)
	textureIndex = byte(vertex >> 21)
	extraBits = uint8(vertex >> 29 & 7)
	return
}
