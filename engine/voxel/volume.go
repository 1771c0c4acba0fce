package voxel

import "sync/atomic"

// Volume is the voxel data of one chunk, laid out x fastest then y then z.
// Producers fill it with Set before meshing; meshing only reads.
type Volume struct {
	size       int32
	data       []BlockID
	generation atomic.Uint64
}

func NewVolume(size int32) *Volume {
	return &Volume{
		size: size,
		data: make([]BlockID, int(size)*int(size)*int(size)),
	}
}

// NewVolumeFromData wraps an existing id slice. The slice length is checked when the chunk is validated.
func NewVolumeFromData(size int32, data []BlockID) *Volume {
	return &Volume{size: size, data: data}
}

func (v *Volume) Size() int32 {
	return v.size
}

func (v *Volume) blockIndex(x, y, z int32) int {
	return int(x) + int(y)*int(v.size) + int(z)*int(v.size)*int(v.size)
}

func (v *Volume) Contains(x, y, z int32) bool {
	return x >= 0 && x < v.size && y >= 0 && y < v.size && z >= 0 && z < v.size
}

// TypeAt returns the block at local coordinates. Out of range coordinates are a caller bug and panic.
func (v *Volume) TypeAt(x, y, z int32) BlockID {
	if !v.Contains(x, y, z) {
		panic(newViolation(Int3{}, InvariantCoordinate, "(%d,%d,%d) outside [0,%d)", x, y, z, v.size))
	}
	return v.data[v.blockIndex(x, y, z)]
}

func (v *Volume) At(pos Int3) BlockID {
	return v.TypeAt(pos.X, pos.Y, pos.Z)
}

func (v *Volume) Set(x, y, z int32, block BlockID) {
	if !v.Contains(x, y, z) {
		panic(newViolation(Int3{}, InvariantCoordinate, "(%d,%d,%d) outside [0,%d)", x, y, z, v.size))
	}
	v.data[v.blockIndex(x, y, z)] = block
	v.generation.Add(1)
}

// Fill sets every voxel of the axis aligned box [min, max] (inclusive) to block.
func (v *Volume) Fill(min, max Int3, block BlockID) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				v.Set(x, y, z, block)
			}
		}
	}
}

// Generation changes on every Set, meshing compares it before and after the passes.
func (v *Volume) Generation() uint64 {
	return v.generation.Load()
}

// Data exposes the raw ids for codecs.
func (v *Volume) Data() []BlockID {
	return v.data
}

func (v *Volume) Clone() *Volume {
	data := make([]BlockID, len(v.data))
	copy(data, v.data)
	return &Volume{size: v.size, data: data}
}

func (v *Volume) CountWhere(closed OpaquePredicate) int {
	count := 0
	for _, b := range v.data {
		if closed(b) {
			count++
		}
	}
	return count
}
