package voxel

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MAX_CHUNK_SIZE is bounded by the 6 bit per axis vertex packing in mesh_buffer.go,
	// vertex coordinates run from 0 to S inclusive.
	MAX_CHUNK_SIZE     int32 = 63
	DEFAULT_CHUNK_SIZE int32 = 32
)

type Int3 struct {
	X, Y, Z int32
}

func (i Int3) Add(other Int3) Int3 {
	return Int3{i.X + other.X, i.Y + other.Y, i.Z + other.Z}
}

func (i Int3) Sub(other Int3) Int3 {
	return Int3{i.X - other.X, i.Y - other.Y, i.Z - other.Z}
}

func (i Int3) Mul(factor int32) Int3 {
	i.X *= factor
	i.Y *= factor
	i.Z *= factor
	return i
}

// Get returns the component for axis 0 (x), 1 (y) or 2 (z).
func (i Int3) Get(axis Axis) int32 {
	switch axis {
	case AxisX:
		return i.X
	case AxisY:
		return i.Y
	default:
		return i.Z
	}
}

func (i Int3) With(axis Axis, value int32) Int3 {
	switch axis {
	case AxisX:
		i.X = value
	case AxisY:
		i.Y = value
	default:
		i.Z = value
	}
	return i
}

func (i Int3) ToVec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(i.X), float32(i.Y), float32(i.Z)}
}

func (i Int3) ToString() string {
	return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z)
}

func Abs(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}

func ManhattanDistance3(a, b Int3) int32 {
	return Abs(a.X-b.X) + Abs(a.Y-b.Y) + Abs(a.Z-b.Z)
}
