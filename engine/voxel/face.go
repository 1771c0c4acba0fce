package voxel

import "github.com/go-gl/mathgl/mgl32"

type FaceType int32

const (
	XP FaceType = iota
	XN
	YP
	YN
	ZP
	ZN
)

const FACE_TYPE_COUNT = 6

var faceTypeNames = [FACE_TYPE_COUNT]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

func (f FaceType) String() string {
	if f < 0 || f >= FACE_TYPE_COUNT {
		return "?"
	}
	return faceTypeNames[f]
}

func (f FaceType) Axis() Axis {
	return Axis(f / 2)
}

func (f FaceType) IsPositive() bool {
	return f%2 == 0
}

func (f FaceType) Opposite() FaceType {
	if f.IsPositive() {
		return f + 1
	}
	return f - 1
}

func (f FaceType) Normal() Int3 {
	sign := int32(1)
	if !f.IsPositive() {
		sign = -1
	}
	return Int3{}.With(f.Axis(), sign)
}

func (f FaceType) NormalVec3() mgl32.Vec3 {
	return f.Normal().ToVec3()
}

func AllFaceTypes() [FACE_TYPE_COUNT]FaceType {
	return [FACE_TYPE_COUNT]FaceType{XP, XN, YP, YN, ZP, ZN}
}

type Axis int32

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [3]string{"X", "Y", "Z"}[a]
}

// Orthogonal returns the (u, v) axes spanning the plane perpendicular to a.
func (a Axis) Orthogonal() (Axis, Axis) {
	return (a + 1) % 3, (a + 2) % 3
}

func (a Axis) Positive() FaceType {
	return FaceType(a * 2)
}

func (a Axis) Negative() FaceType {
	return FaceType(a*2 + 1)
}

// Face is one exposed side of one voxel. Anchor is the voxel on the closed side of the
// transition, Size is the extent along the side's (u, v) axes and stays {1,1} unless the
// mesh went through MergeRuns.
type Face struct {
	Anchor   Int3
	Side     FaceType
	Material BlockID
	Size     [2]int32
}

func NewFace(anchor Int3, side FaceType, material BlockID) Face {
	return Face{Anchor: anchor, Side: side, Material: material, Size: [2]int32{1, 1}}
}

// Corners returns the quad corners in voxel space: bottom left, top left, bottom right, top right,
// where "left/right" runs along u and "bottom/top" along v.
func (f Face) Corners() (bl, tl, br, tr Int3) {
	axis := f.Side.Axis()
	u, v := axis.Orthogonal()
	base := f.Anchor
	if f.Side.IsPositive() {
		base = base.With(axis, base.Get(axis)+1)
	}
	du := Int3{}.With(u, f.Size[0])
	dv := Int3{}.With(v, f.Size[1])
	bl = base
	tl = base.Add(dv)
	br = base.Add(du)
	tr = base.Add(du).Add(dv)
	return
}
