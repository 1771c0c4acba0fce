package voxel

// BorderPolicy decides what lies beyond the chunk's outer faces.
type BorderPolicy int

const (
	// BorderOpen treats everything outside the chunk as open: every closed voxel on the chunk
	// shell gets its outward face, adjacent solid chunks draw a face each at the seam.
	BorderOpen BorderPolicy = iota
	// BorderStitch reads the neighbor chunk's boundary slice. Missing neighbors count as open.
	BorderStitch
)

func (b BorderPolicy) String() string {
	if b == BorderStitch {
		return "stitch"
	}
	return "open"
}

// transitionCell is the state machine of one scan line: closed or open, plus the material
// of the last voxel seen so a closed->open transition can be attributed to it.
type transitionCell struct {
	closed   bool
	material BlockID
}

// axisFaces is the private output of one axis pass.
type axisFaces struct {
	axis     Axis
	positive []Face
	negative []Face
	visited  int
}

type axisPass struct {
	vol       *Volume
	closed    OpaquePredicate
	neighbors *[FACE_TYPE_COUNT]*Volume
	axis      Axis
	uAxis     Axis
	vAxis     Axis
	aRange    ScanRange
	uRange    ScanRange
	vRange    ScanRange
	strides   [3]int
	grid      []transitionCell
	out       *axisFaces
}

// scanAxis sweeps the volume along axis, one plane at a time, with a fresh S*S transition grid.
// window restricts every y coordinate the pass looks at; lines outside it hold no closed voxels.
// neighbors may be nil, otherwise neighbors[side] is the chunk touching that side or nil.
func scanAxis(vol *Volume, axis Axis, window ScanRange, closed OpaquePredicate, neighbors *[FACE_TYPE_COUNT]*Volume) *axisFaces {
	size := vol.Size()
	p := &axisPass{
		vol:       vol,
		closed:    closed,
		neighbors: neighbors,
		axis:      axis,
		strides:   [3]int{1, int(size), int(size) * int(size)},
		grid:      make([]transitionCell, int(size)*int(size)),
		out:       &axisFaces{axis: axis},
	}
	p.uAxis, p.vAxis = axis.Orthogonal()
	full := FullRange(size)
	p.aRange, p.uRange, p.vRange = full, full, full
	if axis == AxisY {
		p.aRange = window
	} else if p.uAxis == AxisY {
		p.uRange = window
	} else {
		p.vRange = window
	}
	p.run()
	return p.out
}

func (p *axisPass) cellIndex(u, v int32) int {
	return int(u) + int(v)*int(p.vol.size)
}

func (p *axisPass) position(a, u, v int32) Int3 {
	return Int3{}.With(p.axis, a).With(p.uAxis, u).With(p.vAxis, v)
}

// outside returns the state of the cell beyond the chunk on the given side of line (u,v).
func (p *axisPass) outside(side FaceType, u, v int32) transitionCell {
	if p.neighbors == nil || p.neighbors[side] == nil {
		return transitionCell{}
	}
	a := int32(0)
	if !side.IsPositive() {
		a = p.vol.size - 1
	}
	id := p.neighbors[side].At(p.position(a, u, v))
	return transitionCell{closed: p.closed(id), material: id}
}

func (p *axisPass) run() {
	size := p.vol.size
	negative, positive := p.axis.Negative(), p.axis.Positive()

	// the cell before the scan start is open unless the scan starts at the chunk border
	if p.aRange.Low == 0 {
		for v := p.vRange.Low; v <= p.vRange.High; v++ {
			for u := p.uRange.Low; u <= p.uRange.High; u++ {
				p.grid[p.cellIndex(u, v)] = p.outside(negative, u, v)
			}
		}
	}

	data := p.vol.data
	sa, su, sv := p.strides[p.axis], p.strides[p.uAxis], p.strides[p.vAxis]
	for a := p.aRange.Low; a <= p.aRange.High; a++ {
		for v := p.vRange.Low; v <= p.vRange.High; v++ {
			rowStart := int(a)*sa + int(v)*sv
			for u := p.uRange.Low; u <= p.uRange.High; u++ {
				id := data[rowStart+int(u)*su]
				isClosed := p.closed(id)
				cell := &p.grid[p.cellIndex(u, v)]
				if isClosed && !cell.closed {
					p.out.negative = append(p.out.negative, NewFace(p.position(a, u, v), negative, id))
				} else if !isClosed && cell.closed && a > 0 {
					// a == 0 means the closed voxel belongs to the neighbor chunk
					p.out.positive = append(p.out.positive, NewFace(p.position(a-1, u, v), positive, cell.material))
				}
				cell.closed = isClosed
				cell.material = id
				p.out.visited++
			}
		}
	}

	// synthetic trailing transition: the line ends, compare against the cell after the scan end
	last := p.aRange.High
	for v := p.vRange.Low; v <= p.vRange.High; v++ {
		for u := p.uRange.Low; u <= p.uRange.High; u++ {
			cell := p.grid[p.cellIndex(u, v)]
			if !cell.closed {
				continue
			}
			trailing := transitionCell{}
			if last == size-1 {
				trailing = p.outside(positive, u, v)
			}
			if !trailing.closed {
				p.out.positive = append(p.out.positive, NewFace(p.position(last, u, v), positive, cell.material))
			}
		}
	}
}
