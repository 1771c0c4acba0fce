package voxel

// ColumnBounds is the closed interval of y values holding closed voxels in one (x,z) column.
// MinY > MaxY marks an empty column.
type ColumnBounds struct {
	MinY int32
	MaxY int32
}

var EmptyColumn = ColumnBounds{MinY: 1, MaxY: 0}

func (c ColumnBounds) Empty() bool {
	return c.MinY > c.MaxY
}

func (c ColumnBounds) Contains(y int32) bool {
	return !c.Empty() && y >= c.MinY && y <= c.MaxY
}

func (c ColumnBounds) Include(y int32) ColumnBounds {
	if c.Empty() {
		return ColumnBounds{MinY: y, MaxY: y}
	}
	if y < c.MinY {
		c.MinY = y
	}
	if y > c.MaxY {
		c.MaxY = y
	}
	return c
}

// HeightBounds holds one ColumnBounds per (x,z) column, indexed x + z*S.
type HeightBounds struct {
	size    int32
	columns []ColumnBounds
}

func NewHeightBounds(size int32) *HeightBounds {
	columns := make([]ColumnBounds, int(size)*int(size))
	for i := range columns {
		columns[i] = EmptyColumn
	}
	return &HeightBounds{size: size, columns: columns}
}

// NewHeightBoundsFromColumns wraps a table produced upstream. Its length is validated with the chunk.
func NewHeightBoundsFromColumns(size int32, columns []ColumnBounds) *HeightBounds {
	return &HeightBounds{size: size, columns: columns}
}

func (h *HeightBounds) Size() int32 {
	return h.size
}

func (h *HeightBounds) Len() int {
	return len(h.columns)
}

func (h *HeightBounds) At(x, z int32) ColumnBounds {
	return h.columns[int(x)+int(z)*int(h.size)]
}

func (h *HeightBounds) Set(x, z int32, c ColumnBounds) {
	h.columns[int(x)+int(z)*int(h.size)] = c
}

// Include widens the (x,z) column to contain y. Producers call it while filling voxels.
func (h *HeightBounds) Include(x, y, z int32) {
	i := int(x) + int(z)*int(h.size)
	h.columns[i] = h.columns[i].Include(y)
}

func (h *HeightBounds) Columns() []ColumnBounds {
	return h.columns
}

func (h *HeightBounds) AllEmpty() bool {
	for _, c := range h.columns {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// ComputeHeightBounds scans the whole volume once. Only needed when the producer did not track bounds.
func ComputeHeightBounds(vol *Volume, closed OpaquePredicate) *HeightBounds {
	size := vol.Size()
	bounds := NewHeightBounds(size)
	for z := int32(0); z < size; z++ {
		for y := int32(0); y < size; y++ {
			for x := int32(0); x < size; x++ {
				if closed(vol.TypeAt(x, y, z)) {
					bounds.Include(x, y, z)
				}
			}
		}
	}
	return bounds
}

// Verify checks that every closed voxel lies inside its column interval and that every
// interval lies inside the chunk. Bounds may be wider than the data, never narrower.
func (h *HeightBounds) Verify(chunk Int3, vol *Volume, closed OpaquePredicate) error {
	size := vol.Size()
	for z := int32(0); z < size; z++ {
		for x := int32(0); x < size; x++ {
			column := h.At(x, z)
			if !column.Empty() && (column.MinY < 0 || column.MaxY >= size) {
				return newViolation(chunk, InvariantBoundsRange, "column (%d,%d) bounds [%d,%d] outside [0,%d)", x, z, column.MinY, column.MaxY, size)
			}
			for y := int32(0); y < size; y++ {
				if closed(vol.TypeAt(x, y, z)) && !column.Contains(y) {
					return newViolation(chunk, InvariantBoundsStale, "closed voxel (%d,%d,%d) outside column bounds %v", x, y, z, column)
				}
			}
		}
	}
	return nil
}

// ScanRange is the inclusive y window the mesher has to look at.
type ScanRange struct {
	Low  int32
	High int32
}

func FullRange(size int32) ScanRange {
	return ScanRange{Low: 0, High: size - 1}
}

func (r ScanRange) Height() int32 {
	return r.High - r.Low + 1
}

func (r ScanRange) Contains(y int32) bool {
	return y >= r.Low && y <= r.High
}

// SelectScanRange narrows the y scan to the occupied columns plus one cell of slack on each
// side, so that the transitions at the lowest and highest closed voxel are seen.
// ok is false when every column is empty: the chunk has no faces and must not be scanned.
func SelectScanRange(bounds *HeightBounds) (ScanRange, bool) {
	size := bounds.Size()
	low, high := size, int32(-1)
	for _, c := range bounds.columns {
		if c.Empty() {
			continue
		}
		if c.MinY < low {
			low = c.MinY
		}
		if c.MaxY > high {
			high = c.MaxY
		}
	}
	if high < 0 {
		return ScanRange{}, false
	}
	low--
	high++
	if low < 0 {
		low = 0
	}
	if high > size-1 {
		high = size - 1
	}
	return ScanRange{Low: low, High: high}, true
}
