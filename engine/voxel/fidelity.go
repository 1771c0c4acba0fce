package voxel

import (
	"sort"

	"github.com/pkg/errors"
)

// OpaquePredicate projects a block id onto closed (true) or open (false).
type OpaquePredicate func(BlockID) bool

const (
	FidelityExtreme = "extreme"
	FidelityHigh    = "high"
	FidelityMid     = "mid"
)

// FidelityLevel is a named configuration preset: the chunk edge length and which block ids count as closed.
// Air is never closed.
type FidelityLevel struct {
	Name      string
	ChunkSize int32
	closed    []bool
}

func NewFidelityLevel(name string, chunkSize int32, closedIDs []BlockID) FidelityLevel {
	maxID := BlockID(0)
	for _, id := range closedIDs {
		if id > maxID {
			maxID = id
		}
	}
	closed := make([]bool, int(maxID)+1)
	for _, id := range closedIDs {
		if id != Air {
			closed[id] = true
		}
	}
	return FidelityLevel{Name: name, ChunkSize: chunkSize, closed: closed}
}

func (f FidelityLevel) IsClosed(id BlockID) bool {
	return int(id) < len(f.closed) && f.closed[id]
}

func (f FidelityLevel) Predicate() OpaquePredicate {
	closed := f.closed
	return func(id BlockID) bool {
		return int(id) < len(closed) && closed[id]
	}
}

func (f FidelityLevel) ClosedIDs() []BlockID {
	var ids []BlockID
	for id, isClosed := range f.closed {
		if isClosed {
			ids = append(ids, BlockID(id))
		}
	}
	return ids
}

func (f FidelityLevel) Validate() error {
	if f.ChunkSize < 1 || f.ChunkSize > MAX_CHUNK_SIZE {
		return errors.Errorf("fidelity %q: chunk size %d outside [1,%d]", f.Name, f.ChunkSize, MAX_CHUNK_SIZE)
	}
	if len(f.ClosedIDs()) == 0 {
		return errors.Errorf("fidelity %q: no closed block types", f.Name)
	}
	return nil
}

// DefaultFidelityLevels builds the stock presets from a registry. Extreme and high treat fluids as
// closed, mid only cubes. Cross shaped flora is open everywhere.
func DefaultFidelityLevels(reg *Registry) map[string]FidelityLevel {
	cubes := reg.IDsWhere(func(b BlockData) bool { return b.Mesh == MeshCube })
	cubesAndFluids := reg.IDsWhere(func(b BlockData) bool { return b.Mesh == MeshCube || b.Mesh == MeshFluid })
	return map[string]FidelityLevel{
		FidelityExtreme: NewFidelityLevel(FidelityExtreme, 16, cubesAndFluids),
		FidelityHigh:    NewFidelityLevel(FidelityHigh, DEFAULT_CHUNK_SIZE, cubesAndFluids),
		FidelityMid:     NewFidelityLevel(FidelityMid, DEFAULT_CHUNK_SIZE, cubes),
	}
}

func FidelityNames(levels map[string]FidelityLevel) []string {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
