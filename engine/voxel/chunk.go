package voxel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

type MeshOptions struct {
	Fidelity FidelityLevel
	Border   BorderPolicy
	// FullScan disables the height bound restriction, every y layer is scanned.
	FullScan bool
	// VerifyBounds re-checks the height bounds against the voxels before scanning, O(S³).
	VerifyBounds bool
	// MergeRuns merges coplanar neighboring faces of equal material after the scan.
	MergeRuns bool
	Metrics   *MeshMetrics
}

type Chunk struct {
	position Int3
	volume   *Volume
	m        *Map

	boundsMutex    sync.Mutex
	bounds         *HeightBounds
	boundsComputed string // fidelity name the bounds were derived for, empty if supplied upstream

	cXN *Chunk
	cXP *Chunk
	cYN *Chunk
	cYP *Chunk
	cZN *Chunk
	cZP *Chunk

	isDirty    bool
	meshBuffer *ChunkMesh
}

// NewChunk wraps voxel data produced upstream. bounds may be nil, it is then computed
// once from the volume on first use.
func NewChunk(position Int3, volume *Volume, bounds *HeightBounds) *Chunk {
	return &Chunk{
		position: position,
		volume:   volume,
		bounds:   bounds,
		isDirty:  true,
	}
}

func (c *Chunk) Position() Int3 {
	return c.position
}

func (c *Chunk) Volume() *Volume {
	return c.volume
}

func (c *Chunk) HeightBounds() *HeightBounds {
	c.boundsMutex.Lock()
	defer c.boundsMutex.Unlock()
	return c.bounds
}

func (c *Chunk) Size() int32 {
	return c.volume.Size()
}

// SetBlock edits the voxel data between mesh passes. Upstream bounds are widened, derived bounds dropped.
func (c *Chunk) SetBlock(x, y, z int32, block BlockID) {
	c.volume.Set(x, y, z, block)
	c.boundsMutex.Lock()
	if c.boundsComputed != "" {
		c.bounds = nil
		c.boundsComputed = ""
	} else if c.bounds != nil && !block.IsAir() {
		c.bounds.Include(x, y, z)
	}
	c.boundsMutex.Unlock()
	c.isDirty = true
}

func (c *Chunk) GetLocalBlock(x, y, z int32) (BlockID, bool) {
	if !c.volume.Contains(x, y, z) {
		return Air, false
	}
	return c.volume.TypeAt(x, y, z), true
}

func (c *Chunk) SetDirty() {
	c.isDirty = true
}

func (c *Chunk) IsDirty() bool {
	return c.isDirty
}

// LastMesh returns the mesh of the last successful Mesh call, nil before that.
func (c *Chunk) LastMesh() *ChunkMesh {
	return c.meshBuffer
}

func (c *Chunk) InitNeighbors() {
	if c.m == nil {
		return
	}
	p := c.position
	c.cXN = c.m.GetChunk(p.X-1, p.Y, p.Z)
	c.cXP = c.m.GetChunk(p.X+1, p.Y, p.Z)
	c.cYN = c.m.GetChunk(p.X, p.Y-1, p.Z)
	c.cYP = c.m.GetChunk(p.X, p.Y+1, p.Z)
	c.cZN = c.m.GetChunk(p.X, p.Y, p.Z-1)
	c.cZP = c.m.GetChunk(p.X, p.Y, p.Z+1)
}

func (c *Chunk) neighborVolumes() *[FACE_TYPE_COUNT]*Volume {
	var volumes [FACE_TYPE_COUNT]*Volume
	for side, neighbor := range [FACE_TYPE_COUNT]*Chunk{c.cXP, c.cXN, c.cYP, c.cYN, c.cZP, c.cZN} {
		if neighbor != nil {
			volumes[side] = neighbor.volume
		}
	}
	return &volumes
}

// boundsFor returns upstream bounds as they are or derives them once per fidelity level.
func (c *Chunk) boundsFor(fidelity FidelityLevel) *HeightBounds {
	c.boundsMutex.Lock()
	defer c.boundsMutex.Unlock()
	if c.bounds != nil && (c.boundsComputed == "" || c.boundsComputed == fidelity.Name) {
		return c.bounds
	}
	if c.volume.Size() != fidelity.ChunkSize || len(c.volume.data) != int(c.volume.size)*int(c.volume.size)*int(c.volume.size) {
		// leave it to validation to report
		return nil
	}
	c.bounds = ComputeHeightBounds(c.volume, fidelity.Predicate())
	c.boundsComputed = fidelity.Name
	return c.bounds
}

// Mesh runs the three axis passes over the chunk and returns its faces.
// On a contract violation the returned mesh is empty and the error names the invariant.
func (c *Chunk) Mesh(ctx context.Context, opts MeshOptions) (*ChunkMesh, error) {
	var neighbors *[FACE_TYPE_COUNT]*Volume
	if opts.Border == BorderStitch {
		c.InitNeighbors()
		neighbors = c.neighborVolumes()
	}
	mesh, err := meshVolume(ctx, c.position, c.volume, c.boundsFor(opts.Fidelity), neighbors, opts, opts.Fidelity.Predicate())
	if err != nil {
		return mesh, err
	}
	c.meshBuffer = mesh
	c.isDirty = false
	return mesh, nil
}

// MeshVolume meshes a standalone volume with its height bounds. Outside the chunk is open.
func MeshVolume(ctx context.Context, position Int3, volume *Volume, bounds *HeightBounds, opts MeshOptions) (*ChunkMesh, error) {
	opts.Border = BorderOpen
	return meshVolume(ctx, position, volume, bounds, nil, opts, opts.Fidelity.Predicate())
}

func validateInput(position Int3, volume *Volume, bounds *HeightBounds, neighbors *[FACE_TYPE_COUNT]*Volume, fidelity FidelityLevel) error {
	if err := fidelity.Validate(); err != nil {
		return newViolation(position, InvariantChunkSize, "%v", err)
	}
	size := fidelity.ChunkSize
	if volume == nil {
		return newViolation(position, InvariantVolumeSize, "no voxel data")
	}
	if volume.Size() != size {
		return newViolation(position, InvariantChunkSize, "volume edge %d, fidelity %q expects %d", volume.Size(), fidelity.Name, size)
	}
	if len(volume.data) != int(size)*int(size)*int(size) {
		return newViolation(position, InvariantVolumeSize, "%d voxels for edge %d", len(volume.data), size)
	}
	if bounds == nil {
		return newViolation(position, InvariantBoundsMissing, "no height bounds table")
	}
	if bounds.Size() != size || bounds.Len() != int(size)*int(size) {
		return newViolation(position, InvariantBoundsSize, "%d columns, expected %d", bounds.Len(), int(size)*int(size))
	}
	for i, c := range bounds.Columns() {
		if !c.Empty() && (c.MinY < 0 || c.MaxY >= size) {
			return newViolation(position, InvariantBoundsRange, "column %d bounds [%d,%d] outside [0,%d)", i, c.MinY, c.MaxY, size)
		}
	}
	if neighbors != nil {
		for side, n := range neighbors {
			if n != nil && (n.Size() != size || len(n.data) != len(volume.data)) {
				return newViolation(position, InvariantChunkSize, "neighbor %s has edge %d, expected %d", FaceType(side), n.Size(), size)
			}
		}
	}
	return nil
}

// closed is the fidelity level's predicate.
func meshVolume(ctx context.Context, position Int3, volume *Volume, bounds *HeightBounds, neighbors *[FACE_TYPE_COUNT]*Volume, opts MeshOptions, closed OpaquePredicate) (*ChunkMesh, error) {
	start := time.Now()
	mesh := NewChunkMesh(position)
	fail := func(err error) (*ChunkMesh, error) {
		opts.Metrics.observeResult(resultFailed, time.Since(start))
		util.LogVoxelError(fmt.Sprintf("[Mesher] %v", err))
		return NewChunkMesh(position), err
	}

	if err := validateInput(position, volume, bounds, neighbors, opts.Fidelity); err != nil {
		return fail(err)
	}
	if opts.VerifyBounds {
		if err := bounds.Verify(position, volume, closed); err != nil {
			return fail(err)
		}
	}

	size := volume.Size()
	window := FullRange(size)
	if !opts.FullScan {
		var ok bool
		window, ok = SelectScanRange(bounds)
		if !ok {
			opts.Metrics.observeScan(size, window, true, 0)
			opts.Metrics.observeResult(resultSkipped, time.Since(start))
			util.LogVoxelDebug(fmt.Sprintf("[Mesher] chunk %s is empty, skipped", position.ToString()))
			return mesh, nil
		}
	}

	generation := volume.Generation()
	var passes [3]*axisFaces
	g, gctx := errgroup.WithContext(ctx)
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		axis := axis
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			passes[axis] = scanAxis(volume, axis, window, closed, neighbors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// cancelled before the join, nothing was handed out
		return NewChunkMesh(position), err
	}
	if volume.Generation() != generation {
		return fail(newViolation(position, InvariantGenerationSame, "voxel data changed while meshing"))
	}

	visited := 0
	for _, pass := range passes {
		mesh.appendPass(pass)
		visited += pass.visited
	}
	if opts.MergeRuns {
		mesh = MergeRuns(mesh, size)
	}

	opts.Metrics.observeScan(size, window, false, visited)
	opts.Metrics.observeFaces(mesh)
	opts.Metrics.observeResult(resultMeshed, time.Since(start))
	util.LogVoxelDebug(fmt.Sprintf("[Mesher] %s, y window [%d,%d], %d voxels read", mesh, window.Low, window.High, visited))
	return mesh, nil
}

// WorldOrigin is the voxel space position of the chunk's (0,0,0) corner.
func (c *Chunk) WorldOrigin() mgl32.Vec3 {
	return c.position.Mul(c.volume.Size()).ToVec3()
}

func (c *Chunk) AABBMin() mgl32.Vec3 {
	return c.WorldOrigin()
}

func (c *Chunk) AABBMax() mgl32.Vec3 {
	s := float32(c.volume.Size())
	return c.WorldOrigin().Add(mgl32.Vec3{s, s, s})
}
