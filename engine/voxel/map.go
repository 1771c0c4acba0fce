package voxel

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Map is a fixed grid of equally sized chunks, indexed x + y*width + z*width*height.
type Map struct {
	chunks    []*Chunk
	width     int32
	height    int32
	depth     int32
	chunkSize int32
}

func NewMap(width, height, depth, chunkSize int32) *Map {
	return &Map{
		chunks:    make([]*Chunk, width*height*depth),
		width:     width,
		height:    height,
		depth:     depth,
		chunkSize: chunkSize,
	}
}

func (m *Map) ChunkSize() int32 {
	return m.chunkSize
}

// Dimensions returns the map size in chunks.
func (m *Map) Dimensions() Int3 {
	return Int3{X: m.width, Y: m.height, Z: m.depth}
}

func (m *Map) chunkIndex(x, y, z int32) (int, bool) {
	if x < 0 || y < 0 || z < 0 || x >= m.width || y >= m.height || z >= m.depth {
		return 0, false
	}
	return int(x + y*m.width + z*m.width*m.height), true
}

func (m *Map) GetChunk(x, y, z int32) *Chunk {
	i, ok := m.chunkIndex(x, y, z)
	if !ok {
		return nil
	}
	return m.chunks[i]
}

func (m *Map) ChunkExists(x, y, z int32) bool {
	return m.GetChunk(x, y, z) != nil
}

// SetChunk places c at its own chunk position. Every chunk of a map shares the map's edge length.
func (m *Map) SetChunk(c *Chunk) error {
	p := c.Position()
	i, ok := m.chunkIndex(p.X, p.Y, p.Z)
	if !ok {
		return errors.Errorf("chunk %s outside map %s", p.ToString(), m.Dimensions().ToString())
	}
	if c.Size() != m.chunkSize {
		return errors.Errorf("chunk %s has edge %d, map uses %d", p.ToString(), c.Size(), m.chunkSize)
	}
	c.m = m
	m.chunks[i] = c
	return nil
}

// NewChunk creates an empty chunk whose height bounds are tracked as blocks are set.
func (m *Map) NewChunk(cX, cY, cZ int32) *Chunk {
	chunk := NewChunk(Int3{X: cX, Y: cY, Z: cZ}, NewVolume(m.chunkSize), NewHeightBounds(m.chunkSize))
	if err := m.SetChunk(chunk); err != nil {
		panic(err)
	}
	return chunk
}

// Chunks lists the present chunks in index order.
func (m *Map) Chunks() []*Chunk {
	chunks := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		if c != nil {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func (m *Map) Contains(x, y, z int32) bool {
	return x >= 0 && x < m.width*m.chunkSize && y >= 0 && y < m.height*m.chunkSize && z >= 0 && z < m.depth*m.chunkSize
}

func (m *Map) GetChunkFromBlock(x, y, z int32) *Chunk {
	if !m.Contains(x, y, z) {
		return nil
	}
	return m.GetChunk(x/m.chunkSize, y/m.chunkSize, z/m.chunkSize)
}

func (m *Map) GetGlobalBlock(x, y, z int32) (BlockID, bool) {
	chunk := m.GetChunkFromBlock(x, y, z)
	if chunk == nil {
		return Air, false
	}
	return chunk.GetLocalBlock(x%m.chunkSize, y%m.chunkSize, z%m.chunkSize)
}

// SetBlock writes a block in map coordinates. It reports false when no chunk holds the position.
func (m *Map) SetBlock(x, y, z int32, block BlockID) bool {
	chunk := m.GetChunkFromBlock(x, y, z)
	if chunk == nil {
		return false
	}
	chunk.SetBlock(x%m.chunkSize, y%m.chunkSize, z%m.chunkSize, block)
	return true
}

func (m *Map) IsSolidBlockAt(x, y, z int32, closed OpaquePredicate) bool {
	block, ok := m.GetGlobalBlock(x, y, z)
	return ok && closed(block)
}

func (m *Map) SetFloorAtHeight(yLevel int32, block BlockID) {
	for x := int32(0); x < m.width*m.chunkSize; x++ {
		for z := int32(0); z < m.depth*m.chunkSize; z++ {
			m.SetBlock(x, yLevel, z, block)
		}
	}
}

// WriteLayer prints one horizontal slice of the map, '#' for closed blocks.
func (m *Map) WriteLayer(w io.Writer, y int32, closed OpaquePredicate) error {
	for z := int32(0); z < m.depth*m.chunkSize; z++ {
		row := make([]byte, 0, m.width*m.chunkSize+1)
		for x := int32(0); x < m.width*m.chunkSize; x++ {
			if m.IsSolidBlockAt(x, y, z, closed) {
				row = append(row, '#')
			} else {
				row = append(row, ' ')
			}
		}
		row = append(row, '\n')
		if _, err := w.Write(row); err != nil {
			return errors.Wrap(err, "write layer")
		}
	}
	return nil
}

// MeshReport collects the outcome of a MeshAll call. A chunk is either in Meshes or in Failures.
type MeshReport struct {
	Meshes   map[Int3]*ChunkMesh
	Failures map[Int3]error
}

func (r *MeshReport) FaceCount() int {
	total := 0
	for _, mesh := range r.Meshes {
		total += mesh.FaceCount()
	}
	return total
}

func (r *MeshReport) TriangleCount() int {
	return r.FaceCount() * 2
}

// Positions returns the meshed chunk positions ordered by x, y, z.
func (r *MeshReport) Positions() []Int3 {
	positions := make([]Int3, 0, len(r.Meshes))
	for p := range r.Meshes {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return positions
}

// MeshAll meshes every chunk with at most workers chunks in flight. A contract violation
// only fails its own chunk; cancelling ctx stops the whole run.
func (m *Map) MeshAll(ctx context.Context, opts MeshOptions, workers int) (*MeshReport, error) {
	chunks := m.Chunks()
	meshes := make([]*ChunkMesh, len(chunks))
	failures := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mesh, err := chunk.Mesh(gctx, opts)
			if err != nil {
				if _, isViolation := AsContractViolation(err); isViolation {
					failures[i] = err
					return nil
				}
				return errors.Wrapf(err, "mesh chunk %s", chunk.Position().ToString())
			}
			meshes[i] = mesh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &MeshReport{
		Meshes:   make(map[Int3]*ChunkMesh, len(chunks)),
		Failures: make(map[Int3]error),
	}
	for i, chunk := range chunks {
		if failures[i] != nil {
			report.Failures[chunk.Position()] = failures[i]
			continue
		}
		report.Meshes[chunk.Position()] = meshes[i]
	}
	util.LogVoxelInfo(fmt.Sprintf("[Map] Meshed %d chunks (%d failed), %d triangles", len(report.Meshes), len(report.Failures), report.TriangleCount()))
	return report, nil
}

func (m *Map) SaveToDisk(filename string) error {
	outfile, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create map file")
	}
	if err := WriteMap(outfile, m); err != nil {
		outfile.Close()
		return errors.Wrapf(err, "save %s", filename)
	}
	if err := outfile.Close(); err != nil {
		return errors.Wrapf(err, "close %s", filename)
	}
	util.LogIOInfo(fmt.Sprintf("[Map] Saved %d chunks to %s", len(m.Chunks()), filename))
	return nil
}

func NewMapFromFile(filename string) (*Map, error) {
	infile, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open map file")
	}
	defer infile.Close()
	m, err := ReadMap(infile)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	util.LogIOInfo(fmt.Sprintf("[Map] Loaded map %s with %d chunks from %s", m.Dimensions().ToString(), len(m.Chunks()), filename))
	return m, nil
}
