package terrain

import (
	"context"
	"fmt"
	"math"

	"github.com/andrew-shc/Matrixagon2/engine/util"
	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/aquilax/go-perlin"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	SEA_LEVEL  = 10.0
	SAND_LEVEL = 13.0

	baseScale   = 20.0
	baseOffset  = 20.0
	floralScale = 40.0

	floralSeedOffset = 27
)

// Generator produces rolling grass hills with beaches, lakes at sea level and scattered flora.
// It is safe for concurrent use.
type Generator struct {
	noise  *perlin.Perlin
	floral *perlin.Perlin

	grassBlock voxel.BlockID
	dirt       voxel.BlockID
	stone      voxel.BlockID
	sand       voxel.BlockID
	grass      voxel.BlockID
	flower     voxel.BlockID
	water      voxel.BlockID
}

func NewGenerator(seed int64, reg *voxel.Registry) (*Generator, error) {
	g := &Generator{
		noise:  perlin.NewPerlin(2, 2, 3, seed),
		floral: perlin.NewPerlin(2, 2, 3, seed+floralSeedOffset),
	}
	for name, id := range map[string]*voxel.BlockID{
		"grass_block": &g.grassBlock,
		"dirt":        &g.dirt,
		"stone":       &g.stone,
		"sand":        &g.sand,
		"grass":       &g.grass,
		"flower":      &g.flower,
		"water":       &g.water,
	} {
		found, ok := reg.ByName(name)
		if !ok {
			return nil, errors.Errorf("terrain needs block %q", name)
		}
		*id = found
	}
	return g, nil
}

// BaseLevel is the height of the terrain surface at a map column.
func (g *Generator) BaseLevel(x, z float64) float64 {
	return g.noise.Noise2D(x/baseScale, z/baseScale)*baseScale + baseOffset
}

func (g *Generator) BlockAt(x, y, z int32) voxel.BlockID {
	fx, fy, fz := float64(x), float64(y), float64(z)
	base := g.BaseLevel(fx, fz)
	switch {
	case fy >= base+1:
		if fy <= SEA_LEVEL {
			return g.water
		}
		return voxel.Air
	case fy >= base:
		if fy <= SEA_LEVEL {
			return g.water
		}
		floralness := g.floral.Noise2D(fx/floralScale, fz/floralScale)
		if floralness >= 0.84 && floralness <= 0.86 {
			return g.flower
		}
		if floralness >= 0.8 && floralness <= 0.9 {
			return g.grass
		}
		return voxel.Air
	case fy <= SAND_LEVEL:
		return g.sand
	case fy >= base-1:
		return g.grassBlock
	case fy >= base-3:
		return g.dirt
	default:
		return g.stone
	}
}

// GenerateChunk fills one chunk and records the height bounds of every non-air block while filling,
// so the mesher never has to derive them.
func (g *Generator) GenerateChunk(position voxel.Int3, size int32) *voxel.Chunk {
	volume := voxel.NewVolume(size)
	bounds := voxel.NewHeightBounds(size)
	origin := position.Mul(size)
	for z := int32(0); z < size; z++ {
		for x := int32(0); x < size; x++ {
			top := int32(math.Max(g.BaseLevel(float64(origin.X+x), float64(origin.Z+z))+1, SEA_LEVEL)) + 1
			top = min(top-origin.Y, size-1)
			for y := int32(0); y <= top; y++ {
				block := g.BlockAt(origin.X+x, origin.Y+y, origin.Z+z)
				if block.IsAir() {
					continue
				}
				volume.Set(x, y, z, block)
				bounds.Include(x, y, z)
			}
		}
	}
	return voxel.NewChunk(position, volume, bounds)
}

// GenerateMap fills every chunk position of m, at most workers chunks at a time.
func (g *Generator) GenerateMap(ctx context.Context, m *voxel.Map, workers int) error {
	dims := m.Dimensions()
	size := m.ChunkSize()
	chunks := make([]*voxel.Chunk, dims.X*dims.Y*dims.Z)

	eg, egctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	i := 0
	for cX := int32(0); cX < dims.X; cX++ {
		for cY := int32(0); cY < dims.Y; cY++ {
			for cZ := int32(0); cZ < dims.Z; cZ++ {
				index, position := i, voxel.Int3{X: cX, Y: cY, Z: cZ}
				i++
				eg.Go(func() error {
					if err := egctx.Err(); err != nil {
						return err
					}
					chunks[index] = g.GenerateChunk(position, size)
					return nil
				})
			}
		}
	}
	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "generate terrain")
	}
	for _, chunk := range chunks {
		if err := m.SetChunk(chunk); err != nil {
			return err
		}
	}
	util.LogVoxelInfo(fmt.Sprintf("[Terrain] Generated %d chunks of edge %d", len(chunks), size))
	return nil
}
