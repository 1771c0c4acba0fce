package config

import (
	"os"
	"sort"

	"github.com/andrew-shc/Matrixagon2/engine/voxel"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "MESHER_CONFIG"

// Config is the root of the mesher configuration file.
type Config struct {
	Mesher   MesherConfig              `yaml:"mesher"`
	Fidelity map[string]FidelityConfig `yaml:"fidelity"`
	Terrain  TerrainConfig             `yaml:"terrain"`
	Log      LogConfig                 `yaml:"log"`
}

type MesherConfig struct {
	Fidelity     string `yaml:"fidelity"`
	Border       string `yaml:"border"`
	Workers      int    `yaml:"workers"`
	MergeRuns    bool   `yaml:"merge_runs"`
	VerifyBounds bool   `yaml:"verify_bounds"`
	FullScan     bool   `yaml:"full_scan"`
}

// FidelityConfig overrides a preset. Empty fields keep the built-in value.
type FidelityConfig struct {
	ChunkSize    int32    `yaml:"chunk_size"`
	ClosedBlocks []string `yaml:"closed_blocks"`
}

type TerrainConfig struct {
	Seed   int64  `yaml:"seed"`
	Chunks [3]int `yaml:"chunks"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Mesher: MesherConfig{
			Fidelity: voxel.FidelityHigh,
			Border:   voxel.BorderOpen.String(),
		},
		Fidelity: map[string]FidelityConfig{},
		Terrain: TerrainConfig{
			Seed:   50,
			Chunks: [3]int{4, 2, 4},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to $MESHER_CONFIG,
// and to the defaults alone when that is unset too.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ParseBorder(c.Mesher.Border); err != nil {
		return err
	}
	if c.Mesher.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Mesher.Workers)
	}
	for i, n := range c.Terrain.Chunks {
		if n < 1 {
			return errors.Errorf("terrain.chunks[%d] must be positive, got %d", i, n)
		}
	}
	return nil
}

func ParseBorder(name string) (voxel.BorderPolicy, error) {
	switch name {
	case "", voxel.BorderOpen.String():
		return voxel.BorderOpen, nil
	case voxel.BorderStitch.String():
		return voxel.BorderStitch, nil
	}
	return voxel.BorderOpen, errors.Errorf("unknown border policy %q", name)
}

// FidelityLevels returns the built-in presets with the file's overrides applied.
// A preset that only exists in the file needs both a chunk size and closed blocks.
func (c *Config) FidelityLevels(reg *voxel.Registry) (map[string]voxel.FidelityLevel, error) {
	levels := voxel.DefaultFidelityLevels(reg)
	names := make([]string, 0, len(c.Fidelity))
	for name := range c.Fidelity {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		override := c.Fidelity[name]
		base, exists := levels[name]
		size := base.ChunkSize
		if override.ChunkSize != 0 {
			size = override.ChunkSize
		}
		ids := base.ClosedIDs()
		if override.ClosedBlocks != nil {
			ids = ids[:0:0]
			for _, blockName := range override.ClosedBlocks {
				id, ok := reg.ByName(blockName)
				if !ok {
					return nil, errors.Errorf("fidelity %q: unknown block %q", name, blockName)
				}
				ids = append(ids, id)
			}
		}
		if !exists && (override.ChunkSize == 0 || override.ClosedBlocks == nil) {
			return nil, errors.Errorf("fidelity %q needs chunk_size and closed_blocks", name)
		}
		level := voxel.NewFidelityLevel(name, size, ids)
		if err := level.Validate(); err != nil {
			return nil, errors.Wrapf(err, "fidelity %q", name)
		}
		levels[name] = level
	}
	return levels, nil
}

// MeshOptions resolves the selected fidelity and policy into options for the mesher.
func (c *Config) MeshOptions(reg *voxel.Registry) (voxel.MeshOptions, error) {
	levels, err := c.FidelityLevels(reg)
	if err != nil {
		return voxel.MeshOptions{}, err
	}
	level, ok := levels[c.Mesher.Fidelity]
	if !ok {
		return voxel.MeshOptions{}, errors.Errorf("unknown fidelity %q", c.Mesher.Fidelity)
	}
	border, err := ParseBorder(c.Mesher.Border)
	if err != nil {
		return voxel.MeshOptions{}, err
	}
	return voxel.MeshOptions{
		Fidelity:     level,
		Border:       border,
		FullScan:     c.Mesher.FullScan,
		VerifyBounds: c.Mesher.VerifyBounds,
		MergeRuns:    c.Mesher.MergeRuns,
	}, nil
}
