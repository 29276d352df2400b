package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voxel-terrain/internal/voxel"
)

// ErrInvalid marks configuration that cannot produce a working pipeline.
// It is fatal at construction; nothing is meshed with a bad config.
var ErrInvalid = errors.New("invalid configuration")

// Settings holds the meshing and culling tunables.
type Settings struct {
	// MaxHorizontalSize is the mesh-tile width in columns: the horizontal
	// region that becomes one directional-mesh family. Performs best as a
	// multiple of 64.
	MaxHorizontalSize int `yaml:"maxHorizontalSize"`

	// MergeNormalsThreshold merges a tile's six directional meshes into one
	// any-normal mesh when the tile's total face count stays below it.
	MergeNormalsThreshold int `yaml:"mergeNormalsThreshold"`

	// JobHorizontalSize is the parallel-tile width in columns; 0 means one
	// job for the whole world. Best as a multiple of MaxHorizontalSize.
	JobHorizontalSize int `yaml:"jobHorizontalSize"`

	// Workers is the meshing worker count; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// SeenFromAbove enables the terrain filter that skips faces the camera
	// can never observe: a face is dropped when its neighbor cell lies below
	// the lowest stored cell of that neighbor's column. Faces toward empty or
	// out-of-range columns are kept.
	SeenFromAbove bool `yaml:"seenFromAbove"`

	// QuadsInterleaving scales the distance-proportional quad inflation that
	// hides 1-pixel seams between abutting quads.
	QuadsInterleaving float32 `yaml:"quadsInterleaving"`
}

// Default returns the settings the renderer ships with.
func Default() Settings {
	return Settings{
		MaxHorizontalSize:     64,
		MergeNormalsThreshold: 256,
		JobHorizontalSize:     0,
		Workers:               0,
		SeenFromAbove:         true,
		QuadsInterleaving:     1.0,
	}
}

// Load reads settings from a YAML file, applying defaults for absent keys.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate rejects tunables the pipeline cannot honor.
func (s Settings) Validate() error {
	if s.MaxHorizontalSize <= 0 {
		return fmt.Errorf("%w: maxHorizontalSize must be positive, got %d", ErrInvalid, s.MaxHorizontalSize)
	}
	if s.MergeNormalsThreshold < 0 {
		return fmt.Errorf("%w: mergeNormalsThreshold must not be negative, got %d", ErrInvalid, s.MergeNormalsThreshold)
	}
	if s.MergeNormalsThreshold > voxel.MaxFacesPerMesh {
		return fmt.Errorf("%w: mergeNormalsThreshold %d exceeds per-mesh face cap %d",
			ErrInvalid, s.MergeNormalsThreshold, voxel.MaxFacesPerMesh)
	}
	if s.JobHorizontalSize < 0 {
		return fmt.Errorf("%w: jobHorizontalSize must not be negative, got %d", ErrInvalid, s.JobHorizontalSize)
	}
	if s.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, s.Workers)
	}
	if s.QuadsInterleaving < 0 {
		return fmt.Errorf("%w: quadsInterleaving must not be negative, got %v", ErrInvalid, s.QuadsInterleaving)
	}
	return nil
}
