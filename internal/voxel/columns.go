package voxel

import (
	"errors"
	"fmt"
	"math"
)

// ErrData marks invalid voxel input data: unsorted columns, zero ids, or
// coordinates that would overflow the packed face fields. Publishing rejects
// such stores before meshing starts.
var ErrData = errors.New("invalid voxel data")

// ColumnStore is a read-only sparse voxel container. Column (x,z) occupies
// voxels[start[k]:start[k+1]] with k = x*sizeZ+z, sorted ascending by y.
// The generator supplies columns pre-trimmed: only cells at or near the
// surface are present, which is what the seen-from-above filter relies on.
type ColumnStore struct {
	sizeX, sizeZ int
	voxels       []Voxel
	start        []int32
}

// NewColumnStore wraps pre-built column data. It does not validate; call
// Validate before publishing externally supplied data.
func NewColumnStore(sizeX, sizeZ int, voxels []Voxel, start []int32) *ColumnStore {
	return &ColumnStore{sizeX: sizeX, sizeZ: sizeZ, voxels: voxels, start: start}
}

// NewColumnStoreFromHeightmap builds a trimmed store from a surface
// heightmap. For each column with surface height h the emitted range is
// [hN+1, h] where hN is the minimum surface height over the 4-neighborhood,
// out-of-range neighbors counting as h-1. That keeps every face reachable
// from above or from the sides while storing no hidden interior cells.
// height and id are indexed x*sizeZ+z.
func NewColumnStoreFromHeightmap(sizeX, sizeZ int, height []int, id []uint8) *ColumnStore {
	heightAt := func(x, z, fallback int) int {
		if x < 0 || x >= sizeX || z < 0 || z >= sizeZ {
			return fallback
		}
		return height[x*sizeZ+z]
	}

	start := make([]int32, sizeX*sizeZ+1)
	var voxels []Voxel
	for x := 0; x < sizeX; x++ {
		for z := 0; z < sizeZ; z++ {
			k := x*sizeZ + z
			start[k] = int32(len(voxels))
			h := height[k]
			hN := h - 1
			for _, n := range [4][2]int{{x - 1, z}, {x + 1, z}, {x, z - 1}, {x, z + 1}} {
				if nh := heightAt(n[0], n[1], h-1); nh < hN {
					hN = nh
				}
			}
			for y := hN + 1; y <= h; y++ {
				voxels = append(voxels, Voxel{Y: int32(y), ID: id[k]})
			}
		}
	}
	start[sizeX*sizeZ] = int32(len(voxels))
	return &ColumnStore{sizeX: sizeX, sizeZ: sizeZ, voxels: voxels, start: start}
}

// SizeX returns the world footprint in columns along x.
func (s *ColumnStore) SizeX() int { return s.sizeX }

// SizeZ returns the world footprint in columns along z.
func (s *ColumnStore) SizeZ() int { return s.sizeZ }

// NumVoxels returns the total stored cell count.
func (s *ColumnStore) NumVoxels() int { return len(s.voxels) }

// GetColumn returns the (y,id) pairs of column (x,z), sorted ascending by y.
// The slice aliases the store and must not be mutated.
func (s *ColumnStore) GetColumn(x, z int) []Voxel {
	k := x*s.sizeZ + z
	return s.voxels[s.start[k]:s.start[k+1]]
}

// GetVoxel returns the id at (x,y,z), or 0 when the cell is absent.
// Callers are expected to bounds-check x and z.
func (s *ColumnStore) GetVoxel(x, y, z int) uint8 {
	for _, v := range s.GetColumn(x, z) {
		if int(v.Y) == y {
			return v.ID
		}
		if int(v.Y) > y {
			break
		}
	}
	return 0
}

// GetMin returns the lowest stored y of column (x,z), or math.MaxInt32 when
// the column is empty.
func (s *ColumnStore) GetMin(x, z int) int {
	col := s.GetColumn(x, z)
	if len(col) == 0 {
		return math.MaxInt32
	}
	return int(col[0].Y)
}

// GetMax returns the highest stored y of column (x,z), or math.MinInt32 when
// the column is empty.
func (s *ColumnStore) GetMax(x, z int) int {
	col := s.GetColumn(x, z)
	if len(col) == 0 {
		return math.MinInt32
	}
	return int(col[len(col)-1].Y)
}

// Validate checks the publish preconditions: prefix length and monotonicity,
// strictly increasing y per column, non-zero ids, and coordinates inside the
// packed bit-field ranges.
func (s *ColumnStore) Validate() error {
	if s.sizeX <= 0 || s.sizeZ <= 0 {
		return fmt.Errorf("%w: footprint %dx%d", ErrData, s.sizeX, s.sizeZ)
	}
	if s.sizeX > MaxCoordXZ+1 || s.sizeZ > MaxCoordXZ+1 {
		return fmt.Errorf("%w: footprint %dx%d exceeds packed coordinate range", ErrData, s.sizeX, s.sizeZ)
	}
	if len(s.start) != s.sizeX*s.sizeZ+1 {
		return fmt.Errorf("%w: start index length %d, want %d", ErrData, len(s.start), s.sizeX*s.sizeZ+1)
	}
	if s.start[0] != 0 || int(s.start[len(s.start)-1]) != len(s.voxels) {
		return fmt.Errorf("%w: start index does not span voxel array", ErrData)
	}
	for k := 1; k < len(s.start); k++ {
		if s.start[k] < s.start[k-1] {
			return fmt.Errorf("%w: start index not monotone at column %d", ErrData, k)
		}
	}
	for x := 0; x < s.sizeX; x++ {
		for z := 0; z < s.sizeZ; z++ {
			col := s.GetColumn(x, z)
			for i, v := range col {
				if v.ID == 0 {
					return fmt.Errorf("%w: zero id at column (%d,%d) y=%d", ErrData, x, z, v.Y)
				}
				if v.Y < 0 || v.Y > MaxCoordY {
					return fmt.Errorf("%w: y=%d at column (%d,%d) outside [0,%d]", ErrData, v.Y, x, z, MaxCoordY)
				}
				if i > 0 && col[i-1].Y >= v.Y {
					return fmt.Errorf("%w: column (%d,%d) not sorted at y=%d", ErrData, x, z, v.Y)
				}
			}
		}
	}
	return nil
}
