package voxel

import (
	"errors"
	"math"
	"testing"
)

func TestHeightmapTrimsHiddenCells(t *testing.T) {
	// Two columns: a low one at h=2 next to a tall one at h=4. The tall
	// column keeps its side cells above the low surface, nothing deeper.
	height := []int{2, 4}
	ids := []uint8{1, 1}
	s := NewColumnStoreFromHeightmap(2, 1, height, ids)

	col0 := s.GetColumn(0, 0)
	if len(col0) != 1 || col0[0].Y != 2 {
		t.Fatalf("low column: got %v, want surface cell y=2 only", col0)
	}
	col1 := s.GetColumn(1, 0)
	if len(col1) != 2 || col1[0].Y != 3 || col1[1].Y != 4 {
		t.Fatalf("tall column: got %v, want cells y=3,4", col1)
	}
}

func TestHeightmapFlatWorld(t *testing.T) {
	// A flat world stores exactly one surface cell per column.
	height := make([]int, 9)
	ids := make([]uint8, 9)
	for i := range height {
		height[i] = 7
		ids[i] = 3
	}
	s := NewColumnStoreFromHeightmap(3, 3, height, ids)
	if s.NumVoxels() != 9 {
		t.Fatalf("flat world: stored %d cells, want 9", s.NumVoxels())
	}
	if got := s.GetVoxel(1, 7, 1); got != 3 {
		t.Fatalf("surface id: got %d, want 3", got)
	}
	if got := s.GetVoxel(1, 6, 1); got != 0 {
		t.Fatalf("interior cell should be trimmed, got id %d", got)
	}
}

func TestColumnQueries(t *testing.T) {
	voxels := []Voxel{{Y: 3, ID: 9}, {Y: 4, ID: 9}, {Y: 10, ID: 2}}
	start := []int32{0, 3, 3}
	s := NewColumnStore(2, 1, voxels, start)

	if got := s.GetMin(0, 0); got != 3 {
		t.Fatalf("GetMin: got %d, want 3", got)
	}
	if got := s.GetMax(0, 0); got != 10 {
		t.Fatalf("GetMax: got %d, want 10", got)
	}
	if got := s.GetVoxel(0, 4, 0); got != 9 {
		t.Fatalf("GetVoxel present: got %d, want 9", got)
	}
	if got := s.GetVoxel(0, 5, 0); got != 0 {
		t.Fatalf("GetVoxel absent: got %d, want 0", got)
	}
	if got := s.GetMin(1, 0); got != math.MaxInt32 {
		t.Fatalf("GetMin empty: got %d, want MaxInt32", got)
	}
	if got := s.GetMax(1, 0); got != math.MinInt32 {
		t.Fatalf("GetMax empty: got %d, want MinInt32", got)
	}
}

func TestValidateRejectsBadData(t *testing.T) {
	cases := []struct {
		name   string
		store  *ColumnStore
	}{
		{"zero id", NewColumnStore(1, 1, []Voxel{{Y: 0, ID: 0}}, []int32{0, 1})},
		{"unsorted column", NewColumnStore(1, 1, []Voxel{{Y: 5, ID: 1}, {Y: 4, ID: 1}}, []int32{0, 2})},
		{"duplicate y", NewColumnStore(1, 1, []Voxel{{Y: 5, ID: 1}, {Y: 5, ID: 2}}, []int32{0, 2})},
		{"y out of range", NewColumnStore(1, 1, []Voxel{{Y: 512, ID: 1}}, []int32{0, 1})},
		{"negative y", NewColumnStore(1, 1, []Voxel{{Y: -1, ID: 1}}, []int32{0, 1})},
		{"short prefix", NewColumnStore(2, 1, []Voxel{{Y: 0, ID: 1}}, []int32{0, 1})},
		{"prefix not spanning", NewColumnStore(1, 1, []Voxel{{Y: 0, ID: 1}}, []int32{0, 0})},
		{"prefix not monotone", NewColumnStore(2, 1, []Voxel{{Y: 0, ID: 1}}, []int32{0, 1, 0})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.store.Validate()
			if !errors.Is(err, ErrData) {
				t.Fatalf("Validate: got %v, want ErrData", err)
			}
		})
	}
}

func TestValidateAcceptsGoodData(t *testing.T) {
	s := NewColumnStoreFromHeightmap(4, 4, make8(16, 5), make8ids(16, 2))
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func make8(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func make8ids(n int, v uint8) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = v
	}
	return out
}
