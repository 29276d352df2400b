package meshing

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-terrain/internal/config"
	"voxel-terrain/internal/voxel"
)

// storeFromCells builds a column store from explicit (x,y,z)->id cells.
func storeFromCells(sizeX, sizeZ, maxY int, cells map[[3]int]uint8) *voxel.ColumnStore {
	var voxels []voxel.Voxel
	start := make([]int32, sizeX*sizeZ+1)
	for x := 0; x < sizeX; x++ {
		for z := 0; z < sizeZ; z++ {
			start[x*sizeZ+z] = int32(len(voxels))
			for y := 0; y <= maxY; y++ {
				if id, ok := cells[[3]int{x, y, z}]; ok {
					voxels = append(voxels, voxel.Voxel{Y: int32(y), ID: id})
				}
			}
		}
	}
	start[sizeX*sizeZ] = int32(len(voxels))
	return voxel.NewColumnStore(sizeX, sizeZ, voxels, start)
}

func testSettings(threshold int, seenFromAbove bool) config.Settings {
	cfg := config.Default()
	cfg.MergeNormalsThreshold = threshold
	cfg.SeenFromAbove = seenFromAbove
	cfg.Workers = 2
	return cfg
}

func build(t *testing.T, store *voxel.ColumnStore, cfg config.Settings) *Result {
	t.Helper()
	res, err := BuildMeshes(context.Background(), store, cfg, IdentityMerger{})
	if err != nil {
		t.Fatalf("BuildMeshes: %v", err)
	}
	checkInvariants(t, res)
	return res
}

// checkInvariants asserts the universal mesh-table properties.
func checkInvariants(t *testing.T, res *Result) {
	t.Helper()
	sum := 0
	for _, m := range res.Meshes {
		fc := int(m.FaceCount())
		if fc < 1 || fc > voxel.MaxFacesPerMesh {
			t.Fatalf("mesh faceCount %d outside [1,%d]", fc, voxel.MaxFacesPerMesh)
		}
		for i := 0; i < fc; i++ {
			f := res.Faces[int(m.StartFace())+i]
			if m.Normal() != voxel.NormalAny && f.Normal() != m.Normal() {
				t.Fatalf("face normal %d inside mesh normal %d", f.Normal(), m.Normal())
			}
		}
		sum += fc
	}
	if sum != len(res.Faces) {
		t.Fatalf("face counts sum to %d, face table has %d", sum, len(res.Faces))
	}
}

func TestSingleVoxelSixFaces(t *testing.T) {
	store := storeFromCells(1, 1, 0, map[[3]int]uint8{{0, 0, 0}: 1})
	res := build(t, store, testSettings(0, false))

	if len(res.Faces) != 6 {
		t.Fatalf("faces: got %d, want 6", len(res.Faces))
	}
	if len(res.Meshes) != 6 {
		t.Fatalf("meshes: got %d, want 6", len(res.Meshes))
	}
	for i, m := range res.Meshes {
		if m.Normal() != uint8(i) {
			t.Fatalf("mesh %d: normal %d, want %d", i, m.Normal(), i)
		}
		if m.FaceCount() != 1 {
			t.Fatalf("mesh %d: faceCount %d, want 1", i, m.FaceCount())
		}
		if m.Center != (mgl32.Vec3{0.5, 0.5, 0.5}) || m.Size != (mgl32.Vec3{0.5, 0.5, 0.5}) {
			t.Fatalf("mesh %d bounds: center %v size %v", i, m.Center, m.Size)
		}
	}

	plusX := res.Faces[res.Meshes[voxel.NormalPosX].StartFace()]
	if plusX.X() != 1 || plusX.Y() != 0 || plusX.Z() != 0 ||
		plusX.Width() != 1 || plusX.Height() != 1 ||
		plusX.Normal() != voxel.NormalPosX || plusX.Color() != 1 {
		t.Fatalf("+x face: got (%d,%d,%d) %dx%d n=%d c=%d",
			plusX.X(), plusX.Y(), plusX.Z(), plusX.Width(), plusX.Height(), plusX.Normal(), plusX.Color())
	}
}

func TestFlatSlabMergesFaces(t *testing.T) {
	cells := map[[3]int]uint8{}
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			cells[[3]int{x, 0, z}] = 2
		}
	}
	store := storeFromCells(4, 4, 0, cells)

	// All normals merge into one any-normal mesh below the threshold: the
	// top and bottom collapse to a single 4x4 quad each, the four rims to
	// one strip per side.
	res := build(t, store, testSettings(256, false))
	if len(res.Meshes) != 1 {
		t.Fatalf("meshes: got %d, want 1 merged", len(res.Meshes))
	}
	if res.Meshes[0].Normal() != voxel.NormalAny {
		t.Fatalf("merged normal: got %d, want %d", res.Meshes[0].Normal(), voxel.NormalAny)
	}
	if len(res.Faces) != 6 {
		t.Fatalf("faces: got %d, want 6", len(res.Faces))
	}

	var top voxel.Face
	found := false
	for _, f := range res.Faces {
		if f.Normal() == voxel.NormalPosY {
			top, found = f, true
		}
	}
	if !found || top.Width() != 4 || top.Height() != 4 || top.Y() != 1 {
		t.Fatalf("top face: found=%v %dx%d y=%d, want 4x4 at y=1", found, top.Width(), top.Height(), top.Y())
	}
}

func TestFlatSlabSeenFromAbove(t *testing.T) {
	cells := map[[3]int]uint8{}
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			cells[[3]int{x, 0, z}] = 2
		}
	}
	store := storeFromCells(4, 4, 0, cells)

	// The bottom sits below every column's lowest cell and is skipped; the
	// rim faces border open sky and stay.
	res := build(t, store, testSettings(256, true))
	if len(res.Faces) != 5 {
		t.Fatalf("faces: got %d, want 5 (top + 4 rims)", len(res.Faces))
	}
	for _, f := range res.Faces {
		if f.Normal() == voxel.NormalNegY {
			t.Fatalf("bottom face survived the seen-from-above filter")
		}
	}
}

func TestAdjacentDifferentIDs(t *testing.T) {
	store := storeFromCells(2, 1, 0, map[[3]int]uint8{
		{0, 0, 0}: 1,
		{1, 0, 0}: 2,
	})
	res := build(t, store, testSettings(0, false))

	// The shared boundary is hidden from both sides; ids never merge, so
	// every remaining face is a unit quad.
	if len(res.Faces) != 10 {
		t.Fatalf("faces: got %d, want 10", len(res.Faces))
	}
	wantCounts := map[uint8]uint32{
		voxel.NormalPosX: 1, voxel.NormalNegX: 1,
		voxel.NormalPosZ: 2, voxel.NormalNegZ: 2,
		voxel.NormalPosY: 2, voxel.NormalNegY: 2,
	}
	for _, m := range res.Meshes {
		if m.FaceCount() != wantCounts[m.Normal()] {
			t.Fatalf("normal %d: faceCount %d, want %d", m.Normal(), m.FaceCount(), wantCounts[m.Normal()])
		}
	}
	for _, f := range res.Faces {
		if f.Width() != 1 || f.Height() != 1 {
			t.Fatalf("face %dx%d merged across ids", f.Width(), f.Height())
		}
		switch f.Normal() {
		case voxel.NormalPosX:
			if f.Color() != 2 {
				t.Fatalf("+x face color %d, want 2", f.Color())
			}
		case voxel.NormalNegX:
			if f.Color() != 1 {
				t.Fatalf("-x face color %d, want 1", f.Color())
			}
		}
	}
}

func TestColumnOfThree(t *testing.T) {
	store := storeFromCells(1, 1, 2, map[[3]int]uint8{
		{0, 0, 0}: 7,
		{0, 1, 0}: 7,
		{0, 2, 0}: 7,
	})
	res := build(t, store, testSettings(0, true))

	// Top plus four 1x3 side strips; the bottom is under the column's own
	// minimum and filtered.
	if len(res.Faces) != 5 {
		t.Fatalf("faces: got %d, want 5", len(res.Faces))
	}
	if len(res.Meshes) != 5 {
		t.Fatalf("meshes: got %d, want 5", len(res.Meshes))
	}

	for _, m := range res.Meshes {
		f := res.Faces[m.StartFace()]
		switch m.Normal() {
		case voxel.NormalPosY:
			if f.X() != 0 || f.Y() != 3 || f.Z() != 0 || f.Width() != 1 || f.Height() != 1 {
				t.Fatalf("top face: (%d,%d,%d) %dx%d", f.X(), f.Y(), f.Z(), f.Width(), f.Height())
			}
		case voxel.NormalNegY:
			t.Fatalf("bottom face survived the filter")
		default:
			if f.Width() != 1 || f.Height() != 3 {
				t.Fatalf("side strip normal %d: %dx%d, want 1x3", m.Normal(), f.Width(), f.Height())
			}
		}
	}
}

func TestBuriedSideFacesFiltered(t *testing.T) {
	// Low column at h=2 beside a tall one: the low column's face toward
	// the tall column at y=2 looks into trimmed ground and must vanish
	// when the filter is on, but survives with the filter off.
	height := []int{2, 4}
	ids := []uint8{1, 1}
	store := voxel.NewColumnStoreFromHeightmap(2, 1, height, ids)

	countToward := func(res *Result) int {
		n := 0
		for _, f := range res.Faces {
			if f.Normal() == voxel.NormalPosX && f.X() == 1 {
				n++
			}
		}
		return n
	}

	on := build(t, store, testSettings(0, true))
	if got := countToward(on); got != 0 {
		t.Fatalf("filtered run: %d buried +x faces, want 0", got)
	}
	off := build(t, store, testSettings(0, false))
	if got := countToward(off); got == 0 {
		t.Fatalf("unfiltered run lost the +x face entirely")
	}
}

func TestPackPlaneFullPlane(t *testing.T) {
	plane := make([]uint64, 64)
	for i := range plane {
		plane[i] = ^uint64(0)
	}
	var rects [][4]int
	packPlane(plane, func(x, y, w, h int) {
		rects = append(rects, [4]int{x, y, w, h})
	})
	if len(rects) != 1 || rects[0] != ([4]int{0, 0, 64, 64}) {
		t.Fatalf("full plane: got %v, want one 64x64 rect", rects)
	}
}

func TestPackPlaneWidthFirst(t *testing.T) {
	// An L shape: the first row is consumed at full width before height
	// extension is considered.
	plane := make([]uint64, 64)
	plane[0] = 0b1111
	plane[1] = 0b0011
	var rects [][4]int
	packPlane(plane, func(x, y, w, h int) {
		rects = append(rects, [4]int{x, y, w, h})
	})
	want := [][4]int{{0, 0, 4, 1}, {0, 1, 2, 1}}
	if len(rects) != 2 || rects[0] != want[0] || rects[1] != want[1] {
		t.Fatalf("L shape: got %v, want %v", rects, want)
	}
}

func TestPackPlaneTallStrip(t *testing.T) {
	plane := make([]uint64, 64)
	for y := 0; y < 6; y++ {
		plane[y] = 1 << 3
	}
	var rects [][4]int
	packPlane(plane, func(x, y, w, h int) {
		rects = append(rects, [4]int{x, y, w, h})
	})
	if len(rects) != 1 || rects[0] != ([4]int{3, 0, 1, 6}) {
		t.Fatalf("strip: got %v, want one 1x6 rect at x=3", rects)
	}
}

func TestPackPlaneCoverageDisjointMaximal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		original := make([]uint64, 64)
		for i := range original {
			original[i] = rng.Uint64() & rng.Uint64()
		}
		plane := make([]uint64, 64)
		copy(plane, original)

		covered := make([]uint64, 64)
		bit := func(src []uint64, x, y int) bool { return y >= 0 && y < 64 && x >= 0 && x < 64 && src[y]&(1<<uint(x)) != 0 }

		packPlane(plane, func(x, y, w, h int) {
			mask := (^uint64(0) >> uint(64-w)) << uint(x)
			for yy := y; yy < y+h; yy++ {
				if covered[yy]&mask != 0 {
					t.Fatalf("trial %d: rect (%d,%d,%d,%d) overlaps prior coverage", trial, x, y, w, h)
				}
				if original[yy]&mask != mask {
					t.Fatalf("trial %d: rect (%d,%d,%d,%d) covers empty cells", trial, x, y, w, h)
				}
				covered[yy] |= mask
			}
			// Maximality: one step wider or taller must hit a hole or the
			// plane edge.
			if x+w < 64 {
				widerOK := true
				for yy := y; yy < y+h; yy++ {
					if !bit(original, x+w, yy) {
						widerOK = false
						break
					}
				}
				// A wider rect is only illegal if the packer should have
				// taken it: width is decided on the first row alone.
				if widerOK && bit(original, x+w, y) && covered[y]&(1<<uint(x+w)) == 0 {
					t.Fatalf("trial %d: rect (%d,%d,%d,%d) not maximal in width", trial, x, y, w, h)
				}
			}
			if y+h < 64 {
				mask := (^uint64(0) >> uint(64-w)) << uint(x)
				if original[y+h]&mask == mask && covered[y+h]&mask == 0 {
					t.Fatalf("trial %d: rect (%d,%d,%d,%d) not maximal in height", trial, x, y, w, h)
				}
			}
		})

		for y := range covered {
			if covered[y] != original[y] {
				t.Fatalf("trial %d row %d: coverage %064b != original %064b", trial, y, covered[y], original[y])
			}
		}
	}
}

func TestDeterministicAcrossJobTiling(t *testing.T) {
	cells := map[[3]int]uint8{}
	rng := rand.New(rand.NewSource(7))
	for x := 0; x < 128; x++ {
		for z := 0; z < 128; z++ {
			cells[[3]int{x, rng.Intn(3), z}] = uint8(1 + rng.Intn(3))
		}
	}
	store := storeFromCells(128, 128, 2, cells)

	single := testSettings(256, true)
	split := testSettings(256, true)
	split.JobHorizontalSize = 64

	a := build(t, store, single)
	b := build(t, store, split)
	if len(a.Faces) != len(b.Faces) || len(a.Meshes) != len(b.Meshes) {
		t.Fatalf("tiling changed output shape: %d/%d faces, %d/%d meshes",
			len(a.Faces), len(b.Faces), len(a.Meshes), len(b.Meshes))
	}
	for i := range a.Faces {
		if a.Faces[i] != b.Faces[i] {
			t.Fatalf("face %d differs across job tilings", i)
		}
	}
	for i := range a.Meshes {
		if a.Meshes[i] != b.Meshes[i] {
			t.Fatalf("mesh %d differs across job tilings", i)
		}
	}
}
