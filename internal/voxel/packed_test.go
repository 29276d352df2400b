package voxel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPackFaceRoundTrip(t *testing.T) {
	cases := []struct {
		name                string
		x, y, z, w, h       int
		normal, color       uint8
	}{
		{"origin unit", 0, 0, 0, 1, 1, NormalNegY, 1},
		{"plus x example", 1, 0, 0, 1, 1, NormalPosX, 1},
		{"max coords", 8191, 511, 8191, 64, 64, NormalNegZ, 255},
		{"mixed", 4097, 300, 33, 17, 5, NormalAny, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := PackFace(tc.x, tc.y, tc.z, tc.w, tc.h, tc.normal, tc.color)
			if f.X() != tc.x || f.Y() != tc.y || f.Z() != tc.z {
				t.Fatalf("position: got (%d,%d,%d), want (%d,%d,%d)", f.X(), f.Y(), f.Z(), tc.x, tc.y, tc.z)
			}
			if f.Width() != tc.w || f.Height() != tc.h {
				t.Fatalf("extent: got %dx%d, want %dx%d", f.Width(), f.Height(), tc.w, tc.h)
			}
			if f.Normal() != tc.normal || f.Color() != tc.color {
				t.Fatalf("normal/color: got %d/%d, want %d/%d", f.Normal(), f.Color(), tc.normal, tc.color)
			}
		})
	}
}

func TestPackFaceExhaustiveCorners(t *testing.T) {
	// Walk every field through its extreme values against the others held
	// at a non-trivial value.
	for _, x := range []int{0, 1, 8191} {
		for _, y := range []int{0, 511} {
			for _, w := range []int{1, 64} {
				for normal := uint8(0); normal < 8; normal++ {
					f := PackFace(x, y, 77, w, 65-w, normal, 42)
					if f.X() != x || f.Y() != y || f.Z() != 77 || f.Width() != w || f.Height() != 65-w || f.Normal() != normal || f.Color() != 42 {
						t.Fatalf("round trip failed for x=%d y=%d w=%d normal=%d", x, y, w, normal)
					}
				}
			}
		}
	}
}

func TestPackMeshRoundTrip(t *testing.T) {
	center := mgl32.Vec3{10.5, -3, 2048}
	size := mgl32.Vec3{32, 16, 32}
	m := PackMesh(center, size, NormalPosY, 1<<29-1, 1<<32-1)
	if m.Center != center || m.Size != size {
		t.Fatalf("center/size: got %v/%v", m.Center, m.Size)
	}
	if m.Normal() != NormalPosY {
		t.Fatalf("normal: got %d, want %d", m.Normal(), NormalPosY)
	}
	if m.FaceCount() != 1<<29-1 {
		t.Fatalf("faceCount: got %d, want %d", m.FaceCount(), 1<<29-1)
	}
	if m.StartFace() != 1<<32-1 {
		t.Fatalf("startFace: got %d, want %d", m.StartFace(), uint32(1<<32-1))
	}
}

func TestPaddingMeshNeverDraws(t *testing.T) {
	p := PaddingMesh()
	if p.Normal() != NormalNone || p.FaceCount() != 0 {
		t.Fatalf("padding mesh: normal=%d faceCount=%d", p.Normal(), p.FaceCount())
	}
	if p.Size != (mgl32.Vec3{}) {
		t.Fatalf("padding mesh must have zero extent, got %v", p.Size)
	}
}
