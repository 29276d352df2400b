package voxel

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Face is one axis-aligned quad packed into 8 bytes, matching the GPU face
// buffer layout bit for bit:
//
//	Lo: x:13 | z:13 (6 bits spare)
//	Hi: y:9 | width-1:6 | height-1:6 | normal:3 | color:8
//
// The stored position is the corner of the quad's minimum voxel, shifted +1
// along the normal axis for positive normals so the quad lies on the cube
// boundary.
type Face struct {
	Lo, Hi uint32
}

// PackFace packs a quad. Width and height run along the two axes orthogonal
// to the normal (see FaceAxes) and must be in [1,64].
func PackFace(x, y, z, width, height int, normal, color uint8) Face {
	return Face{
		Lo: uint32(x) | uint32(z)<<13,
		Hi: uint32(y) | uint32(width-1)<<9 | uint32(height-1)<<15 | uint32(normal)<<21 | uint32(color)<<24,
	}
}

// X returns the packed x coordinate.
func (f Face) X() int { return int(f.Lo & 0x1FFF) }

// Z returns the packed z coordinate.
func (f Face) Z() int { return int(f.Lo >> 13 & 0x1FFF) }

// Y returns the packed y coordinate.
func (f Face) Y() int { return int(f.Hi & 0x1FF) }

// Width returns the quad extent along the width axis, in [1,64].
func (f Face) Width() int { return int(f.Hi>>9&0x3F) + 1 }

// Height returns the quad extent along the height axis, in [1,64].
func (f Face) Height() int { return int(f.Hi>>15&0x3F) + 1 }

// Normal returns the 3-bit normal code.
func (f Face) Normal() uint8 { return uint8(f.Hi >> 21 & 0x7) }

// Color returns the 8-bit merge identifier the quad was emitted for.
func (f Face) Color() uint8 { return uint8(f.Hi >> 24) }

// Mesh is one entry of the GPU mesh table, 32 bytes:
//
//	center float3 | data1 = normal:3 | faceCount<<3
//	size   float3 | data2 = startFace
//
// The mesh's faces occupy [startFace, startFace+faceCount) in the global
// face table; center±size bounds every voxel the faces cover.
type Mesh struct {
	Center mgl32.Vec3
	Data1  uint32
	Size   mgl32.Vec3
	Data2  uint32
}

// PackMesh packs a mesh table entry. faceCount must fit in 29 bits.
func PackMesh(center, size mgl32.Vec3, normal uint8, faceCount, startFace uint32) Mesh {
	return Mesh{
		Center: center,
		Data1:  uint32(normal) | faceCount<<3,
		Size:   size,
		Data2:  startFace,
	}
}

// Normal returns the mesh normal code (0..5 directional, 6 any, 7 none).
func (m Mesh) Normal() uint8 { return uint8(m.Data1 & 0x7) }

// FaceCount returns the number of faces the mesh draws.
func (m Mesh) FaceCount() uint32 { return m.Data1 >> 3 }

// StartFace returns the mesh's offset into the global face table.
func (m Mesh) StartFace() uint32 { return m.Data2 }

// PaddingMesh returns an entry that pads the mesh table to the culling
// group size: normal "none", zero faces, zero extent so it can never pass
// the frustum test.
func PaddingMesh() Mesh {
	return PackMesh(mgl32.Vec3{}, mgl32.Vec3{}, NormalNone, 0, 0)
}
