package cull

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxel-terrain/internal/voxel"
)

// Plane is a half-space in (n, d) form; a point p is inside when
// dot(n, p) + d >= 0.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// CameraPlanes are the five planes the cull kernel tests, in uniform-upload
// order. The near plane is deliberately absent; far is tested.
type CameraPlanes [5]Plane

// Indices into CameraPlanes.
const (
	PlaneFar = iota
	PlaneLeft
	PlaneRight
	PlaneDown
	PlaneUp
)

// ExtractCameraPlanes derives the five camera planes from the combined
// projection*view matrix. Matrix is column-major as mgl32 stores it.
func ExtractCameraPlanes(clip mgl32.Mat4) CameraPlanes {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{clip[i], clip[4+i], clip[8+i], clip[12+i]}
	}
	r0, r1, r3 := row(0), row(1), row(3)
	r2 := row(2)

	return CameraPlanes{
		PlaneFar:   normalizePlane(r3.Sub(r2)),
		PlaneLeft:  normalizePlane(r3.Add(r0)),
		PlaneRight: normalizePlane(r3.Sub(r0)),
		PlaneDown:  normalizePlane(r3.Add(r1)),
		PlaneUp:    normalizePlane(r3.Sub(r1)),
	}
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := mgl32.Vec3{v.X(), v.Y(), v.Z()}
	length := n.Len()
	if length == 0 {
		return Plane{Normal: n, D: v.W()}
	}
	return Plane{Normal: n.Mul(1 / length), D: v.W() / length}
}

// normalVector returns the unit axis vector of a directional normal code.
func normalVector(normal uint8) mgl32.Vec3 {
	var v mgl32.Vec3
	sign := float32(1)
	if !voxel.NormalSign(normal) {
		sign = -1
	}
	v[voxel.AxisComponent(voxel.NormalAxis(normal))] = sign
	return v
}

// MeshVisible is the culling kernel's CPU reference: the exact orientation
// and frustum tests the compute shader runs per mesh. Padding meshes are
// never visible.
func MeshVisible(m voxel.Mesh, camera mgl32.Vec3, planes CameraPlanes) bool {
	normal := m.Normal()
	if normal == voxel.NormalNone || m.FaceCount() == 0 {
		return false
	}

	// Orientation: the whole mesh faces away when the camera sits behind
	// the plane of its nearest face layer.
	if normal < voxel.NormalAny {
		n := normalVector(normal)
		nearSide := m.Center.Sub(mulVec(n, m.Size))
		if nearSide.Sub(camera).Dot(n) > 0 {
			return false
		}
	}

	// Frustum: p-vertex test against each of the five planes.
	for _, p := range planes {
		closest := m.Center
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				closest[i] += m.Size[i]
			} else {
				closest[i] -= m.Size[i]
			}
		}
		if p.Normal.Dot(closest)+p.D < 0 {
			return false
		}
	}
	return true
}

// VisibleCount runs the reference kernel over a mesh table and returns how
// many meshes survive; mirrors the GPU counter for validation.
func VisibleCount(meshes []voxel.Mesh, camera mgl32.Vec3, planes CameraPlanes) int {
	n := 0
	for _, m := range meshes {
		if MeshVisible(m, camera, planes) {
			n++
		}
	}
	return n
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// DistanceToPlane is a helper for tests and debug overlays.
func DistanceToPlane(p Plane, point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}
