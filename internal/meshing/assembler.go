package meshing

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-terrain/internal/voxel"
)

// ErrCapacity reports an assembler counter overflow. The cap splitting keeps
// this from happening in practice; hitting it is a bug and the caller fails
// the publish while keeping the previous mesh set.
var ErrCapacity = errors.New("face capacity exceeded")

// part is one contiguous face range of a mesh, linked into a list so a mesh
// can grow across chunks without moving faces. next = -1 terminates.
type part struct {
	start, end int32
	next       int32
}

// head tracks the mesh currently growing for one normal: the newest part,
// the running face count and the voxel bounds accumulated so far.
type head struct {
	first     int32
	faceCount int
	hasBounds bool
	min, max  mgl32.Vec3
}

// tileMesh is a finished mesh of one tile, still referencing tile-local
// parts; the driver flattens it into the global tables.
type tileMesh struct {
	normal    uint8
	faceCount int
	firstPart int32
	min, max  mgl32.Vec3
}

// Assembler groups the faces of one mesh tile into meshes: one head per
// normal, parts prepended per chunk, split at the per-mesh face cap, and a
// final collapse into a single any-normal mesh when the tile stays below
// the merge threshold.
type Assembler struct {
	threshold int

	faces []voxel.Face
	parts []part
	heads [6]head

	closed []tileMesh

	runStart  int32
	runHas    bool
	runMin    mgl32.Vec3
	runMax    mgl32.Vec3
}

// NewAssembler creates a tile assembler with the given merge threshold.
func NewAssembler(threshold int) *Assembler {
	a := &Assembler{threshold: threshold}
	for i := range a.heads {
		a.heads[i].first = -1
	}
	return a
}

// Append adds one face of the current run together with the world AABB of
// the voxels it covers.
func (a *Assembler) Append(f voxel.Face, minC, maxC mgl32.Vec3) {
	a.faces = append(a.faces, f)
	if !a.runHas {
		a.runMin, a.runMax = minC, maxC
		a.runHas = true
		return
	}
	a.runMin = vecMin(a.runMin, minC)
	a.runMax = vecMax(a.runMax, maxC)
}

// CloseRun turns the faces appended since the previous close into one part
// of the given normal's mesh. A part that would push the mesh past the face
// cap is split at exactly cap-previous faces: the first segment closes the
// current mesh, the overflow seeds a new mesh with the same normal and the
// accumulated bounds.
func (a *Assembler) CloseRun(normal uint8) {
	start := a.runStart
	end := int32(len(a.faces))
	a.runStart = end
	if start == end {
		return
	}

	h := &a.heads[normal]
	if h.hasBounds {
		h.min = vecMin(h.min, a.runMin)
		h.max = vecMax(h.max, a.runMax)
	} else {
		h.min, h.max = a.runMin, a.runMax
		h.hasBounds = true
	}
	a.runHas = false

	n := int(end - start)
	for h.faceCount+n > voxel.MaxFacesPerMesh {
		take := voxel.MaxFacesPerMesh - h.faceCount
		if take > 0 {
			a.prepend(h, start, start+int32(take))
			h.faceCount += take
			start += int32(take)
			n -= take
		}
		a.closed = append(a.closed, tileMesh{
			normal:    normal,
			faceCount: h.faceCount,
			firstPart: h.first,
			min:       h.min,
			max:       h.max,
		})
		h.first = -1
		h.faceCount = 0
	}
	if n > 0 {
		a.prepend(h, start, end)
		h.faceCount += n
	}
}

func (a *Assembler) prepend(h *head, start, end int32) {
	a.parts = append(a.parts, part{start: start, end: end, next: h.first})
	h.first = int32(len(a.parts) - 1)
}

// Finish closes the tile: when the tile's total emitted face count stays
// below the merge threshold, the six heads collapse into one any-normal
// mesh whose bounds are the union; otherwise each non-empty head becomes
// its own directional mesh. The total includes meshes already closed by a
// cap split, so a tile that split can never merge. Returns the tile's
// meshes in emission order.
func (a *Assembler) Finish() []tileMesh {
	open := 0
	for i := range a.heads {
		open += a.heads[i].faceCount
	}
	if open == 0 {
		return a.closed
	}

	total := open
	for _, m := range a.closed {
		total += m.faceCount
	}
	if total < a.threshold {
		merged := tileMesh{normal: voxel.NormalAny, firstPart: -1, faceCount: total}
		var tail int32 = -1
		first := true
		for n := range a.heads {
			h := &a.heads[n]
			if h.first < 0 {
				continue
			}
			if merged.firstPart < 0 {
				merged.firstPart = h.first
			} else {
				a.parts[tail].next = h.first
			}
			t := h.first
			for a.parts[t].next >= 0 {
				t = a.parts[t].next
			}
			tail = t
			if first {
				merged.min, merged.max = h.min, h.max
				first = false
			} else {
				merged.min = vecMin(merged.min, h.min)
				merged.max = vecMax(merged.max, h.max)
			}
		}
		a.closed = append(a.closed, merged)
		return a.closed
	}

	for n := range a.heads {
		h := &a.heads[n]
		if h.faceCount == 0 {
			continue
		}
		a.closed = append(a.closed, tileMesh{
			normal:    uint8(n),
			faceCount: h.faceCount,
			firstPart: h.first,
			min:       h.min,
			max:       h.max,
		})
	}
	return a.closed
}

// appendMeshFaces flattens a mesh's part list head-first into dst and
// returns the extended slice.
func (a *Assembler) appendMeshFaces(dst []voxel.Face, m tileMesh) []voxel.Face {
	for pi := m.firstPart; pi >= 0; pi = a.parts[pi].next {
		p := a.parts[pi]
		dst = append(dst, a.faces[p.start:p.end]...)
	}
	return dst
}

func vecMin(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := range a {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func vecMax(a, b mgl32.Vec3) mgl32.Vec3 {
	for i := range a {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}
