package meshing

import (
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"

	"voxel-terrain/internal/voxel"
)

// packPlane scans one 64x64 face plane and emits maximal rectangles, widest
// first, then extended greedily in height. Consumed bits are cleared so a
// cell is emitted exactly once and the plane ends up zeroed for reuse.
func packPlane(plane []uint64, emit func(x, y, width, height int)) {
	for y := 0; y < ChunkSize; y++ {
		row := plane[y]
		for row != 0 {
			x := bits.TrailingZeros64(row)
			width := bits.TrailingZeros64(^(row >> uint(x)))
			checkMask := (^uint64(0) >> uint(64-width)) << uint(x)

			height := 1
			for y+height < ChunkSize && plane[y+height]&checkMask == checkMask {
				plane[y+height] &^= checkMask
				height++
			}

			emit(x, y, width, height)
			row &^= checkMask
		}
		plane[y] = 0
	}
}

// rectFace converts a plane-local rectangle into a packed face plus the
// world-space AABB of the voxels it covers. The packed position shifts +1
// along the normal axis for positive normals so the quad sits on the cube
// boundary; the AABB always uses the unshifted voxel extent.
func rectFace(normal uint8, depth, x, y, width, height int, color uint8, baseX, baseY, baseZ int) (voxel.Face, mgl32.Vec3, mgl32.Vec3) {
	axis := voxel.NormalAxis(normal)
	vx, vy, vz := worldCoords(axis, depth, x, y, baseX, baseY, baseZ)

	ext := [3]int{}
	ext[voxel.AxisComponent(axis)] = 1
	widthAxis, heightAxis := voxel.FaceAxes(axis)
	ext[voxel.AxisComponent(widthAxis)] = width
	ext[voxel.AxisComponent(heightAxis)] = height

	minC := mgl32.Vec3{float32(vx), float32(vy), float32(vz)}
	maxC := mgl32.Vec3{
		minC[0] + float32(ext[0]),
		minC[1] + float32(ext[1]),
		minC[2] + float32(ext[2]),
	}

	px, py, pz := vx, vy, vz
	if voxel.NormalSign(normal) {
		switch axis {
		case voxel.AxisX:
			px++
		case voxel.AxisZ:
			pz++
		default:
			py++
		}
	}
	return voxel.PackFace(px, py, pz, width, height, normal, color), minC, maxC
}

// PackChunkPlanes runs the greedy packer over every dirty plane of the
// chunk, normal by normal, appending faces to the assembler and closing one
// part per normal. Plane order within a normal follows first-touch order
// from the extraction sweep, which is deterministic for a given store.
func PackChunkPlanes(p *PlaneSet, asm *Assembler, table *idTable, baseX, baseY, baseZ int) {
	for normal := uint8(0); normal < 6; normal++ {
		for _, ref := range p.dirty[normal] {
			color := table.ids[ref.idIdx]
			plane := p.plane(normal, ref.idIdx, int(ref.depth))
			packPlane(plane, func(x, y, width, height int) {
				f, minC, maxC := rectFace(normal, int(ref.depth), x, y, width, height, color, baseX, baseY, baseZ)
				asm.Append(f, minC, maxC)
			})
		}
		asm.CloseRun(normal)
	}
	p.reset()
}
