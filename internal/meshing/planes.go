package meshing

import (
	"math"
	"math/bits"

	"voxel-terrain/internal/voxel"
)

// idTable maps merge identifiers to dense plane indices. Built once per job
// tile by scanning the tile's columns; at most 256 entries.
type idTable struct {
	index [256]int16
	ids   []uint8
}

func newIDTable() *idTable {
	t := &idTable{}
	for i := range t.index {
		t.index[i] = -1
	}
	return t
}

func (t *idTable) add(id uint8) {
	if id != 0 && t.index[id] < 0 {
		t.index[id] = int16(len(t.ids))
		t.ids = append(t.ids, id)
	}
}

// planeRef addresses one dirty face plane within a normal group.
type planeRef struct {
	idIdx int16
	depth uint8
}

// PlaneSet holds the per-(normal, id, depth) face planes of the active
// chunk: plane row rowY is a 64-bit word whose bits run along the width
// axis. The backing array is allocated once per job tile; the greedy packer
// consumes (and thereby clears) every bit it reads, so no explicit wipe is
// needed between chunks.
type PlaneSet struct {
	idCount int
	words   []uint64
	marked  []bool
	dirty   [6][]planeRef
}

// NewPlaneSet sizes the plane scratch for a job tile's id count.
func NewPlaneSet(idCount int) *PlaneSet {
	return &PlaneSet{
		idCount: idCount,
		words:   make([]uint64, 6*idCount*ChunkSize*ChunkSize),
		marked:  make([]bool, 6*idCount*ChunkSize),
	}
}

// plane returns the 64-row window of one face plane.
func (p *PlaneSet) plane(normal uint8, idIdx int16, depth int) []uint64 {
	base := (((int(normal)*p.idCount + int(idIdx)) * ChunkSize) + depth) * ChunkSize
	return p.words[base : base+ChunkSize]
}

func (p *PlaneSet) set(normal uint8, idIdx int16, depth, rowY, rowX int) {
	p.plane(normal, idIdx, depth)[rowY] |= 1 << uint(rowX)
	pi := (int(normal)*p.idCount+int(idIdx))*ChunkSize + depth
	if !p.marked[pi] {
		p.marked[pi] = true
		p.dirty[normal] = append(p.dirty[normal], planeRef{idIdx: idIdx, depth: uint8(depth)})
	}
}

// reset drops the dirty bookkeeping after a chunk's planes were packed.
func (p *PlaneSet) reset() {
	for n := range p.dirty {
		for _, ref := range p.dirty[n] {
			p.marked[(n*p.idCount+int(ref.idIdx))*ChunkSize+int(ref.depth)] = false
		}
		p.dirty[n] = p.dirty[n][:0]
	}
}

// worldCoords maps a plane-local position back to the world voxel it marks.
func worldCoords(axis, depth, rowX, rowY, baseX, baseY, baseZ int) (x, y, z int) {
	switch axis {
	case voxel.AxisX:
		return baseX + depth, baseY + rowY, baseZ + rowX
	case voxel.AxisZ:
		return baseX + rowX, baseY + rowY, baseZ + depth
	default:
		return baseX + rowX, baseY + depth, baseZ + rowY
	}
}

var axisDelta = [3][3]int{
	voxel.AxisX: {1, 0, 0},
	voxel.AxisZ: {0, 0, 1},
	voxel.AxisY: {0, 1, 0},
}

// hiddenFromAbove implements the terrain filter: a face is unobservable when
// its neighbor cell sits below the lowest stored cell of the neighbor's own
// column. Empty neighbor columns hide nothing, they are open sky.
func hiddenFromAbove(store *voxel.ColumnStore, nx, ny, nz int) bool {
	if nx < 0 || nx >= store.SizeX() || nz < 0 || nz >= store.SizeZ() {
		return false
	}
	minY := store.GetMin(nx, nz)
	return minY != math.MaxInt32 && ny < minY
}

// clipRect bounds face emission to the columns a mesh tile owns, half-open.
// The bitset may cover columns of a neighboring tile (chunks are world
// aligned, tiles need not be); those cells decide visibility but their own
// faces belong to the neighbor.
type clipRect struct {
	x0, x1, z0, z1 int
}

func (c clipRect) contains(x, z int) bool {
	return x >= c.x0 && x < c.x1 && z >= c.z0 && z < c.z1
}

// ExtractPlanes derives the visible-face planes of the filled chunk bitset.
// Positive faces are cells whose next row bit is clear, negative faces cells
// whose previous bit is clear, with the side masks standing in for the
// neighboring slabs. Each visible face fetches its merge id from the store
// and sets one bit in the matching (normal, id, depth) plane.
func ExtractPlanes[M Merger](p *PlaneSet, b *ChunkBitset, store *voxel.ColumnStore, table *idTable, merger M, baseX, baseY, baseZ int, seenFromAbove bool, clip clipRect) {
	for axis := 0; axis < 3; axis++ {
		for h := 0; h < ChunkSize; h++ {
			for w := 0; w < ChunkSize; w++ {
				row := b.rows[axis][h][w]
				if row == 0 {
					continue
				}
				side := b.sides[axis][h][w]

				shifted := row >> 1
				if side.pos {
					shifted |= 1 << 63
				}
				posBits := row &^ shifted

				shifted = row << 1
				if side.neg {
					shifted |= 1
				}
				negBits := row &^ shifted

				for posBits != 0 {
					depth := bits.TrailingZeros64(posBits)
					posBits &= posBits - 1
					markFace(p, store, table, merger, uint8(axis), axis, depth, w, h, baseX, baseY, baseZ, seenFromAbove, clip)
				}
				for negBits != 0 {
					depth := bits.TrailingZeros64(negBits)
					negBits &= negBits - 1
					markFace(p, store, table, merger, uint8(axis+3), axis, depth, w, h, baseX, baseY, baseZ, seenFromAbove, clip)
				}
			}
		}
	}
}

func markFace[M Merger](p *PlaneSet, store *voxel.ColumnStore, table *idTable, merger M, normal uint8, axis, depth, rowX, rowY, baseX, baseY, baseZ int, seenFromAbove bool, clip clipRect) {
	x, y, z := worldCoords(axis, depth, rowX, rowY, baseX, baseY, baseZ)
	if !clip.contains(x, z) {
		return
	}
	if seenFromAbove {
		d := axisDelta[axis]
		if normal >= 3 {
			d = [3]int{-d[0], -d[1], -d[2]}
		}
		if hiddenFromAbove(store, x+d[0], y+d[1], z+d[2]) {
			return
		}
	}
	id := store.GetVoxel(x, y, z)
	mergeID := merger.MergeIdentifier(voxel.Voxel{Y: int32(y), ID: id})
	if mergeID == 0 {
		return
	}
	p.set(normal, table.index[mergeID], depth, rowY, rowX)
}
