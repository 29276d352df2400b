package meshing

import "voxel-terrain/internal/voxel"

// ChunkSize is the edge length of the cubic region processed as one bitset
// unit. Rows are single 64-bit words, which is what makes the shift-based
// face extraction work.
const ChunkSize = 64

// sideMask records whether the neighbor voxel just outside the chunk is
// solid at row position -1 (neg) and at position 64 (pos).
type sideMask struct {
	neg, pos bool
}

// ChunkBitset is the per-chunk scratch: for each sweep axis a 64x64 grid of
// 64-bit rows, rows[axis][height][width] with the bit index running along
// the axis, plus the boundary side masks. Allocated once per job tile and
// cleared between chunks.
type ChunkBitset struct {
	rows  [3][ChunkSize][ChunkSize]uint64
	sides [3][ChunkSize][ChunkSize]sideMask
}

// Clear zeroes the solid rows and side masks.
func (b *ChunkBitset) Clear() {
	for a := range b.rows {
		for h := range b.rows[a] {
			for w := range b.rows[a][h] {
				b.rows[a][h][w] = 0
				b.sides[a][h][w] = sideMask{}
			}
		}
	}
}

// solidAt reports whether the store holds a voxel at world (x,y,z), with
// out-of-range coordinates counting as empty.
func solidAt(store *voxel.ColumnStore, x, y, z int) bool {
	if x < 0 || x >= store.SizeX() || z < 0 || z >= store.SizeZ() {
		return false
	}
	if y < 0 || y > voxel.MaxCoordY {
		return false
	}
	return store.GetVoxel(x, y, z) != 0
}

// Fill populates the bitset for the chunk whose minimum corner is
// (baseX, baseY, baseZ). Solid bits come from the store's columns; side
// masks sample the six neighboring slabs one cell outside the chunk.
func (b *ChunkBitset) Fill(store *voxel.ColumnStore, baseX, baseY, baseZ int) {
	b.Clear()

	maxX := min(baseX+ChunkSize, store.SizeX())
	maxZ := min(baseZ+ChunkSize, store.SizeZ())

	for x := baseX; x < maxX; x++ {
		for z := baseZ; z < maxZ; z++ {
			lx, lz := x-baseX, z-baseZ
			for _, v := range store.GetColumn(x, z) {
				y := int(v.Y)
				if y < baseY || y >= baseY+ChunkSize {
					continue
				}
				ly := y - baseY
				b.rows[voxel.AxisX][ly][lz] |= 1 << uint(lx)
				b.rows[voxel.AxisZ][ly][lx] |= 1 << uint(lz)
				b.rows[voxel.AxisY][lz][lx] |= 1 << uint(ly)
			}
		}
	}

	// Boundary slabs. Only rows with any solid bit can produce faces, but
	// sampling all rows keeps the extraction branch-free.
	for h := 0; h < ChunkSize; h++ {
		for w := 0; w < ChunkSize; w++ {
			// axis x: row (y=h, z=w), neighbors at x = baseX-1 and baseX+64
			b.sides[voxel.AxisX][h][w] = sideMask{
				neg: solidAt(store, baseX-1, baseY+h, baseZ+w),
				pos: solidAt(store, baseX+ChunkSize, baseY+h, baseZ+w),
			}
			// axis z: row (y=h, x=w)
			b.sides[voxel.AxisZ][h][w] = sideMask{
				neg: solidAt(store, baseX+w, baseY+h, baseZ-1),
				pos: solidAt(store, baseX+w, baseY+h, baseZ+ChunkSize),
			}
			// axis y: row (z=h, x=w)
			b.sides[voxel.AxisY][h][w] = sideMask{
				neg: solidAt(store, baseX+w, baseY-1, baseZ+h),
				pos: solidAt(store, baseX+w, baseY+ChunkSize, baseZ+h),
			}
		}
	}
}
