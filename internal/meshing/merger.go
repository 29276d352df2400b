package meshing

import "voxel-terrain/internal/voxel"

// Merger decides what makes two adjacent voxels mergeable into one greedy
// rectangle. MergeIdentifier returns the 8-bit plane key for a stored cell;
// 0 is reserved for "never a merge target" and such cells emit no faces.
// Implementations are plugged in as a type parameter so the hot loops
// dispatch statically.
type Merger interface {
	MergeIdentifier(v voxel.Voxel) uint8
}

// IdentityMerger keys faces by the raw voxel id: the terrain variant, where
// the id byte is both the material and the face color.
type IdentityMerger struct{}

// MergeIdentifier returns the voxel id unchanged.
func (IdentityMerger) MergeIdentifier(v voxel.Voxel) uint8 { return v.ID }
