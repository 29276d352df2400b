package voxel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is the axis-aligned world box handed to scene management at
// publish, in world units of one voxel.
type Bounds struct {
	Center mgl32.Vec3
	Size   mgl32.Vec3
}

// voxelRecordSize is the on-disk stride of one (i32 y, u8 id) pair. Records
// are aligned to the size of (i32, char), so three padding bytes follow the
// id.
const voxelRecordSize = 8

// WriteAsset writes the persisted voxel asset: bounds, footprint, voxel
// records and the column start prefix, all little-endian.
func WriteAsset(w io.Writer, bounds Bounds, store *ColumnStore) error {
	bw := bufio.NewWriter(w)

	var f32 [4]byte
	writeFloat := func(v float32) {
		binary.LittleEndian.PutUint32(f32[:], math.Float32bits(v))
		bw.Write(f32[:])
	}
	writeInt := func(v int32) {
		binary.LittleEndian.PutUint32(f32[:], uint32(v))
		bw.Write(f32[:])
	}

	for _, v := range bounds.Center {
		writeFloat(v)
	}
	for _, v := range bounds.Size {
		writeFloat(v)
	}
	writeInt(int32(store.sizeX))
	writeInt(int32(store.sizeZ))
	writeInt(int32(len(store.voxels)))

	var rec [voxelRecordSize]byte
	for _, v := range store.voxels {
		binary.LittleEndian.PutUint32(rec[0:4], uint32(v.Y))
		rec[4] = v.ID
		rec[5], rec[6], rec[7] = 0, 0, 0
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	for _, s := range store.start {
		writeInt(s)
	}
	return bw.Flush()
}

// ReadAsset reads an asset written by WriteAsset and reconstructs the store.
// Malformed input is reported as ErrData.
func ReadAsset(r io.Reader) (Bounds, *ColumnStore, error) {
	br := bufio.NewReader(r)

	var bounds Bounds
	var buf [voxelRecordSize]byte
	readFloat := func() (float32, error) {
		if _, err := io.ReadFull(br, buf[:4]); err != nil {
			return 0, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[:4])), nil
	}
	readInt := func() (int32, error) {
		if _, err := io.ReadFull(br, buf[:4]); err != nil {
			return 0, err
		}
		return int32(binary.LittleEndian.Uint32(buf[:4])), nil
	}

	for i := 0; i < 3; i++ {
		v, err := readFloat()
		if err != nil {
			return bounds, nil, fmt.Errorf("%w: truncated bounds: %v", ErrData, err)
		}
		bounds.Center[i] = v
	}
	for i := 0; i < 3; i++ {
		v, err := readFloat()
		if err != nil {
			return bounds, nil, fmt.Errorf("%w: truncated bounds: %v", ErrData, err)
		}
		bounds.Size[i] = v
	}

	sizeX, err := readInt()
	if err != nil {
		return bounds, nil, fmt.Errorf("%w: truncated header: %v", ErrData, err)
	}
	sizeZ, err := readInt()
	if err != nil {
		return bounds, nil, fmt.Errorf("%w: truncated header: %v", ErrData, err)
	}
	nVoxels, err := readInt()
	if err != nil {
		return bounds, nil, fmt.Errorf("%w: truncated header: %v", ErrData, err)
	}
	if sizeX <= 0 || sizeZ <= 0 || nVoxels < 0 {
		return bounds, nil, fmt.Errorf("%w: header sizeX=%d sizeZ=%d nVoxels=%d", ErrData, sizeX, sizeZ, nVoxels)
	}

	voxels := make([]Voxel, nVoxels)
	for i := range voxels {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return bounds, nil, fmt.Errorf("%w: truncated voxel %d: %v", ErrData, i, err)
		}
		voxels[i] = Voxel{
			Y:  int32(binary.LittleEndian.Uint32(buf[0:4])),
			ID: buf[4],
		}
	}

	start := make([]int32, int(sizeX)*int(sizeZ)+1)
	for i := range start {
		v, err := readInt()
		if err != nil {
			return bounds, nil, fmt.Errorf("%w: truncated start index %d: %v", ErrData, i, err)
		}
		start[i] = v
	}

	store := NewColumnStore(int(sizeX), int(sizeZ), voxels, start)
	if err := store.Validate(); err != nil {
		return bounds, nil, err
	}
	return bounds, store, nil
}
