package meshing

import (
	"context"
	"fmt"
	"math"
	"sort"

	"voxel-terrain/internal/config"
	"voxel-terrain/internal/profiling"
	"voxel-terrain/internal/voxel"
)

// Result is the immutable output of a meshing run: the flat face table and
// the mesh table referencing into it. Every face belongs to exactly one
// mesh and the face counts over all meshes sum to len(Faces).
type Result struct {
	Faces  []voxel.Face
	Meshes []voxel.Mesh
}

// BuildMeshes runs the full pipeline over a column store: job tiles are
// meshed in parallel, each producing its mesh tiles, and the per-tile
// results are flattened single-threaded into the global tables in job
// order. Cancelling the context discards all partial work.
func BuildMeshes[M Merger](ctx context.Context, store *voxel.ColumnStore, cfg config.Settings, merger M) (*Result, error) {
	defer profiling.Track("meshing.BuildMeshes")()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}

	jobSize := cfg.JobHorizontalSize
	if jobSize <= 0 {
		jobSize = max(store.SizeX(), store.SizeZ())
	}

	var jobs []tileJob
	resultChan := make(chan tileJobResult, 16)
	for jx := 0; jx < store.SizeX(); jx += jobSize {
		for jz := 0; jz < store.SizeZ(); jz += jobSize {
			jobs = append(jobs, tileJob{
				index:      len(jobs),
				x0:         jx,
				z0:         jz,
				x1:         min(jx+jobSize, store.SizeX()),
				z1:         min(jz+jobSize, store.SizeZ()),
				resultChan: resultChan,
			})
		}
	}

	pool := newWorkerPool(ctx, store, cfg, merger, cfg.Workers, len(jobs))
	defer pool.shutdown()

	go func() {
		for _, job := range jobs {
			pool.submit(job)
		}
	}()

	results := make([]tileJobResult, 0, len(jobs))
	for range jobs {
		select {
		case r := <-resultChan:
			results = append(results, r)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	return flatten(results)
}

// flatten serializes all tiles' meshes into the global face and mesh
// tables. Single-threaded; runs after every job has joined.
func flatten(results []tileJobResult) (*Result, error) {
	defer profiling.Track("meshing.flatten")()

	out := &Result{}
	for _, jr := range results {
		for _, tile := range jr.tiles {
			for _, m := range tile.meshes {
				start := len(out.Faces)
				if uint64(start)+uint64(m.faceCount) > math.MaxUint32 {
					return nil, fmt.Errorf("%w: face table overflows 32-bit start offsets", ErrCapacity)
				}
				if m.faceCount >= 1<<29 {
					return nil, fmt.Errorf("%w: mesh face count %d overflows packed field", ErrCapacity, m.faceCount)
				}
				out.Faces = tile.asm.appendMeshFaces(out.Faces, m)
				if len(out.Faces)-start != m.faceCount {
					return nil, fmt.Errorf("%w: mesh part chain yields %d faces, counted %d", ErrCapacity, len(out.Faces)-start, m.faceCount)
				}
				center := m.min.Add(m.max).Mul(0.5)
				size := m.max.Sub(m.min).Mul(0.5)
				out.Meshes = append(out.Meshes, voxel.PackMesh(center, size, m.normal, uint32(m.faceCount), uint32(start)))
			}
		}
	}
	return out, nil
}
