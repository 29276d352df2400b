package meshing

import (
	"context"
	"runtime"
	"sync"

	"voxel-terrain/internal/config"
	"voxel-terrain/internal/profiling"
	"voxel-terrain/internal/voxel"
)

// tileJob is one parallel meshing unit: a horizontal job-tile region in
// column coordinates, half-open on both axes.
type tileJob struct {
	index          int
	x0, z0, x1, z1 int
	resultChan     chan tileJobResult
}

// tileJobResult carries a job's mesh tiles back to the driver. Results are
// reordered by index before flattening so output stays deterministic.
type tileJobResult struct {
	index int
	tiles []*tileResult
}

// tileResult is one mesh tile's output: the assembler holding the tile's
// faces and parts, plus the finished meshes referencing them.
type tileResult struct {
	asm    *Assembler
	meshes []tileMesh
}

// workerPool runs meshing jobs on a fixed set of goroutines. Scratch
// buffers (chunk bitset, plane set, id table) are worker-local and reused
// across every chunk of a job.
type workerPool[M Merger] struct {
	store  *voxel.ColumnStore
	cfg    config.Settings
	merger M

	jobQueue chan tileJob
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// newWorkerPool starts the worker goroutines. workers <= 0 means
// GOMAXPROCS.
func newWorkerPool[M Merger](ctx context.Context, store *voxel.ColumnStore, cfg config.Settings, merger M, workers, queueSize int) *workerPool[M] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &workerPool[M]{
		store:    store,
		cfg:      cfg,
		merger:   merger,
		jobQueue: make(chan tileJob, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// submit enqueues a job, giving up when the pool is cancelled.
func (p *workerPool[M]) submit(job tileJob) {
	select {
	case p.jobQueue <- job:
	case <-p.ctx.Done():
	}
}

func (p *workerPool[M]) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			result := tileJobResult{
				index: job.index,
				tiles: meshJobTile(p.store, p.cfg, p.merger, job),
			}
			select {
			case job.resultChan <- result:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// shutdown cancels outstanding work and waits for the workers to exit.
// Partial results are discarded by the driver; no global state was touched.
func (p *workerPool[M]) shutdown() {
	p.cancel()
	p.wg.Wait()
}

// meshJobTile meshes one job tile: builds the dense id table for the
// region, then walks its mesh tiles chunk by chunk through the bitset,
// plane extraction and greedy packing stages.
func meshJobTile[M Merger](store *voxel.ColumnStore, cfg config.Settings, merger M, job tileJob) []*tileResult {
	defer profiling.Track("meshing.jobTile")()

	table := buildIDTable(store, merger, job.x0, job.z0, job.x1, job.z1)
	if len(table.ids) == 0 {
		return nil
	}

	bitset := &ChunkBitset{}
	planes := NewPlaneSet(len(table.ids))
	threshold := min(cfg.MergeNormalsThreshold, voxel.MaxFacesPerMesh)

	var tiles []*tileResult
	tileSize := cfg.MaxHorizontalSize
	for mx := alignDown(job.x0, tileSize); mx < job.x1; mx += tileSize {
		for mz := alignDown(job.z0, tileSize); mz < job.z1; mz += tileSize {
			tx0, tx1 := max(mx, job.x0), min(mx+tileSize, job.x1)
			tz0, tz1 := max(mz, job.z0), min(mz+tileSize, job.z1)
			if t := meshTile(store, merger, bitset, planes, table, threshold, cfg.SeenFromAbove, tx0, tz0, tx1, tz1); t != nil {
				tiles = append(tiles, t)
			}
		}
	}
	return tiles
}

// meshTile meshes one mesh tile into a fresh assembler.
func meshTile[M Merger](store *voxel.ColumnStore, merger M, bitset *ChunkBitset, planes *PlaneSet, table *idTable, threshold int, seenFromAbove bool, x0, z0, x1, z1 int) *tileResult {
	asm := NewAssembler(threshold)

	for cx := alignDown(x0, ChunkSize); cx < x1; cx += ChunkSize {
		for cz := alignDown(z0, ChunkSize); cz < z1; cz += ChunkSize {
			fx0, fx1 := max(cx, x0), min(cx+ChunkSize, x1)
			fz0, fz1 := max(cz, z0), min(cz+ChunkSize, z1)

			yMin, yMax := columnYRange(store, fx0, fz0, fx1, fz1)
			if yMin > yMax {
				continue
			}
			clip := clipRect{x0: fx0, x1: fx1, z0: fz0, z1: fz1}
			for cy := (yMin / ChunkSize) * ChunkSize; cy <= yMax; cy += ChunkSize {
				bitset.Fill(store, cx, cy, cz)
				ExtractPlanes(planes, bitset, store, table, merger, cx, cy, cz, seenFromAbove, clip)
				PackChunkPlanes(planes, asm, table, cx, cy, cz)
			}
		}
	}

	meshes := asm.Finish()
	if len(meshes) == 0 {
		return nil
	}
	return &tileResult{asm: asm, meshes: meshes}
}

// columnYRange returns the inclusive y extent over a column region, or
// (1, 0) when every column is empty.
func columnYRange(store *voxel.ColumnStore, x0, z0, x1, z1 int) (int, int) {
	yMin, yMax := 1, 0
	first := true
	for x := x0; x < x1; x++ {
		for z := z0; z < z1; z++ {
			col := store.GetColumn(x, z)
			if len(col) == 0 {
				continue
			}
			lo, hi := int(col[0].Y), int(col[len(col)-1].Y)
			if first {
				yMin, yMax = lo, hi
				first = false
				continue
			}
			yMin = min(yMin, lo)
			yMax = max(yMax, hi)
		}
	}
	return yMin, yMax
}

// buildIDTable scans a job region's columns and assigns dense indices to
// every merge identifier that occurs in it.
func buildIDTable[M Merger](store *voxel.ColumnStore, merger M, x0, z0, x1, z1 int) *idTable {
	table := newIDTable()
	for x := x0; x < x1; x++ {
		for z := z0; z < z1; z++ {
			for _, v := range store.GetColumn(x, z) {
				table.add(merger.MergeIdentifier(v))
			}
		}
	}
	return table
}

func alignDown(v, step int) int {
	return (v / step) * step
}
