package meshing

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"mini-voxel/internal/world"

	"github.com/alitto/pond/v2"
)

// MeshJob represents a meshing job request. Epoch must be read from the chunk
// before Neighbors was snapshotted.
type MeshJob struct {
	Coord     world.ChunkCoord
	Chunk     *world.Chunk
	Neighbors world.Neighbors
	Epoch     uint64
}

// MeshResult contains the result of a meshing operation
type MeshResult struct {
	Coord world.ChunkCoord
	Chunk *world.Chunk // the chunk instance the mesh was built from
	Epoch uint64
	Mesh  *MeshData
	Err   error
}

// WorkerPool manages goroutines for mesh generation. At most one job per
// coordinate is pending between Submit and the Drain that returns its result.
type WorkerPool struct {
	pool       pond.Pool
	blocks     BlockLookup
	results    chan MeshResult
	pending    map[world.ChunkCoord]struct{}
	pendingMu  sync.Mutex
	maxPending int
	closed     bool
}

// NewWorkerPool creates a new mesh worker pool. workers <= 0 means one per CPU.
func NewWorkerPool(blocks BlockLookup, workers, maxPending int) *WorkerPool {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	if maxPending <= 0 {
		maxPending = 1024
	}
	return &WorkerPool{
		pool:       pond.NewPool(workers),
		blocks:     blocks,
		results:    make(chan MeshResult, maxPending),
		pending:    make(map[world.ChunkCoord]struct{}),
		maxPending: maxPending,
	}
}

// Submit submits a mesh generation job to the pool.
// Returns false if the coordinate is already pending, the pool is saturated or shut down.
func (p *WorkerPool) Submit(job MeshJob) bool {
	p.pendingMu.Lock()
	if p.closed || len(p.pending) >= p.maxPending {
		p.pendingMu.Unlock()
		return false
	}
	if _, ok := p.pending[job.Coord]; ok {
		p.pendingMu.Unlock()
		return false
	}
	p.pending[job.Coord] = struct{}{}
	p.pendingMu.Unlock()

	p.pool.Submit(func() {
		p.results <- p.build(job)
	})
	return true
}

func (p *WorkerPool) build(job MeshJob) (res MeshResult) {
	res = MeshResult{Coord: job.Coord, Chunk: job.Chunk, Epoch: job.Epoch}
	defer func() {
		if r := recover(); r != nil {
			res.Mesh = nil
			res.Err = fmt.Errorf("mesh chunk %v: %v\n%s", job.Coord, r, debug.Stack())
		}
	}()
	res.Mesh = BuildChunkMesh(job.Chunk, job.Neighbors, p.blocks)
	return res
}

// Drain collects up to limit finished results without blocking; limit <= 0 drains everything.
func (p *WorkerPool) Drain(limit int) []MeshResult {
	var out []MeshResult
loop:
	for limit <= 0 || len(out) < limit {
		select {
		case res := <-p.results:
			out = append(out, res)
		default:
			break loop
		}
	}
	if len(out) == 0 {
		return nil
	}
	p.pendingMu.Lock()
	for _, res := range out {
		delete(p.pending, res.Coord)
	}
	p.pendingMu.Unlock()
	return out
}

// Pending reports whether coord has a job in flight or an undrained result.
func (p *WorkerPool) Pending(coord world.ChunkCoord) bool {
	p.pendingMu.Lock()
	_, ok := p.pending[coord]
	p.pendingMu.Unlock()
	return ok
}

// PendingCount returns the number of pending coordinates
func (p *WorkerPool) PendingCount() int {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return len(p.pending)
}

// Shutdown gracefully shuts down the worker pool
func (p *WorkerPool) Shutdown() {
	p.pendingMu.Lock()
	p.closed = true
	p.pendingMu.Unlock()
	p.pool.StopAndWait()
}
