package world

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/alitto/pond/v2"
)

// GenerationResult is a finished (or failed) generation task.
type GenerationResult struct {
	Coord ChunkCoord
	Chunk *Chunk
	Err   error
}

// ChunkStreamer runs terrain generation on a fixed-size worker pool.
//
// At most one task per coordinate is in flight: a coordinate stays pending
// from Request until its result has been taken by Drain, so redundant
// requests in between are no-ops. Results are never inserted into a store
// here; the consumer decides what to do with them.
type ChunkStreamer struct {
	pool       pond.Pool
	results    chan GenerationResult
	pending    map[ChunkCoord]struct{}
	pendingMu  sync.Mutex
	maxPending int
	closed     bool

	gen TerrainGenerator
}

// NewChunkStreamer creates a streamer with the given worker count (0 means
// one per CPU) and cap on in-flight requests.
func NewChunkStreamer(gen TerrainGenerator, workers, maxPending int) *ChunkStreamer {
	if workers <= 0 {
		workers = max(runtime.NumCPU(), 1)
	}
	if maxPending <= 0 {
		maxPending = 4096
	}
	return &ChunkStreamer{
		pool:       pond.NewPool(workers),
		results:    make(chan GenerationResult, maxPending),
		pending:    make(map[ChunkCoord]struct{}),
		maxPending: maxPending,
		gen:        gen,
	}
}

// Request queues generation of coord. It returns false when the coordinate is
// already pending, the pending cap is reached, or the streamer is closed.
func (cs *ChunkStreamer) Request(coord ChunkCoord) bool {
	cs.pendingMu.Lock()
	if cs.closed {
		cs.pendingMu.Unlock()
		return false
	}
	if _, ok := cs.pending[coord]; ok {
		cs.pendingMu.Unlock()
		return false
	}
	if len(cs.pending) >= cs.maxPending {
		cs.pendingMu.Unlock()
		return false
	}
	cs.pending[coord] = struct{}{}
	cs.pendingMu.Unlock()

	cs.pool.Submit(func() {
		cs.results <- cs.generate(coord)
	})
	return true
}

// generate builds one chunk; a panic in the generator becomes the result's error.
func (cs *ChunkStreamer) generate(coord ChunkCoord) (res GenerationResult) {
	res.Coord = coord
	defer func() {
		if r := recover(); r != nil {
			res.Chunk = nil
			res.Err = fmt.Errorf("generate chunk %v: %v\n%s", coord, r, debug.Stack())
		}
	}()
	chunk := NewChunk(coord)
	cs.gen.PopulateChunk(chunk)
	res.Chunk = chunk
	return res
}

// Drain returns up to limit finished results without blocking (limit <= 0
// means everything available). Drained coordinates stop being pending.
func (cs *ChunkStreamer) Drain(limit int) []GenerationResult {
	var out []GenerationResult
loop:
	for limit <= 0 || len(out) < limit {
		select {
		case res := <-cs.results:
			out = append(out, res)
		default:
			break loop
		}
	}
	if len(out) == 0 {
		return nil
	}
	cs.pendingMu.Lock()
	for _, res := range out {
		delete(cs.pending, res.Coord)
	}
	cs.pendingMu.Unlock()
	return out
}

// Pending reports whether coord has a task in flight or an undrained result.
func (cs *ChunkStreamer) Pending(coord ChunkCoord) bool {
	cs.pendingMu.Lock()
	_, ok := cs.pending[coord]
	cs.pendingMu.Unlock()
	return ok
}

// PendingCount returns the number of pending coordinates.
func (cs *ChunkStreamer) PendingCount() int {
	cs.pendingMu.Lock()
	defer cs.pendingMu.Unlock()
	return len(cs.pending)
}

// Close stops accepting requests and waits for running tasks to finish.
func (cs *ChunkStreamer) Close() {
	cs.pendingMu.Lock()
	cs.closed = true
	cs.pendingMu.Unlock()
	cs.pool.StopAndWait()
}
