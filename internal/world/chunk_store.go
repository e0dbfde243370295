package world

import (
	"sync"
	"sync/atomic"
)

const storeShards = 64

type storeShard struct {
	mu     sync.RWMutex
	chunks map[ChunkCoord]*Chunk
}

// ChunkStore is the single owner of all loaded chunks.
//
// It is sharded by coordinate hash; every operation takes at most one shard
// lock, and only for a single key. Chunks handed out are shared read-only
// views; replacing a chunk never mutates the old value.
type ChunkStore struct {
	shards   [storeShards]storeShard
	count    atomic.Int64
	modCount atomic.Uint64 // Increases on any chunk add/replace/remove
}

// Neighbors holds the six face-adjacent chunks of a position, indexed by
// BlockFace. Absent neighbours are nil.
type Neighbors [FaceCount]*Chunk

// NewChunkStore creates a new chunk store.
func NewChunkStore() *ChunkStore {
	cs := &ChunkStore{}
	for i := range cs.shards {
		cs.shards[i].chunks = make(map[ChunkCoord]*Chunk)
	}
	return cs
}

func (cs *ChunkStore) shard(coord ChunkCoord) *storeShard {
	return &cs.shards[hashCoord(coord)%storeShards]
}

// Get returns the chunk at coord, or nil when none is loaded.
func (cs *ChunkStore) Get(coord ChunkCoord) *Chunk {
	s := cs.shard(coord)
	s.mu.RLock()
	c := s.chunks[coord]
	s.mu.RUnlock()
	return c
}

// Has checks if a chunk exists.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	return cs.Get(coord) != nil
}

// Insert stores chunk at coord, replacing any previous chunk there, then
// marks the six face neighbours dirty. The new chunk is visible to readers
// before any neighbour is dirtied. chunk.Coord is expected to equal coord.
func (cs *ChunkStore) Insert(coord ChunkCoord, chunk *Chunk) {
	s := cs.shard(coord)
	s.mu.Lock()
	if _, ok := s.chunks[coord]; !ok {
		cs.count.Add(1)
	}
	s.chunks[coord] = chunk
	s.mu.Unlock()
	cs.modCount.Add(1)

	cs.dirtyNeighbors(coord)
}

func (cs *ChunkStore) dirtyNeighbors(coord ChunkCoord) {
	for f := range BlockFace(FaceCount) {
		if nb := cs.Get(coord.Neighbor(f)); nb != nil {
			nb.MarkDirty()
		}
	}
}

// Remove deletes the chunk at coord. Returns false if nothing was stored.
func (cs *ChunkStore) Remove(coord ChunkCoord) bool {
	s := cs.shard(coord)
	s.mu.Lock()
	_, ok := s.chunks[coord]
	if ok {
		delete(s.chunks, coord)
	}
	s.mu.Unlock()
	if ok {
		cs.count.Add(-1)
		cs.modCount.Add(1)
	}
	return ok
}

// Neighbors snapshots the six face-adjacent chunks. Each read is consistent
// on its own; the six are not read atomically together.
func (cs *ChunkStore) Neighbors(coord ChunkCoord) Neighbors {
	var nb Neighbors
	for f := range BlockFace(FaceCount) {
		nb[f] = cs.Get(coord.Neighbor(f))
	}
	return nb
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	return int(cs.count.Load())
}

// mods returns the current modification count of the chunk map.
func (cs *ChunkStore) mods() uint64 {
	return cs.modCount.Load()
}

// Coords returns the coordinates of all stored chunks, one shard at a time.
func (cs *ChunkStore) Coords() []ChunkCoord {
	out := make([]ChunkCoord, 0, cs.Len())
	for i := range cs.shards {
		s := &cs.shards[i]
		s.mu.RLock()
		for coord := range s.chunks {
			out = append(out, coord)
		}
		s.mu.RUnlock()
	}
	return out
}

// EvictOutside removes chunks whose Chebyshev distance from center exceeds
// radius and returns their coordinates.
func (cs *ChunkStore) EvictOutside(center ChunkCoord, radius int) []ChunkCoord {
	var removed []ChunkCoord
	for _, coord := range cs.Coords() {
		if coord.ChebyshevDistance(center) > radius && cs.Remove(coord) {
			removed = append(removed, coord)
		}
	}
	return removed
}

// GetBlock returns the block at a world position; unloaded chunks read as air.
func (cs *ChunkStore) GetBlock(pos BlockPos) BlockType {
	c := cs.Get(pos.Chunk())
	if c == nil {
		return BlockTypeAir
	}
	x, y, z := pos.Local()
	return c.GetBlock(x, y, z)
}

// SetBlock edits one block by swapping in a modified copy of its chunk.
// Returns false when the chunk is not loaded or the block already matches.
func (cs *ChunkStore) SetBlock(pos BlockPos, val BlockType) bool {
	coord := pos.Chunk()
	x, y, z := pos.Local()

	s := cs.shard(coord)
	s.mu.Lock()
	old, ok := s.chunks[coord]
	if !ok || old.GetBlock(x, y, z) == val {
		s.mu.Unlock()
		return false
	}
	s.chunks[coord] = old.WithBlock(x, y, z, val)
	s.mu.Unlock()
	cs.modCount.Add(1)

	cs.dirtyNeighbors(coord)
	return true
}

// hashCoord mixes a coordinate into a shard hash (SplitMix64 finaliser).
func hashCoord(c ChunkCoord) uint64 {
	v := uint64(int64(c.X))*0x9E3779B97F4A7C15 ^ uint64(int64(c.Y))*0xC2B2AE3D27D4EB4F ^ uint64(int64(c.Z))*0xBF58476D1CE4E5B9
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}
