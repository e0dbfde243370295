package world

import "sync/atomic"

const (
	// Chunk edge length in blocks
	ChunkSize   = 16
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// DirtyState describes how a chunk's mesh relates to its contents.
type DirtyState int

const (
	StateClean DirtyState = iota
	StateDirty
	StatePendingRemesh
)

func (s DirtyState) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StatePendingRemesh:
		return "pending-remesh"
	}
	return "unknown"
}

// Chunk is a 16x16x16 block of voxels.
//
// Block contents are written only while a chunk is being built. Once a chunk
// has been handed to a ChunkStore it is shared read-only between goroutines;
// edits go through WithBlock, which returns a modified copy. The dirty
// bookkeeping is atomic and may change at any time.
type Chunk struct {
	Coord  ChunkCoord
	blocks [ChunkVolume]BlockType
	solid  int

	epoch    atomic.Uint64 // bumped on every MarkDirty
	meshed   atomic.Uint64 // newest epoch a finished mesh was built from
	inflight atomic.Uint64 // epoch+1 of the mesh build in flight, 0 when idle
}

// NewChunk creates an all-air chunk at the specified chunk coordinates
func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{Coord: coord}
}

// index converts local coordinates (x, y, z) → flat index
func index(x, y, z int) int {
	return x*ChunkSize*ChunkSize + y*ChunkSize + z
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// GetBlock returns the block type at the specified local coordinates.
// Out of range coordinates read as air.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if !inBounds(x, y, z) {
		return BlockTypeAir
	}
	return c.blocks[index(x, y, z)]
}

// SetBlock sets the block type at the specified local coordinates.
// Only valid before the chunk is published; use WithBlock afterwards.
func (c *Chunk) SetBlock(x, y, z int, blockType BlockType) {
	if !inBounds(x, y, z) {
		return
	}
	i := index(x, y, z)
	old := c.blocks[i]
	if old == blockType {
		return
	}
	if old == BlockTypeAir {
		c.solid++
	} else if blockType == BlockTypeAir {
		c.solid--
	}
	c.blocks[i] = blockType
}

// Fill sets every block to blockType.
func (c *Chunk) Fill(blockType BlockType) {
	for i := range c.blocks {
		c.blocks[i] = blockType
	}
	if blockType == BlockTypeAir {
		c.solid = 0
	} else {
		c.solid = ChunkVolume
	}
}

// WithBlock returns a copy of the chunk with one block changed. The copy
// starts with fresh dirty bookkeeping.
func (c *Chunk) WithBlock(x, y, z int, blockType BlockType) *Chunk {
	n := &Chunk{Coord: c.Coord, blocks: c.blocks, solid: c.solid}
	n.SetBlock(x, y, z, blockType)
	return n
}

// IsEmpty reports whether the chunk holds only air.
func (c *Chunk) IsEmpty() bool {
	return c.solid == 0
}

// SolidCount returns the number of non-air blocks.
func (c *Chunk) SolidCount() int {
	return c.solid
}

// Blocks exposes the raw block grid, indexed x*256 + y*16 + z. Callers must not modify it.
func (c *Chunk) Blocks() *[ChunkVolume]BlockType {
	return &c.blocks
}

// MarkDirty flags the chunk's mesh as stale.
func (c *Chunk) MarkDirty() {
	c.epoch.Add(1)
}

// Epoch returns the current dirty epoch. A mesh build must read it before
// taking its neighbour snapshot.
func (c *Chunk) Epoch() uint64 {
	return c.epoch.Load()
}

// IsDirty reports whether no finished mesh reflects the latest dirtying.
func (c *Chunk) IsDirty() bool {
	return c.meshed.Load() < c.epoch.Load()
}

// BeginMesh records that a mesh build for epoch e is in flight.
func (c *Chunk) BeginMesh(e uint64) {
	c.inflight.Store(e + 1)
}

// FinishMesh records a completed build for epoch e. The chunk only becomes
// clean if e is still the current epoch.
func (c *Chunk) FinishMesh(e uint64) {
	c.inflight.CompareAndSwap(e+1, 0)
	for {
		cur := c.meshed.Load()
		if e <= cur || c.meshed.CompareAndSwap(cur, e) {
			return
		}
	}
}

// AbortMesh forgets an in-flight build without touching the meshed epoch.
func (c *Chunk) AbortMesh(e uint64) {
	c.inflight.CompareAndSwap(e+1, 0)
}

// State returns the tri-state dirty flag.
func (c *Chunk) State() DirtyState {
	e := c.epoch.Load()
	if c.meshed.Load() >= e {
		return StateClean
	}
	if c.inflight.Load() == e+1 {
		return StatePendingRemesh
	}
	return StateDirty
}
