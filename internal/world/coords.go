package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord addresses a chunk on the chunk grid. It is the only key into ChunkStore.
type ChunkCoord struct {
	X, Y, Z int
}

// BlockPos is a block position in world space.
type BlockPos struct {
	X, Y, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Neighbor returns the coordinate of the chunk sharing the given face.
func (c ChunkCoord) Neighbor(face BlockFace) ChunkCoord {
	o := FaceOffsets[face]
	return ChunkCoord{X: c.X + o[0], Y: c.Y + o[1], Z: c.Z + o[2]}
}

// Add offsets the coordinate by whole chunks.
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Origin returns the world position of the chunk's minimum corner block.
func (c ChunkCoord) Origin() BlockPos {
	return BlockPos{X: c.X * ChunkSize, Y: c.Y * ChunkSize, Z: c.Z * ChunkSize}
}

// WorldOrigin is Origin as a float vector, handy for model matrices.
func (c ChunkCoord) WorldOrigin() mgl32.Vec3 {
	o := c.Origin()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// ChebyshevDistance is the max per-axis distance in chunks.
func (c ChunkCoord) ChebyshevDistance(o ChunkCoord) int {
	return max(absInt(c.X-o.X), absInt(c.Y-o.Y), absInt(c.Z-o.Z))
}

// ChunkCoordFromWorld returns the chunk cell containing a world-space point.
func ChunkCoordFromWorld(p mgl32.Vec3) ChunkCoord {
	return BlockPosFromWorld(p).Chunk()
}

// BlockPosFromWorld floors a world-space point onto the block grid.
func BlockPosFromWorld(p mgl32.Vec3) BlockPos {
	return BlockPos{
		X: int(math.Floor(float64(p[0]))),
		Y: int(math.Floor(float64(p[1]))),
		Z: int(math.Floor(float64(p[2]))),
	}
}

// Chunk returns the containing chunk coordinate.
func (b BlockPos) Chunk() ChunkCoord {
	return ChunkCoord{X: floorDiv(b.X, ChunkSize), Y: floorDiv(b.Y, ChunkSize), Z: floorDiv(b.Z, ChunkSize)}
}

// Local returns the position inside its chunk, each component in [0, ChunkSize).
func (b BlockPos) Local() (int, int, int) {
	return mod(b.X, ChunkSize), mod(b.Y, ChunkSize), mod(b.Z, ChunkSize)
}

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	if r := a % b; r < 0 {
		q--
	}
	return q
}

func mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
