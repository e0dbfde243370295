package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBlockPosChunkNegative(t *testing.T) {
	tests := []struct {
		pos   BlockPos
		chunk ChunkCoord
		local [3]int
	}{
		{BlockPos{0, 0, 0}, ChunkCoord{0, 0, 0}, [3]int{0, 0, 0}},
		{BlockPos{15, 15, 15}, ChunkCoord{0, 0, 0}, [3]int{15, 15, 15}},
		{BlockPos{16, 0, 0}, ChunkCoord{1, 0, 0}, [3]int{0, 0, 0}},
		{BlockPos{-1, -1, -1}, ChunkCoord{-1, -1, -1}, [3]int{15, 15, 15}},
		{BlockPos{-16, -17, 33}, ChunkCoord{-1, -2, 2}, [3]int{0, 15, 1}},
	}
	for _, tt := range tests {
		if got := tt.pos.Chunk(); got != tt.chunk {
			t.Errorf("%v.Chunk() = %v, want %v", tt.pos, got, tt.chunk)
		}
		x, y, z := tt.pos.Local()
		if [3]int{x, y, z} != tt.local {
			t.Errorf("%v.Local() = %v, want %v", tt.pos, [3]int{x, y, z}, tt.local)
		}
	}
}

func TestChunkCoordFromWorld(t *testing.T) {
	tests := []struct {
		p    mgl32.Vec3
		want ChunkCoord
	}{
		{mgl32.Vec3{0.5, 0.5, 0.5}, ChunkCoord{0, 0, 0}},
		{mgl32.Vec3{15.99, 0, 0}, ChunkCoord{0, 0, 0}},
		{mgl32.Vec3{16, 0, 0}, ChunkCoord{1, 0, 0}},
		{mgl32.Vec3{-0.01, 0, 0}, ChunkCoord{-1, 0, 0}},
		{mgl32.Vec3{8, 40, -40}, ChunkCoord{0, 2, -3}},
	}
	for _, tt := range tests {
		if got := ChunkCoordFromWorld(tt.p); got != tt.want {
			t.Errorf("ChunkCoordFromWorld(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestNeighborAndOpposite(t *testing.T) {
	c := ChunkCoord{3, -2, 5}
	for f := range BlockFace(FaceCount) {
		nb := c.Neighbor(f)
		if d := nb.ChebyshevDistance(c); d != 1 {
			t.Errorf("neighbour across %v at distance %d", f, d)
		}
		if back := nb.Neighbor(f.Opposite()); back != c {
			t.Errorf("%v then %v lands on %v, want %v", f, f.Opposite(), back, c)
		}
		if f.Opposite().Opposite() != f {
			t.Errorf("Opposite is not an involution for %v", f)
		}
	}
}

func TestChebyshevDistance(t *testing.T) {
	a := ChunkCoord{0, 0, 0}
	if d := a.ChebyshevDistance(ChunkCoord{2, -5, 1}); d != 5 {
		t.Errorf("distance = %d, want 5", d)
	}
	if d := a.ChebyshevDistance(a); d != 0 {
		t.Errorf("distance to self = %d", d)
	}
}
