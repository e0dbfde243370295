package meshing

import (
	"mini-voxel/internal/world"
)

// VertexStride is number of float32 per vertex (pos.xyz + uv + layer + shade)
const VertexStride = 7

// BlockLookup is the slice of the block registry the mesher needs.
type BlockLookup interface {
	IsTransparent(id world.BlockType) bool
	FaceLayer(id world.BlockType, face world.BlockFace) int
}

// MeshData is the renderable geometry of one chunk in chunk-local space.
type MeshData struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices in the mesh.
func (m *MeshData) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / VertexStride
}

// FaceCount returns the number of emitted quads.
func (m *MeshData) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / len(quadIndices)
}

// IsEmpty reports whether there is nothing to draw.
func (m *MeshData) IsEmpty() bool {
	return m == nil || len(m.Indices) == 0
}

// BuildChunkMesh emits one quad per visible voxel face. A face is visible when
// the block across it is transparent; blocks across the chunk border come
// from nb, and a missing neighbour counts as air.
func BuildChunkMesh(c *world.Chunk, nb world.Neighbors, blocks BlockLookup) *MeshData {
	mesh := &MeshData{}
	if c == nil || c.IsEmpty() {
		return mesh
	}

	grid := c.Blocks()
	for x := range world.ChunkSize {
		for y := range world.ChunkSize {
			for z := range world.ChunkSize {
				id := grid[x*world.ChunkSize*world.ChunkSize+y*world.ChunkSize+z]
				if id == world.BlockTypeAir {
					continue
				}
				for face := range world.BlockFace(world.FaceCount) {
					adj := adjacentBlock(c, &nb, x, y, z, face)
					if !faceVisible(adj, blocks) {
						continue
					}
					mesh.appendQuad(x, y, z, face, blocks.FaceLayer(id, face))
				}
			}
		}
	}
	return mesh
}

func faceVisible(adj world.BlockType, blocks BlockLookup) bool {
	return adj == world.BlockTypeAir || blocks.IsTransparent(adj)
}

// adjacentBlock resolves the block across face, stepping into the neighbour
// snapshot when the offset leaves the chunk.
func adjacentBlock(c *world.Chunk, nb *world.Neighbors, x, y, z int, face world.BlockFace) world.BlockType {
	o := world.FaceOffsets[face]
	ax, ay, az := x+o[0], y+o[1], z+o[2]
	if ax >= 0 && ax < world.ChunkSize && ay >= 0 && ay < world.ChunkSize && az >= 0 && az < world.ChunkSize {
		return c.GetBlock(ax, ay, az)
	}
	other := nb[face]
	if other == nil {
		return world.BlockTypeAir
	}
	return other.GetBlock(wrap(ax), wrap(ay), wrap(az))
}

func wrap(v int) int {
	switch {
	case v < 0:
		return v + world.ChunkSize
	case v >= world.ChunkSize:
		return v - world.ChunkSize
	}
	return v
}

func (m *MeshData) appendQuad(x, y, z int, face world.BlockFace, layer int) {
	base := uint32(len(m.Vertices) / VertexStride)
	tpl := &faceTemplates[face]
	shade := faceShade[face]
	fx, fy, fz := float32(x), float32(y), float32(z)
	for i, corner := range tpl.corners {
		uv := tpl.uvs[i]
		m.Vertices = append(m.Vertices,
			fx+corner[0], fy+corner[1], fz+corner[2],
			uv[0], uv[1],
			float32(layer),
			shade,
		)
	}
	for _, idx := range quadIndices {
		m.Indices = append(m.Indices, base+idx)
	}
}
