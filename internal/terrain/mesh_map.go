package terrain

import (
	"sync"

	"mini-voxel/internal/meshing"
	"mini-voxel/internal/world"
)

// MeshEntry is one installed chunk mesh.
type MeshEntry struct {
	Coord world.ChunkCoord
	Mesh  *meshing.MeshData
	Chunk *world.Chunk // chunk instance the mesh was built from
	Epoch uint64       // dirty epoch the build started at
	Seq   uint64       // map version at install time; renderers re-upload when it changes
}

// MeshMap is the externally visible {ChunkCoord -> mesh} map. The manager is
// the only writer; renderers read it from any goroutine.
type MeshMap struct {
	mu      sync.RWMutex
	entries map[world.ChunkCoord]MeshEntry
	version uint64
}

func newMeshMap() *MeshMap {
	return &MeshMap{entries: make(map[world.ChunkCoord]MeshEntry)}
}

// Get returns the entry at coord.
func (m *MeshMap) Get(coord world.ChunkCoord) (MeshEntry, bool) {
	m.mu.RLock()
	e, ok := m.entries[coord]
	m.mu.RUnlock()
	return e, ok
}

// Len returns the number of installed meshes.
func (m *MeshMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Version increases on every install or removal.
func (m *MeshMap) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Snapshot copies the current entries.
func (m *MeshMap) Snapshot() map[world.ChunkCoord]MeshEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[world.ChunkCoord]MeshEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

func (m *MeshMap) put(coord world.ChunkCoord, mesh *meshing.MeshData, chunk *world.Chunk, epoch uint64) {
	m.mu.Lock()
	m.version++
	m.entries[coord] = MeshEntry{Coord: coord, Mesh: mesh, Chunk: chunk, Epoch: epoch, Seq: m.version}
	m.mu.Unlock()
}

func (m *MeshMap) remove(coord world.ChunkCoord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[coord]; !ok {
		return false
	}
	delete(m.entries, coord)
	m.version++
	return true
}

// removeOutside drops entries farther than radius from center.
func (m *MeshMap) removeOutside(center world.ChunkCoord, radius int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for coord := range m.entries {
		if coord.ChebyshevDistance(center) > radius {
			delete(m.entries, coord)
			n++
		}
	}
	if n > 0 {
		m.version++
	}
	return n
}
