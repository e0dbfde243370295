package terrain

import (
	"fmt"
	"log"
	"sort"
	"time"

	"mini-voxel/internal/config"
	"mini-voxel/internal/meshing"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/time/rate"
)

// Stats is a point-in-time summary of the manager.
type Stats struct {
	Tick              uint64
	Center            world.ChunkCoord
	Desired           int
	Chunks            int
	Meshes            int
	PendingGeneration int
	PendingMesh       int
	Backoff           int
	Dirty             int // desired chunks waiting for a remesh
	Remeshing         int // desired chunks with a remesh in flight

	Generated uint64 // chunks inserted
	Meshed    uint64 // meshes installed
	Stale     uint64 // mesh results dropped as outdated
	Discarded uint64 // generation results for positions no longer wanted
	Evicted   uint64
	Failures  uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithGenerator overrides the generator built from the config.
func WithGenerator(gen world.TerrainGenerator) Option {
	return func(m *Manager) { m.gen = gen }
}

// WithBlockLookup overrides the block properties the mesher reads. The
// registry passed to New is used otherwise.
func WithBlockLookup(blocks meshing.BlockLookup) Option {
	return func(m *Manager) { m.blocks = blocks }
}

// WithRecorder sets the profiling recorder used for per-tick timings.
func WithRecorder(rec *profiling.Recorder) Option {
	return func(m *Manager) { m.rec = rec }
}

// Manager keeps the chunks within load distance of a view centre generated
// and meshed. Tick, SetCenter and Stats belong to a single orchestrator
// goroutine; the store, the mesh map and SetBlock may be used from anywhere.
type Manager struct {
	cfg      config.Config
	gen      world.TerrainGenerator
	blocks   meshing.BlockLookup
	store    *world.ChunkStore
	streamer *world.ChunkStreamer
	meshPool *meshing.WorkerPool
	meshes   *MeshMap
	limiter  *rate.Limiter // nil = unlimited
	retry    *backoff
	rec      *profiling.Recorder

	center      world.ChunkCoord
	offsets     []world.ChunkCoord // load cube around the origin, nearest first
	desired     []world.ChunkCoord
	desiredSet  map[world.ChunkCoord]struct{}
	needDesired bool
	needEvict   bool

	stats Stats
}

// New builds a manager and starts its worker pools.
func New(cfg config.Config, reg *registry.Registry, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain config: %w", err)
	}
	m := &Manager{
		cfg:         cfg,
		store:       world.NewChunkStore(),
		meshes:      newMeshMap(),
		retry:       newBackoff(cfg.Retry.BaseTicks, cfg.Retry.MaxTicks),
		offsets:     loadOffsets(cfg.LoadDistance),
		needDesired: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.gen == nil {
		gen, err := cfg.NewGenerator(reg)
		if err != nil {
			return nil, fmt.Errorf("terrain generator: %w", err)
		}
		m.gen = gen
	}
	if m.blocks == nil {
		m.blocks = reg
	}
	if m.rec == nil {
		m.rec = profiling.NewRecorder()
	}
	if cfg.GenerationRate > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.GenerationRate), max(1, int(cfg.GenerationRate)))
	}
	m.streamer = world.NewChunkStreamer(m.gen, cfg.GenerationPoolSize, cfg.MaxPendingGeneration)
	m.meshPool = meshing.NewWorkerPool(m.blocks, cfg.MeshPoolSize, cfg.MaxPendingMesh)
	return m, nil
}

// loadOffsets lists every offset within Chebyshev distance d, nearest first.
func loadOffsets(d int) []world.ChunkCoord {
	out := make([]world.ChunkCoord, 0, (2*d+1)*(2*d+1)*(2*d+1))
	for x := -d; x <= d; x++ {
		for y := -d; y <= d; y++ {
			for z := -d; z <= d; z++ {
				out = append(out, world.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
	origin := world.ChunkCoord{}
	sqr := func(c world.ChunkCoord) int { return c.X*c.X + c.Y*c.Y + c.Z*c.Z }
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].ChebyshevDistance(origin), out[j].ChebyshevDistance(origin)
		if di != dj {
			return di < dj
		}
		return sqr(out[i]) < sqr(out[j])
	})
	return out
}

// Store exposes the chunk store.
func (m *Manager) Store() *world.ChunkStore { return m.store }

// Meshes exposes the mesh map for render collaborators.
func (m *Manager) Meshes() *MeshMap { return m.meshes }

// Generator returns the terrain generator in use.
func (m *Manager) Generator() world.TerrainGenerator { return m.gen }

// Recorder returns the per-tick profiling recorder.
func (m *Manager) Recorder() *profiling.Recorder { return m.rec }

// Center returns the current view centre cell.
func (m *Manager) Center() world.ChunkCoord { return m.center }

// SetCenter moves the view centre. The desired set is only recomputed when the cell changes.
func (m *Manager) SetCenter(c world.ChunkCoord) {
	if c == m.center && m.desiredSet != nil {
		return
	}
	m.center = c
	m.needDesired = true
}

// SetViewPosition moves the view centre to the chunk containing a world-space point.
func (m *Manager) SetViewPosition(p mgl32.Vec3) {
	m.SetCenter(world.ChunkCoordFromWorld(p))
}

// SetBlock edits one block. The chunk is replaced by an edited copy and
// remeshed, together with its neighbours, on the next ticks.
func (m *Manager) SetBlock(pos world.BlockPos, id world.BlockType) bool {
	return m.store.SetBlock(pos, id)
}

// GetBlock reads one block; unloaded positions read as air.
func (m *Manager) GetBlock(pos world.BlockPos) world.BlockType {
	return m.store.GetBlock(pos)
}

// Tick advances the orchestrator one step. It never blocks on workers.
func (m *Manager) Tick() {
	m.rec.Reset()
	start := time.Now()
	m.stats.Tick++

	m.updateDesired()
	m.requestGeneration()
	m.drainGeneration()
	m.requestMeshes()
	m.drainMeshes()
	m.evict()

	if slow := time.Duration(m.cfg.SlowTickMs) * time.Millisecond; slow > 0 {
		if d := time.Since(start); d > slow {
			log.Printf("[terrain] slow tick %d: %v (%s)", m.stats.Tick, d.Round(time.Microsecond), m.rec.TopN(3))
		}
	}
}

// updateDesired recomputes the load cube after the centre cell moved.
func (m *Manager) updateDesired() {
	if !m.needDesired {
		return
	}
	defer m.rec.Track("terrain.UpdateDesired")()
	m.needDesired = false
	m.needEvict = true

	m.desired = m.desired[:0]
	m.desiredSet = make(map[world.ChunkCoord]struct{}, len(m.offsets))
	for _, o := range m.offsets {
		c := m.center.Add(o.X, o.Y, o.Z)
		m.desired = append(m.desired, c)
		m.desiredSet[c] = struct{}{}
	}
}

func (m *Manager) wanted(c world.ChunkCoord) bool {
	_, ok := m.desiredSet[c]
	return ok
}

// requestGeneration asks for every missing desired chunk, nearest first.
func (m *Manager) requestGeneration() {
	defer m.rec.Track("terrain.RequestGeneration")()
	for _, c := range m.desired {
		if m.store.Has(c) || m.streamer.Pending(c) || !m.retry.ready(c, taskGenerate, m.stats.Tick) {
			continue
		}
		if m.limiter != nil && !m.limiter.Allow() {
			return
		}
		if !m.streamer.Request(c) {
			return // pending cap reached
		}
	}
}

// drainGeneration inserts finished chunks into the store.
func (m *Manager) drainGeneration() {
	defer m.rec.Track("terrain.DrainGeneration")()
	for _, res := range m.streamer.Drain(m.cfg.MaxDrainPerTick) {
		if !m.wanted(res.Coord) {
			m.stats.Discarded++
			continue
		}
		if res.Err != nil {
			m.fail(res.Coord, taskGenerate, res.Err)
			continue
		}
		m.store.Insert(res.Coord, res.Chunk)
		m.retry.succeed(res.Coord, taskGenerate)
		m.stats.Generated++
	}
}

// needsMesh reports whether c has no mesh built from this very chunk, or a dirty one.
func (m *Manager) needsMesh(coord world.ChunkCoord, c *world.Chunk) bool {
	e, ok := m.meshes.Get(coord)
	if !ok {
		return true
	}
	if e.Chunk != c || c.IsDirty() {
		// Stale: the chunk was replaced or re-dirtied with no fresher mesh yet.
		m.meshes.remove(coord)
		return true
	}
	return false
}

// requestMeshes submits mesh jobs for unmeshed or dirty chunks.
func (m *Manager) requestMeshes() {
	defer m.rec.Track("terrain.RequestMeshes")()
	for _, coord := range m.desired {
		c := m.store.Get(coord)
		if c == nil || m.meshPool.Pending(coord) {
			continue
		}
		if !m.retry.ready(coord, taskMesh, m.stats.Tick) || !m.needsMesh(coord, c) {
			continue
		}
		e := c.Epoch()
		nb := m.store.Neighbors(coord)
		c.BeginMesh(e)
		if !m.meshPool.Submit(meshing.MeshJob{Coord: coord, Chunk: c, Neighbors: nb, Epoch: e}) {
			c.AbortMesh(e)
			return
		}
	}
}

// drainMeshes installs finished meshes that still match their chunk.
func (m *Manager) drainMeshes() {
	defer m.rec.Track("terrain.DrainMeshes")()
	for _, res := range m.meshPool.Drain(m.cfg.MaxDrainPerTick) {
		if res.Err != nil {
			res.Chunk.AbortMesh(res.Epoch)
			if m.wanted(res.Coord) {
				m.fail(res.Coord, taskMesh, res.Err)
			}
			continue
		}
		res.Chunk.FinishMesh(res.Epoch)
		cur := m.store.Get(res.Coord)
		if cur != res.Chunk || res.Epoch != cur.Epoch() {
			// Evicted, replaced or re-dirtied while building; requested again next tick.
			m.stats.Stale++
			continue
		}
		m.meshes.put(res.Coord, res.Mesh, res.Chunk, res.Epoch)
		m.retry.succeed(res.Coord, taskMesh)
		m.stats.Meshed++
	}
}

func (m *Manager) fail(coord world.ChunkCoord, kind taskKind, err error) {
	m.stats.Failures++
	delay, attempts := m.retry.fail(coord, kind, m.stats.Tick)
	log.Printf("[terrain] %s %v failed (attempt %d, retry in %d ticks): %v", kind, coord, attempts, delay, err)
}

// evict drops chunks, meshes and retry state outside the load cube. Chunks
// left bordering an evicted one are dirtied so their faces towards it reappear.
func (m *Manager) evict() {
	if !m.needEvict {
		return
	}
	defer m.rec.Track("terrain.Evict")()
	m.needEvict = false

	d := m.cfg.LoadDistance
	removed := m.store.EvictOutside(m.center, d)
	for _, coord := range removed {
		m.meshes.remove(coord)
		for f := range world.BlockFace(world.FaceCount) {
			if nb := m.store.Get(coord.Neighbor(f)); nb != nil {
				nb.MarkDirty()
			}
		}
	}
	m.meshes.removeOutside(m.center, d)
	m.retry.forgetOutside(m.center, d)
	m.stats.Evicted += uint64(len(removed))
}

// Converged reports whether every desired chunk is loaded with a current mesh
// and no work is outstanding.
func (m *Manager) Converged() bool {
	if m.needDesired || m.streamer.PendingCount() > 0 || m.meshPool.PendingCount() > 0 {
		return false
	}
	for _, coord := range m.desired {
		c := m.store.Get(coord)
		if c == nil || c.IsDirty() {
			return false
		}
		if e, ok := m.meshes.Get(coord); !ok || e.Chunk != c {
			return false
		}
	}
	return m.store.Len() == len(m.desired)
}

// Stats returns a summary of the manager's state.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.Center = m.center
	s.Desired = len(m.desired)
	s.Chunks = m.store.Len()
	s.Meshes = m.meshes.Len()
	s.PendingGeneration = m.streamer.PendingCount()
	s.PendingMesh = m.meshPool.PendingCount()
	s.Backoff = m.retry.len()
	for _, coord := range m.desired {
		c := m.store.Get(coord)
		if c == nil {
			continue
		}
		switch c.State() {
		case world.StateDirty:
			s.Dirty++
		case world.StatePendingRemesh:
			s.Remeshing++
		}
	}
	return s
}

// Close stops both worker pools, waiting for running tasks.
func (m *Manager) Close() {
	m.streamer.Close()
	m.meshPool.Shutdown()
}
