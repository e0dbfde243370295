package terrain

import (
	"sync"
	"testing"
	"time"

	"mini-voxel/internal/config"
	"mini-voxel/internal/meshing"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func testConfig(d int) config.Config {
	cfg := config.Default()
	cfg.LoadDistance = d
	cfg.NoiseSeed = 42
	cfg.GenerationPoolSize = 2
	cfg.MeshPoolSize = 2
	cfg.SlowTickMs = 0
	cfg.Retry = config.Retry{BaseTicks: 1, MaxTicks: 4}
	return cfg
}

func newTestManager(t *testing.T, cfg config.Config, opts ...Option) *Manager {
	t.Helper()
	m, err := New(cfg, registry.Default(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// tickUntil ticks the manager until cond holds, failing after a deadline.
func tickUntil(t *testing.T, m *Manager, what string, cond func() bool) int {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for ticks := 1; ; ticks++ {
		m.Tick()
		if cond() {
			return ticks
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s: not reached after %d ticks, stats %+v", what, ticks, m.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestManagerConverges(t *testing.T) {
	m := newTestManager(t, testConfig(1))
	tickUntil(t, m, "convergence", m.Converged)

	s := m.Stats()
	if s.Chunks != 27 || s.Meshes != 27 || s.Desired != 27 {
		t.Errorf("chunks=%d meshes=%d desired=%d, want 27", s.Chunks, s.Meshes, s.Desired)
	}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				c := world.ChunkCoord{X: x, Y: y, Z: z}
				if !m.Store().Has(c) {
					t.Errorf("missing chunk %v", c)
				}
			}
		}
	}
	if s.PendingGeneration != 0 || s.PendingMesh != 0 {
		t.Errorf("work outstanding after convergence: %+v", s)
	}
}

// D=1, seed 42: move the centre one chunk east and converge again.
func TestManagerMoveEvictsAndRefills(t *testing.T) {
	m := newTestManager(t, testConfig(1))
	tickUntil(t, m, "initial convergence", m.Converged)

	m.SetCenter(world.ChunkCoord{X: 1})
	m.Tick()

	// Eviction happens within the tick that observed the move.
	for _, c := range m.Store().Coords() {
		if c.X == -1 {
			t.Errorf("chunk %v not evicted", c)
		}
	}
	for c := range m.Meshes().Snapshot() {
		if c.X == -1 {
			t.Errorf("mesh %v not evicted", c)
		}
	}
	if s := m.Stats(); s.Evicted != 9 {
		t.Errorf("evicted %d chunks, want 9", s.Evicted)
	}

	tickUntil(t, m, "convergence after move", m.Converged)
	if n := m.Store().Len(); n != 27 {
		t.Errorf("store holds %d chunks, want 27", n)
	}
	for y := -1; y <= 1; y++ {
		for z := -1; z <= 1; z++ {
			if c := (world.ChunkCoord{X: 2, Y: y, Z: z}); !m.Store().Has(c) {
				t.Errorf("new position %v not loaded", c)
			}
		}
	}
}

func TestManagerChunksMatchGenerator(t *testing.T) {
	m := newTestManager(t, testConfig(1))
	tickUntil(t, m, "convergence", m.Converged)

	gen := world.NewGenerator(world.DefaultGeneratorSettings(42))
	for _, coord := range m.Store().Coords() {
		want := world.NewChunk(coord)
		gen.PopulateChunk(want)
		if *m.Store().Get(coord).Blocks() != *want.Blocks() {
			t.Errorf("chunk %v differs from a direct generation", coord)
		}
	}
}

// In a flat world the centre chunk has loaded neighbours on all four sides,
// so once they arrive its mesh is only the top and bottom layers.
func TestManagerRemeshesWhenNeighborsArrive(t *testing.T) {
	m := newTestManager(t, testConfig(1), WithGenerator(world.NewFlatGenerator(4)))
	tickUntil(t, m, "convergence", m.Converged)

	e, ok := m.Meshes().Get(world.ChunkCoord{})
	if !ok {
		t.Fatalf("centre chunk has no mesh")
	}
	if got, want := e.Mesh.FaceCount(), 2*world.ChunkSize*world.ChunkSize; got != want {
		t.Errorf("centre mesh has %d faces, want %d", got, want)
	}
	if e.Chunk != m.Store().Get(world.ChunkCoord{}) || e.Chunk.IsDirty() {
		t.Errorf("centre mesh not current")
	}
}

func TestManagerSetBlockRemeshes(t *testing.T) {
	m := newTestManager(t, testConfig(1), WithGenerator(world.NewFlatGenerator(4)))
	tickUntil(t, m, "convergence", m.Converged)

	before, _ := m.Meshes().Get(world.ChunkCoord{})
	pos := world.BlockPos{X: 5, Y: 5, Z: 5}
	if !m.SetBlock(pos, world.BlockTypeStone) {
		t.Fatalf("SetBlock returned false")
	}
	// The six face neighbours are dirtied; the edited copy is simply unmeshed.
	if s := m.Stats(); s.Dirty != 6 || s.Remeshing != 0 {
		t.Errorf("after edit dirty=%d remeshing=%d, want 6/0", s.Dirty, s.Remeshing)
	}
	tickUntil(t, m, "remesh after edit", m.Converged)

	after, ok := m.Meshes().Get(world.ChunkCoord{})
	if !ok {
		t.Fatalf("mesh missing after edit")
	}
	if after.Chunk == before.Chunk || after.Seq <= before.Seq {
		t.Errorf("mesh not rebuilt from the edited chunk")
	}
	// Stone on the grass: five new faces, one grass top hidden.
	if got, want := after.Mesh.FaceCount(), before.Mesh.FaceCount()+4; got != want {
		t.Errorf("faces after edit = %d, want %d", got, want)
	}
	if m.GetBlock(pos) != world.BlockTypeStone {
		t.Errorf("edit not visible through the store")
	}
}

// flakyGenerator panics for the first failures attempts at each listed coordinate.
type flakyGenerator struct {
	world.TerrainGenerator
	mu       sync.Mutex
	failures map[world.ChunkCoord]int
}

func (g *flakyGenerator) PopulateChunk(c *world.Chunk) {
	g.mu.Lock()
	n := g.failures[c.Coord]
	if n > 0 {
		g.failures[c.Coord] = n - 1
	}
	g.mu.Unlock()
	if n > 0 {
		panic("transient generator failure")
	}
	g.TerrainGenerator.PopulateChunk(c)
}

func TestManagerRetriesFailedGeneration(t *testing.T) {
	gen := &flakyGenerator{
		TerrainGenerator: world.NewFlatGenerator(4),
		failures:         map[world.ChunkCoord]int{{}: 2, {X: 1}: 1},
	}
	m := newTestManager(t, testConfig(1), WithGenerator(gen))
	tickUntil(t, m, "convergence with failures", m.Converged)

	s := m.Stats()
	if s.Failures != 3 {
		t.Errorf("failures = %d, want 3", s.Failures)
	}
	if s.Backoff != 0 {
		t.Errorf("retry state left behind: %d entries", s.Backoff)
	}
	if !m.Store().Has(world.ChunkCoord{}) {
		t.Errorf("failed position never recovered")
	}
}

// flakyLookup panics in FaceLayer for the first failures calls.
type flakyLookup struct {
	meshing.BlockLookup
	mu       sync.Mutex
	failures int
}

func (l *flakyLookup) FaceLayer(id world.BlockType, face world.BlockFace) int {
	l.mu.Lock()
	n := l.failures
	if n > 0 {
		l.failures--
	}
	l.mu.Unlock()
	if n > 0 {
		panic("transient mesher failure")
	}
	return l.BlockLookup.FaceLayer(id, face)
}

func TestManagerRetriesFailedMesh(t *testing.T) {
	lookup := &flakyLookup{BlockLookup: registry.Default(), failures: 2}
	m := newTestManager(t, testConfig(0),
		WithGenerator(world.NewFlatGenerator(4)),
		WithBlockLookup(lookup))
	tickUntil(t, m, "convergence with mesh failures", m.Converged)

	s := m.Stats()
	if s.Failures != 2 {
		t.Errorf("failures = %d, want 2", s.Failures)
	}
	if s.Backoff != 0 || s.Dirty != 0 || s.Remeshing != 0 {
		t.Errorf("state left behind: backoff=%d dirty=%d remeshing=%d", s.Backoff, s.Dirty, s.Remeshing)
	}
	e, ok := m.Meshes().Get(world.ChunkCoord{})
	if !ok {
		t.Fatalf("no mesh installed after retries")
	}
	if e.Chunk != m.Store().Get(world.ChunkCoord{}) || e.Chunk.IsDirty() || e.Mesh.IsEmpty() {
		t.Errorf("installed mesh is not current")
	}
}

func TestManagerGenerationRateLimit(t *testing.T) {
	cfg := testConfig(2)
	cfg.GenerationRate = 5
	m := newTestManager(t, cfg)
	m.Tick()
	s := m.Stats()
	if got := s.PendingGeneration + s.Chunks; got > 5 {
		t.Errorf("first tick requested %d chunks, limit allows 5", got)
	}
}

func TestManagerPendingCap(t *testing.T) {
	cfg := testConfig(2)
	cfg.MaxPendingGeneration = 3
	m := newTestManager(t, cfg)
	m.Tick()
	if p := m.Stats().PendingGeneration; p > 3 {
		t.Errorf("pending generation %d exceeds cap 3", p)
	}
	tickUntil(t, m, "convergence under a small cap", m.Converged)
	if n := m.Store().Len(); n != 125 {
		t.Errorf("store holds %d chunks, want 125", n)
	}
}

func TestSetViewPosition(t *testing.T) {
	m := newTestManager(t, testConfig(0))
	m.SetViewPosition(mgl32.Vec3{20, -3, 40})
	m.Tick()
	if want := (world.ChunkCoord{X: 1, Y: -1, Z: 2}); m.Center() != want {
		t.Errorf("center = %v, want %v", m.Center(), want)
	}

	// Moving inside the same cell keeps the desired set.
	m.SetViewPosition(mgl32.Vec3{31, -1, 47})
	if m.needDesired {
		t.Errorf("move within the cell scheduled a recompute")
	}
	tickUntil(t, m, "single chunk", m.Converged)
	if n := m.Store().Len(); n != 1 {
		t.Errorf("D=0 store holds %d chunks", n)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(1)
	cfg.ChunkEdgeLength = 32
	if _, err := New(cfg, registry.Default()); err == nil {
		t.Fatalf("expected error for chunk_edge_length 32")
	}

	cfg = testConfig(1)
	cfg.Blocks.Surface = "lava"
	if _, err := New(cfg, registry.Default()); err == nil {
		t.Fatalf("expected error for unknown surface block")
	}
}

func TestManagerRecordsTickPhases(t *testing.T) {
	rec := profiling.NewRecorder()
	m := newTestManager(t, testConfig(1), WithRecorder(rec))
	m.Tick()
	if m.Recorder() != rec {
		t.Fatalf("recorder option ignored")
	}
	snap := rec.Snapshot()
	for _, phase := range []string{"terrain.UpdateDesired", "terrain.RequestGeneration", "terrain.DrainMeshes"} {
		if _, ok := snap[phase]; !ok {
			t.Errorf("phase %s not recorded, have %v", phase, snap)
		}
	}
}

func TestLoadOffsetsNearestFirst(t *testing.T) {
	offs := loadOffsets(2)
	if len(offs) != 125 {
		t.Fatalf("len = %d, want 125", len(offs))
	}
	if offs[0] != (world.ChunkCoord{}) {
		t.Errorf("first offset %v, want origin", offs[0])
	}
	prev := 0
	for _, o := range offs {
		d := o.ChebyshevDistance(world.ChunkCoord{})
		if d < prev {
			t.Fatalf("offsets not sorted by distance at %v", o)
		}
		prev = d
	}
}

func BenchmarkManagerConverge(b *testing.B) {
	for i := 0; i < b.N; i++ {
		m, err := New(testConfig(2), registry.Default())
		if err != nil {
			b.Fatal(err)
		}
		for !m.Converged() {
			m.Tick()
			time.Sleep(100 * time.Microsecond)
		}
		m.Close()
	}
}
