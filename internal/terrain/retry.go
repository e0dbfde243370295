package terrain

import "mini-voxel/internal/world"

type taskKind int

const (
	taskGenerate taskKind = iota
	taskMesh
)

func (k taskKind) String() string {
	if k == taskMesh {
		return "mesh"
	}
	return "generate"
}

type retryKey struct {
	coord world.ChunkCoord
	kind  taskKind
}

type retryState struct {
	attempts int
	readyAt  uint64 // first tick a new attempt may be submitted
}

// backoff delays resubmission of failed tasks by base·2^(n-1) ticks, capped at limit.
type backoff struct {
	base, limit int
	entries     map[retryKey]*retryState
}

func newBackoff(baseTicks, maxTicks int) *backoff {
	baseTicks = max(baseTicks, 1)
	return &backoff{base: baseTicks, limit: max(maxTicks, baseTicks), entries: make(map[retryKey]*retryState)}
}

// fail records a failed attempt at tick and returns the delay in ticks.
func (b *backoff) fail(coord world.ChunkCoord, kind taskKind, tick uint64) (delay, attempts int) {
	key := retryKey{coord, kind}
	st := b.entries[key]
	if st == nil {
		st = &retryState{}
		b.entries[key] = st
	}
	st.attempts++
	delay = b.base
	for i := 1; i < st.attempts && delay < b.limit; i++ {
		delay *= 2
	}
	delay = min(delay, b.limit)
	st.readyAt = tick + uint64(delay)
	return delay, st.attempts
}

func (b *backoff) ready(coord world.ChunkCoord, kind taskKind, tick uint64) bool {
	st := b.entries[retryKey{coord, kind}]
	return st == nil || tick >= st.readyAt
}

func (b *backoff) succeed(coord world.ChunkCoord, kind taskKind) {
	delete(b.entries, retryKey{coord, kind})
}

func (b *backoff) forgetOutside(center world.ChunkCoord, radius int) {
	for key := range b.entries {
		if key.coord.ChebyshevDistance(center) > radius {
			delete(b.entries, key)
		}
	}
}

func (b *backoff) len() int {
	return len(b.entries)
}
