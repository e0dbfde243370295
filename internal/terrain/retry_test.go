package terrain

import (
	"testing"

	"mini-voxel/internal/world"
)

func TestBackoffDelays(t *testing.T) {
	b := newBackoff(2, 10)
	c := world.ChunkCoord{X: 3}
	want := []int{2, 4, 8, 10, 10}
	for i, w := range want {
		delay, attempts := b.fail(c, taskGenerate, 100)
		if delay != w || attempts != i+1 {
			t.Errorf("attempt %d: delay=%d attempts=%d, want %d/%d", i+1, delay, attempts, w, i+1)
		}
	}
}

func TestBackoffReady(t *testing.T) {
	b := newBackoff(3, 30)
	c := world.ChunkCoord{}
	if !b.ready(c, taskMesh, 0) {
		t.Fatalf("unknown position should be ready")
	}
	b.fail(c, taskMesh, 10)
	if b.ready(c, taskMesh, 12) {
		t.Errorf("ready before the delay elapsed")
	}
	if !b.ready(c, taskMesh, 13) {
		t.Errorf("not ready after the delay")
	}
	// Kinds are tracked separately.
	if !b.ready(c, taskGenerate, 11) || b.len() != 1 {
		t.Errorf("mesh failure leaked into generation state")
	}
	b.succeed(c, taskMesh)
	if !b.ready(c, taskMesh, 0) || b.len() != 0 {
		t.Errorf("succeed did not clear state")
	}
}

func TestBackoffForgetOutside(t *testing.T) {
	b := newBackoff(1, 1)
	b.fail(world.ChunkCoord{X: 1}, taskGenerate, 0)
	b.fail(world.ChunkCoord{X: 5}, taskMesh, 0)
	b.forgetOutside(world.ChunkCoord{}, 2)
	if b.len() != 1 || b.ready(world.ChunkCoord{X: 1}, taskGenerate, 0) {
		t.Errorf("forgetOutside kept the wrong entries")
	}
}

func TestBackoffClampsConfig(t *testing.T) {
	b := newBackoff(0, 0)
	if d, _ := b.fail(world.ChunkCoord{}, taskGenerate, 0); d != 1 {
		t.Errorf("delay = %d, want 1", d)
	}
}
