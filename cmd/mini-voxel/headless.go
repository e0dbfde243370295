package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"mini-voxel/internal/config"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"
)

// runHeadless ticks the manager at the configured rate. With maxTicks 0 it
// stops once the load cube is generated and meshed (after walking, if asked).
func runHeadless(ctx context.Context, logger *log.Logger, mgr *terrain.Manager, cfg config.Config, maxTicks, walk int) error {
	ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRateHz))
	defer ticker.Stop()

	start := time.Now()
	walked := 0
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			logger.Printf("interrupted after %d ticks: %+v", n-1, mgr.Stats())
			return nil
		case <-ticker.C:
		}

		mgr.Tick()

		if n%cfg.TickRateHz == 0 {
			s := mgr.Stats()
			logger.Printf("tick=%d chunks=%d/%d meshes=%d dirty=%d/%d pending=%d/%d backoff=%d",
				s.Tick, s.Chunks, s.Desired, s.Meshes, s.Dirty, s.Remeshing, s.PendingGeneration, s.PendingMesh, s.Backoff)
		}

		if maxTicks > 0 {
			if n >= maxTicks {
				report(logger, mgr, start)
				return nil
			}
			continue
		}
		if !mgr.Converged() {
			continue
		}
		if walked < walk {
			walked++
			mgr.SetCenter(world.ChunkCoord{X: walked})
			logger.Printf("converged at %v after %s, moving to %v", mgr.Center(), time.Since(start).Round(time.Millisecond), world.ChunkCoord{X: walked})
			continue
		}
		report(logger, mgr, start)
		if s := mgr.Stats(); s.Chunks != s.Desired {
			return fmt.Errorf("converged with %d of %d chunks", s.Chunks, s.Desired)
		}
		return nil
	}
}

func report(logger *log.Logger, mgr *terrain.Manager, start time.Time) {
	s := mgr.Stats()
	logger.Printf("done in %s: converged=%v %+v", time.Since(start).Round(time.Millisecond), mgr.Converged(), s)
	logger.Printf("last tick: %s", mgr.Recorder().TopN(5))
}
