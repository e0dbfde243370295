package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"mini-voxel/internal/config"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/terrain"
)

func init() {
	// GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "configs/terrain.yaml", "terrain config (yaml); empty for built-in defaults")
		headless   = flag.Bool("headless", false, "run the terrain pipeline without a window")
		ticks      = flag.Int("ticks", 0, "headless: stop after this many ticks (0 = until converged)")
		walk       = flag.Int("walk", 0, "headless: after converging, move the centre this many chunks along +X")
		width      = flag.Int("width", 1280, "window width")
		height     = flag.Int("height", 720, "window height")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[mini-voxel] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	reg := registry.Default()

	mgr, err := terrain.New(cfg, reg)
	if err != nil {
		logger.Fatalf("terrain: %v", err)
	}
	defer mgr.Close()

	logger.Printf("world=%s seed=%d load_distance=%d workers=%d/%d",
		cfg.WorldType, cfg.NoiseSeed, cfg.LoadDistance, cfg.GenerationPoolSize, cfg.MeshPoolSize)

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runHeadless(ctx, logger, mgr, cfg, *ticks, *walk); err != nil {
			logger.Printf("headless: %v", err)
			mgr.Close()
			os.Exit(1)
		}
		return
	}

	if err := runViewer(logger, mgr, reg, cfg, *width, *height); err != nil {
		logger.Printf("viewer: %v", err)
		mgr.Close()
		os.Exit(1)
	}
}
