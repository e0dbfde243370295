package main

import (
	"fmt"
	"log"
	"time"

	"mini-voxel/internal/config"
	"mini-voxel/internal/graphics"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	flySpeed     = 20.0 // blocks per second
	sprintFactor = 4.0
)

// Viewer owns the window and drives terrain ticks from the frame loop.
type Viewer struct {
	logger   *log.Logger
	window   *glfw.Window
	mgr      *terrain.Manager
	renderer *graphics.ChunkRenderer
	camera   *graphics.Camera

	tickInterval time.Duration
	accumulator  time.Duration
	lastTime     time.Time
	lastTitle    time.Time
	frames       int
	paused       bool
}

func runViewer(logger *log.Logger, mgr *terrain.Manager, reg *registry.Registry, cfg config.Config, width, height int) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(width, height)
	if err != nil {
		return err
	}
	defer window.Destroy()

	r, err := graphics.NewChunkRenderer(reg)
	if err != nil {
		return err
	}
	defer r.Dispose()
	fogEnd := float32(cfg.LoadDistance * world.ChunkSize)
	r.FogStart, r.FogEnd = fogEnd*0.6, fogEnd

	fbw, fbh := window.GetFramebufferSize()
	cam := graphics.NewCamera(fbw, fbh)
	cam.FarPlane = fogEnd * 2
	cam.Position = mgl32.Vec3{8, float32(mgr.Generator().HeightAt(8, 8) + 12), 8}
	mgr.SetViewPosition(cam.Position)

	v := &Viewer{
		logger:       logger,
		window:       window,
		mgr:          mgr,
		renderer:     r,
		camera:       cam,
		tickInterval: time.Second / time.Duration(cfg.TickRateHz),
		lastTime:     time.Now(),
		lastTitle:    time.Now(),
	}
	v.setupInput()
	v.run()
	return nil
}

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "mini-voxel", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, fmt.Errorf("gl init: %w", err)
	}

	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

func (v *Viewer) setupInput() {
	v.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !v.paused {
			v.camera.Look(xpos, ypos)
		}
	})
	v.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		v.camera.Resize(width, height)
	})
	v.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			v.paused = !v.paused
			if v.paused {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				v.camera.ResetLook()
			}
		case glfw.KeyQ:
			w.SetShouldClose(true)
		case glfw.KeyP:
			v.logger.Printf("stats %+v draw %+v", v.mgr.Stats(), v.renderer.Stats())
		}
	})
}

func (v *Viewer) run() {
	for !v.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(v.lastTime)
		v.lastTime = now

		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

		if !v.paused {
			v.fly(float32(dt.Seconds()))
		}
		v.mgr.SetViewPosition(v.camera.Position)

		// Fixed-rate terrain ticks; at most a few per frame so a stall
		// cannot snowball.
		v.accumulator += dt
		for steps := 0; v.accumulator >= v.tickInterval && steps < 4; steps++ {
			v.mgr.Tick()
			v.accumulator -= v.tickInterval
		}
		v.accumulator = min(v.accumulator, v.tickInterval)

		func() {
			defer profiling.Track("render.Sync")()
			v.renderer.Sync(v.mgr.Meshes())
		}()
		func() {
			defer profiling.Track("render.Draw")()
			gl.ClearColor(v.renderer.FogColor.X(), v.renderer.FogColor.Y(), v.renderer.FogColor.Z(), 1)
			gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
			v.renderer.Draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix())
		}()
		func() { defer profiling.Track("glfw.SwapBuffers")(); v.window.SwapBuffers() }()

		v.updateTitle(now)
	}
}

func (v *Viewer) fly(dt float32) {
	var forward, right, up float32
	if v.window.GetKey(glfw.KeyW) == glfw.Press {
		forward++
	}
	if v.window.GetKey(glfw.KeyS) == glfw.Press {
		forward--
	}
	if v.window.GetKey(glfw.KeyD) == glfw.Press {
		right++
	}
	if v.window.GetKey(glfw.KeyA) == glfw.Press {
		right--
	}
	if v.window.GetKey(glfw.KeySpace) == glfw.Press {
		up++
	}
	if v.window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		up--
	}
	speed := float32(flySpeed)
	if v.window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		speed *= sprintFactor
	}
	v.camera.Move(forward, right, up, speed*dt)
}

func (v *Viewer) updateTitle(now time.Time) {
	v.frames++
	if now.Sub(v.lastTitle) < time.Second {
		return
	}
	fps := float64(v.frames) / now.Sub(v.lastTitle).Seconds()
	s := v.mgr.Stats()
	d := v.renderer.Stats()
	v.window.SetTitle(fmt.Sprintf("mini-voxel | %.0f FPS | chunk %v | chunks %d/%d meshes %d drawn %d dirty %d | render %v glfw %v | tick %s",
		fps, s.Center, s.Chunks, s.Desired, s.Meshes, d.Drawn, s.Dirty+s.Remeshing,
		profiling.SumWithPrefix("render.").Round(time.Microsecond),
		profiling.SumWithPrefix("glfw.").Round(time.Microsecond),
		v.mgr.Recorder().TopN(2)))
	v.frames = 0
	v.lastTitle = now
}
