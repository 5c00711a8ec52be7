package main

import (
	"time"

	"chunkmesh/internal/camera"
	"chunkmesh/internal/config"
	"chunkmesh/internal/crash"
	"chunkmesh/internal/gpu/glbackend"
	"chunkmesh/internal/layer"
	"chunkmesh/internal/logger"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/profiling"
	"chunkmesh/internal/registry"
	"chunkmesh/internal/sectionrender"
	"chunkmesh/internal/world"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type viewer struct {
	window     *glfw.Window
	cam        *camera.Camera
	store      *world.ChunkStore
	streamer   *world.ChunkStreamer
	backend    *glbackend.Backend
	shader     *glbackend.Shader
	reporter   *crash.Reporter
	dispatcher *sectionrender.Dispatcher
	view       *sectionrender.ViewArea

	paused    bool
	wireframe bool
	placing   world.BlockType
	limiter   fpsLimiter
}

// run owns the viewer. Everything touching GL goes through mainthread.
func run() {
	registry.InitRegistry("")

	v := &viewer{
		cam:      camera.New(windowWidth, windowHeight),
		placing:  world.BlockTypeStone,
		limiter:  fpsLimiter{limit: frameCap},
		store:    world.NewChunkStore(),
		reporter: crash.NewReporter(),
	}
	gen := world.NewConfiguredGenerator()
	v.streamer = world.NewChunkStreamer(v.store, gen)
	defer v.streamer.Close()
	v.streamer.StreamAroundSync(0, 0, 2)
	v.cam.Position = mgl32.Vec3{0.5, float32(gen.HeightAt(0, 0) + 8), 0.5}

	err := mainthread.CallErr(func() error {
		if err := glfw.Init(); err != nil {
			return err
		}
		window, err := setupWindow()
		if err != nil {
			return err
		}
		v.window = window
		v.shader, err = glbackend.NewSectionShader()
		return err
	})
	if err != nil {
		logger.Log.Fatal("viewer setup failed", zap.Error(err))
	}
	defer mainthread.Call(glfw.Terminate)

	cfg := config.Snapshot()
	opts := sectionrender.OptionsFromConfig(cfg)
	opts.Crash = v.reporter
	compiler := &meshing.Compiler{
		Blocks:    &meshing.ModelMesher{Sprites: registry.Atlas{}},
		Liquids:   &meshing.LiquidRenderer{Sprites: registry.Atlas{}},
		Renderers: registry.Renderers{},
	}
	v.backend = glbackend.New()
	v.dispatcher = sectionrender.NewDispatcher(v.store, compiler, v.backend, opts)
	v.view = sectionrender.NewViewArea(v.dispatcher, v.store, registry.DefaultPalette(), world.ConstantLight{Sky: 15})
	v.store.SetListener(v.view.MarkDirty)
	mainthread.Call(v.setupInputHandlers)

	logger.Log.Info("viewer started",
		zap.Int("renderDistance", cfg.RenderDistance),
		zap.Int("workers", cfg.Workers),
		zap.Int("bufferPacks", cfg.BufferPacks))

	v.loop(cfg.RenderDistance)

	mainthread.Call(func() {
		v.dispatcher.Dispose()
		err := multierr.Combine(v.view.Release(), v.backend.Close())
		if err != nil {
			logger.Log.Warn("releasing GPU resources", zap.Error(err))
		}
		v.shader.Delete()
		v.window.Destroy()
	})
}

func (v *viewer) loop(renderDistance int) {
	frames := 0
	lastFPSCheckTime := time.Now()
	lastTime := time.Now()
	lastEvict := time.Now()

	for closing := false; !closing; {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		pos := v.cam.Position
		func() {
			defer profiling.Track("world.StreamAroundAsync")()
			v.streamer.StreamAroundAsync(pos.X(), pos.Z(), config.GetChunkLoadRadius())
		}()
		if time.Since(lastEvict) > 750*time.Millisecond {
			func() {
				defer profiling.Track("world.EvictFarChunks")()
				v.streamer.EvictFarChunks(pos.X(), pos.Z(), config.GetChunkEvictRadius())
			}()
			lastEvict = time.Now()
		}

		mainthread.Call(func() {
			v.frame(dt, renderDistance)
			closing = v.window.ShouldClose()
		})
		frames++
		v.limiter.Wait()

		if time.Since(lastFPSCheckTime) >= time.Second {
			logger.Log.Info("frame stats",
				zap.Int("fps", frames),
				zap.String("dispatcher", v.dispatcher.Stats()),
				zap.Int("sections", v.view.Len()),
				zap.String("top", profiling.TopN(5)))
			frames = 0
			lastFPSCheckTime = time.Now()
		}
	}
}

// frame runs on the main thread.
func (v *viewer) frame(dt float64, renderDistance int) {
	if !v.paused {
		forward, right, up := v.movement()
		v.cam.Move(forward, right, up, dt)
	}

	if _, err := v.view.Update(v.cam.Position, renderDistance); err != nil {
		logger.Log.Warn("view update", zap.Error(err))
	}
	v.dispatcher.PollFrameUploads()

	func() {
		defer profiling.Track("render.Draw")()
		v.draw()
	}()

	func() {
		defer profiling.Track("glfw.SwapBuffers")()
		v.window.SwapBuffers()
	}()
	func() {
		defer profiling.Track("glfw.PollEvents")()
		glfw.PollEvents()
	}()
}

func (v *viewer) draw() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	proj := v.cam.ProjectionMatrix()
	view := v.cam.ViewMatrix()
	frustum := sectionrender.NewFrustum(proj.Mul4(view), 1)

	v.shader.Use()
	v.shader.SetMatrix4("projection", proj)
	v.shader.SetMatrix4("view", view)
	before := func(origin world.BlockPos) {
		v.shader.SetVector3("sectionOffset", origin.Vec3())
	}

	for _, l := range layer.All() {
		cutoff := float32(0)
		switch l {
		case layer.Cutout, layer.CutoutMipped, layer.Tripwire:
			cutoff = 0.5
		case layer.Translucent:
			gl.Enable(gl.BLEND)
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
			gl.DepthMask(false)
		}
		v.shader.SetFloat("alphaCutoff", cutoff)
		if _, err := v.view.DrawLayer(l, frustum, before); err != nil {
			logger.Log.Warn("draw layer", zap.Stringer("layer", l), zap.Error(err))
		}
		if l == layer.Translucent {
			gl.DepthMask(true)
			gl.Disable(gl.BLEND)
		}
	}
}
