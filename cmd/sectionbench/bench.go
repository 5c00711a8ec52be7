package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"chunkmesh/internal/config"
	"chunkmesh/internal/crash"
	"chunkmesh/internal/gpu"
	"chunkmesh/internal/layer"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/profiling"
	"chunkmesh/internal/registry"
	"chunkmesh/internal/sectionrender"
	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

var errTimeout = errors.New("queue did not drain before the timeout")

// bench drives a dispatcher against the in-memory backend.
type bench struct {
	cfg        config.Render
	store      *world.ChunkStore
	streamer   *world.ChunkStreamer
	gen        world.TerrainGenerator
	backend    *gpu.MemoryBackend
	reporter   *crash.Reporter
	dispatcher *sectionrender.Dispatcher
	view       *sectionrender.ViewArea
	camera     mgl32.Vec3
}

type report struct {
	Sections    int
	Settle      time.Duration
	SettleSteps int
	Flight      time.Duration
	Uploads     int
	Draws       int
	Counters    map[string]int64
	Stats       string
	Crashes     []crash.Report
	Top         string
}

func (r report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sections:    %d\n", r.Sections)
	fmt.Fprintf(&sb, "settle:      %s (%d steps)\n", r.Settle.Round(time.Millisecond), r.SettleSteps)
	fmt.Fprintf(&sb, "flight:      %s\n", r.Flight.Round(time.Millisecond))
	fmt.Fprintf(&sb, "uploads:     %d\n", r.Uploads)
	fmt.Fprintf(&sb, "draws:       %d\n", r.Draws)
	fmt.Fprintf(&sb, "scheduled:   %d\n", r.Counters["sectionrender.scheduled"])
	fmt.Fprintf(&sb, "succeeded:   %d\n", r.Counters["sectionrender.succeeded"])
	fmt.Fprintf(&sb, "cancelled:   %d\n", r.Counters["sectionrender.cancelled"])
	fmt.Fprintf(&sb, "dispatcher:  %s\n", r.Stats)
	fmt.Fprintf(&sb, "last frame:  %s\n", r.Top)
	for _, c := range r.Crashes {
		fmt.Fprintf(&sb, "crash:       %s\n", c)
	}
	return sb.String()
}

func newBench(cfg config.Render) *bench {
	registry.InitRegistry("")
	b := &bench{
		cfg:      cfg,
		store:    world.NewChunkStore(),
		gen:      world.NewConfiguredGenerator(),
		backend:  gpu.NewMemoryBackend(),
		reporter: crash.NewReporter(),
	}
	b.streamer = world.NewChunkStreamer(b.store, b.gen)

	opts := sectionrender.OptionsFromConfig(cfg)
	opts.Crash = b.reporter
	compiler := &meshing.Compiler{
		Blocks:    &meshing.ModelMesher{Sprites: registry.Atlas{}},
		Liquids:   &meshing.LiquidRenderer{Sprites: registry.Atlas{}},
		Renderers: registry.Renderers{},
	}
	b.dispatcher = sectionrender.NewDispatcher(b.store, compiler, b.backend, opts)
	b.view = sectionrender.NewViewArea(b.dispatcher, b.store, registry.DefaultPalette(), world.ConstantLight{Sky: 15})
	b.store.SetListener(b.view.MarkDirty)
	b.camera = mgl32.Vec3{0.5, float32(b.gen.HeightAt(0, 0) + 8), 0.5}
	return b
}

// step runs one frame: stream, update the view, apply uploads.
func (b *bench) step() (sectionrender.UpdateStats, error) {
	profiling.ResetFrame()
	b.streamer.StreamAroundAsync(b.camera.X(), b.camera.Z(), b.cfg.RenderDistance+1)
	st, err := b.view.Update(b.camera, b.cfg.RenderDistance)
	b.dispatcher.PollFrameUploads()
	return st, err
}

// settle steps until nothing is left to stream, schedule or upload.
func (b *bench) settle(deadline time.Time) (int, error) {
	steps := 0
	idle := 0
	for idle < 3 {
		if time.Now().After(deadline) {
			return steps, fmt.Errorf("%w: %s", errTimeout, b.dispatcher.Stats())
		}
		st, err := b.step()
		if err != nil {
			return steps, err
		}
		steps++
		if st.Async+st.Sync+st.Created == 0 && b.streamer.Pending() == 0 && b.dispatcher.IsQueueEmpty() {
			idle++
		} else {
			idle = 0
		}
		time.Sleep(time.Millisecond)
	}
	return steps, nil
}

// Run builds every section around the spawn, then flies the camera in a
// circle for frames steps and reports what the dispatcher did.
func (b *bench) Run(frames int, timeout time.Duration) (report, error) {
	var r report
	start := time.Now()
	steps, err := b.settle(start.Add(timeout))
	if err != nil {
		return r, err
	}
	r.Settle = time.Since(start)
	r.SettleSteps = steps

	start = time.Now()
	center := b.camera
	for i := 0; i < frames; i++ {
		angle := 2 * math.Pi * float64(i) / float64(max(frames, 1))
		b.camera = center.Add(mgl32.Vec3{
			float32(math.Cos(angle)) * 24,
			0,
			float32(math.Sin(angle)) * 24,
		})
		if _, err := b.step(); err != nil {
			return r, err
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := b.settle(time.Now().Add(timeout)); err != nil {
		return r, err
	}
	r.Flight = time.Since(start)

	var errs error
	for _, l := range layer.All() {
		n, err := b.view.DrawLayer(l, nil, nil)
		errs = multierr.Append(errs, err)
		r.Draws += n
	}
	r.Sections = b.view.Len()
	r.Uploads = b.backend.Uploads()
	r.Counters = profiling.Counters()
	r.Stats = b.dispatcher.Stats()
	r.Crashes = b.reporter.Drain()
	r.Top = profiling.TopN(5)
	return r, errs
}

// Close stops streaming and compiling and frees every buffer.
func (b *bench) Close() error {
	b.streamer.Close()
	b.dispatcher.Dispose()
	err := b.view.Release()
	if live := b.backend.Live(); live != 0 {
		err = multierr.Append(err, fmt.Errorf("%d buffers still live", live))
	}
	return err
}
