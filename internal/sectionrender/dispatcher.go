// Package sectionrender schedules section rebuilds and translucency
// re-sorts on a worker pool and hands the finished meshes to the render
// thread for upload.
package sectionrender

import (
	"fmt"
	"sync"

	"chunkmesh/internal/config"
	"chunkmesh/internal/crash"
	"chunkmesh/internal/gpu"
	"chunkmesh/internal/layer"
	"chunkmesh/internal/logger"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/profiling"
	"chunkmesh/internal/vertex"
	"chunkmesh/internal/world"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Options configures a Dispatcher. Distances are in blocks.
type Options struct {
	Workers                int
	BufferPacks            int
	NeighborCheckDistance  float64
	HighPriorityDistance   float64
	InitialCancelThreshold int

	// Crash receives worker failures. Defaults to a new crash.Reporter.
	Crash crash.Sink
	// Listener is told about compiled sections and global block entity
	// changes. Defaults to NopListener.
	Listener Listener
}

// OptionsFromConfig converts the process-wide render settings.
func OptionsFromConfig(r config.Render) Options {
	return Options{
		Workers:                r.Workers,
		BufferPacks:            r.BufferPacks,
		NeighborCheckDistance:  r.NeighborCheckDistance,
		HighPriorityDistance:   r.HighPriorityDistance,
		InitialCancelThreshold: r.InitialCancelThreshold,
	}
}

// Listener observes the results of compiles.
type Listener interface {
	// UpdateGlobalBlockEntities is called from worker goroutines with the
	// off-screen block entities a section stopped and started holding.
	UpdateGlobalBlockEntities(removed, added []world.BlockEntity)
	// SectionCompiled is called after a section published a new result.
	SectionCompiled(s *RenderSection)
}

// NopListener ignores every notification.
type NopListener struct{}

func (NopListener) UpdateGlobalBlockEntities(removed, added []world.BlockEntity) {}
func (NopListener) SectionCompiled(*RenderSection)                              {}

// Dispatcher runs compile tasks. Queue state lives on a mailbox goroutine;
// compiles run on a worker pool, at most one per free buffer pack; GPU
// uploads wait in a queue until the render thread calls PollFrameUploads.
type Dispatcher struct {
	opts     Options
	level    world.Level
	compiler *meshing.Compiler
	backend  gpu.Backend
	crash    crash.Sink
	listener Listener

	mailbox *mailbox
	queue   *taskQueue
	packs   *meshing.PackPool
	workers pond.Pool
	uploads *uploadQueue

	fixedMu sync.Mutex
	fixed   *meshing.BufferPack

	toBatchCount atomic.Int32
	closed       atomic.Bool

	cameraMu sync.RWMutex
	camera   mgl32.Vec3
}

// NewDispatcher starts a dispatcher compiling sections of level.
func NewDispatcher(level world.Level, compiler *meshing.Compiler, backend gpu.Backend, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BufferPacks < 1 {
		opts.BufferPacks = 1
	}
	if opts.Crash == nil {
		opts.Crash = crash.NewReporter()
	}
	if opts.Listener == nil {
		opts.Listener = NopListener{}
	}
	d := &Dispatcher{
		opts:     opts,
		level:    level,
		compiler: compiler,
		backend:  backend,
		crash:    opts.Crash,
		listener: opts.Listener,
		mailbox:  newMailbox("Section Renderer"),
		queue:    newTaskQueue(),
		packs:    meshing.NewPackPool(opts.BufferPacks),
		workers:  pond.NewPool(opts.Workers),
		uploads:  newUploadQueue(),
		fixed:    meshing.NewBufferPack(),
	}
	logger.Log.Info("section dispatcher started",
		zap.Int("workers", opts.Workers),
		zap.Int("bufferPacks", opts.BufferPacks))
	d.mailbox.tell(d.runTask)
	return d
}

// runTask launches queued tasks while packs are free. Mailbox only.
func (d *Dispatcher) runTask() {
	for !d.closed.Load() && d.packs.Free() > 0 {
		t := d.queue.poll()
		if t == nil {
			return
		}
		d.toBatchCount.Store(int32(d.queue.len()))
		if !t.base().begin() {
			// Cancelled while queued.
			profiling.Count("sectionrender.cancelled", 1)
			continue
		}
		lease := d.packs.TryAcquire()
		if lease == nil {
			t.base().finish(Cancelled)
			return
		}
		d.workers.Submit(func() {
			result := d.execute(t, lease.Pack())
			if !d.mailbox.tell(func() {
				lease.Release(result == Succeeded)
				d.runTask()
			}) {
				lease.Release(false)
			}
		})
	}
}

// execute runs t and converts a panic into a crash report and Cancelled.
func (d *Dispatcher) execute(t compileTask, pack *meshing.BufferPack) (result TaskResult) {
	defer func() {
		if err := crash.Recovered(recover()); err != nil {
			d.crash.DelayCrash("Batching sections", fmt.Errorf("%s %s: %w", t.name(), t.base().id, err))
			result = Cancelled
		}
		t.base().finish(result)
		if result == Succeeded {
			profiling.Count("sectionrender.succeeded", 1)
		} else {
			profiling.Count("sectionrender.cancelled", 1)
		}
	}()
	return t.run(pack)
}

func (d *Dispatcher) schedule(t compileTask) {
	if d.closed.Load() {
		t.Cancel()
		return
	}
	profiling.Count("sectionrender.scheduled", 1)
	if !d.mailbox.tell(func() {
		if d.closed.Load() {
			t.Cancel()
			return
		}
		d.queue.push(t)
		d.toBatchCount.Store(int32(d.queue.len()))
		d.runTask()
	}) {
		t.Cancel()
	}
}

// ScheduleRebuild queues a rebuild of s from a region built by regions and
// clears its dirty flags.
func (d *Dispatcher) ScheduleRebuild(s *RenderSection, regions RegionSource) *RebuildTask {
	return s.RebuildAsync(regions)
}

// ScheduleResort queues a re-sort of layer l of s. It reports false when
// the layer is empty or a rebuild of s is outstanding.
func (d *Dispatcher) ScheduleResort(s *RenderSection, l layer.Layer) bool {
	return s.ResortTransparency(l)
}

// RebuildSectionSync compiles s on the calling goroutine's behalf with a
// dedicated buffer pack and applies its uploads before returning. It must
// be called from the thread that drains uploads.
func (d *Dispatcher) RebuildSectionSync(s *RenderSection, regions RegionSource) TaskResult {
	t := s.createCompileTask(regions)
	s.SetNotDirty()
	if !t.begin() {
		return Cancelled
	}

	d.fixedMu.Lock()
	defer d.fixedMu.Unlock()

	done := make(chan TaskResult, 1)
	go func() {
		done <- d.execute(t, d.fixed)
	}()
	var result TaskResult
	for waiting := true; waiting; {
		select {
		case result = <-done:
			waiting = false
		case <-d.uploads.signal:
			d.uploads.drain()
		}
	}
	d.uploads.drain()

	if result == Succeeded {
		d.fixed.Clear()
	} else {
		d.fixed.Discard()
	}
	return result
}

func (d *Dispatcher) uploadSectionLayer(mesh *vertex.MeshData, vb *gpu.VertexBuffer) *Future {
	if d.closed.Load() {
		mesh.Close()
		return completedFuture(nil)
	}
	return d.uploads.submit(func() error {
		return vb.Upload(mesh)
	}, mesh.Close)
}

// uploadSectionIndexBuffer queues a sorted index upload. current is checked
// again on the render thread; when it reports false the indices are dropped
// and the future fails with errStaleGeometry.
func (d *Dispatcher) uploadSectionIndexBuffer(indices *vertex.Result, t vertex.IndexType, vb *gpu.VertexBuffer, current func() bool) *Future {
	if d.closed.Load() {
		indices.Close()
		return completedFuture(nil)
	}
	return d.uploads.submit(func() error {
		if !current() {
			indices.Close()
			return errStaleGeometry
		}
		return vb.UploadIndexBuffer(indices, t)
	}, indices.Close)
}

// PollFrameUploads applies every finished upload. Call it once per frame
// from the render thread. It returns the number of uploads run.
func (d *Dispatcher) PollFrameUploads() int {
	return d.uploads.drain()
}

// clearBatchQueue cancels everything still queued. Mailbox only.
func (d *Dispatcher) clearBatchQueue() {
	for _, t := range d.queue.drain() {
		t.Cancel()
	}
	d.toBatchCount.Store(0)
}

// BlockUntilClear cancels every queued task and waits until the queue is
// empty. Running tasks are left to finish.
func (d *Dispatcher) BlockUntilClear() {
	d.mailbox.call(d.clearBatchQueue)
}

// IsQueueEmpty reports whether nothing waits to compile or upload.
func (d *Dispatcher) IsQueueEmpty() bool {
	return d.toBatchCount.Load() == 0 && d.uploads.len() == 0
}

// QueueDepth returns the number of queued tasks.
func (d *Dispatcher) QueueDepth() int {
	return int(d.toBatchCount.Load())
}

// PendingUploads returns the number of uploads waiting for the render thread.
func (d *Dispatcher) PendingUploads() int {
	return d.uploads.len()
}

// FreeBufferCount returns the number of idle buffer packs.
func (d *Dispatcher) FreeBufferCount() int {
	return d.packs.Free()
}

// Stats formats queue depth, pending uploads and free packs.
func (d *Dispatcher) Stats() string {
	return fmt.Sprintf("pC: %03d, pU: %02d, aB: %02d", d.QueueDepth(), d.PendingUploads(), d.FreeBufferCount())
}

// SetCamera sets the position rebuilds sort translucency against.
func (d *Dispatcher) SetCamera(pos mgl32.Vec3) {
	d.cameraMu.Lock()
	d.camera = pos
	d.cameraMu.Unlock()
}

func (d *Dispatcher) CameraPosition() mgl32.Vec3 {
	d.cameraMu.RLock()
	defer d.cameraMu.RUnlock()
	return d.camera
}

// Dispose cancels queued work, applies pending uploads and stops the
// workers. Uploads submitted afterwards are dropped.
func (d *Dispatcher) Dispose() {
	if !d.closed.CAS(false, true) {
		return
	}
	d.mailbox.call(d.clearBatchQueue)
	applied := d.uploads.close()
	d.workers.StopAndWait()
	d.mailbox.close()
	logger.Log.Info("section dispatcher disposed", zap.Int("uploadsApplied", applied))
}
