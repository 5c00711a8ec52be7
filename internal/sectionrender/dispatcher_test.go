package sectionrender

import (
	"sync"
	"testing"
	"time"

	"chunkmesh/internal/crash"
	"chunkmesh/internal/gpu"
	"chunkmesh/internal/layer"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/registry"
	"chunkmesh/internal/vertex"
	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

type fixture struct {
	store    *world.ChunkStore
	backend  *gpu.MemoryBackend
	reporter *crash.Reporter
	listener *recordingListener
	d        *Dispatcher
}

func testOptions() Options {
	return Options{
		Workers:                2,
		BufferPacks:            2,
		NeighborCheckDistance:  24,
		HighPriorityDistance:   48,
		InitialCancelThreshold: 2,
	}
}

func testCompiler() *meshing.Compiler {
	registry.InitRegistry("")
	return &meshing.Compiler{
		Blocks:    &meshing.ModelMesher{Sprites: registry.Atlas{}},
		Liquids:   &meshing.LiquidRenderer{Sprites: registry.Atlas{}},
		Renderers: registry.Renderers{},
	}
}

// newFixture loads the 3x3 columns around the origin column.
func newFixture(t *testing.T, compiler *meshing.Compiler, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:    world.NewChunkStore(),
		backend:  gpu.NewMemoryBackend(),
		reporter: crash.NewReporter(),
		listener: &recordingListener{},
	}
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			f.store.AddChunk(world.NewChunk(x, z))
		}
	}
	opts.Crash = f.reporter
	opts.Listener = f.listener
	f.d = NewDispatcher(f.store, compiler, f.backend, opts)
	t.Cleanup(f.d.Dispose)
	return f
}

func (f *fixture) regions() *world.RegionCache {
	return world.NewRegionCache(f.store, registry.DefaultPalette(), world.ConstantLight{Sky: 15})
}

func (f *fixture) section(t *testing.T, origin world.BlockPos) *RenderSection {
	t.Helper()
	s, err := f.d.NewSection(0, origin)
	if err != nil {
		t.Fatalf("new section: %v", err)
	}
	return s
}

// waitDone pumps uploads until cond holds.
func waitDone(t *testing.T, d *Dispatcher, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out: %s", d.Stats())
		}
		d.PollFrameUploads()
		time.Sleep(time.Millisecond)
	}
}

type recordingListener struct {
	mu       sync.Mutex
	added    []world.BlockEntity
	removed  []world.BlockEntity
	compiled int
}

func (l *recordingListener) UpdateGlobalBlockEntities(removed, added []world.BlockEntity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.added = append(l.added, added...)
	l.removed = append(l.removed, removed...)
}

func (l *recordingListener) SectionCompiled(*RenderSection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.compiled++
}

func (l *recordingListener) counts() (added, removed, compiled int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.added), len(l.removed), l.compiled
}

func TestRebuildUploadsAndPublishes(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	task := f.d.ScheduleRebuild(s, f.regions())
	if s.IsDirty() {
		t.Fatal("scheduling should clear the dirty flag")
	}
	waitDone(t, f.d, func() bool { return task.State().Terminal() })

	if got := task.State(); got != TaskSucceeded {
		t.Fatalf("state: got %s, want %s", got, TaskSucceeded)
	}
	compiled := s.Compiled()
	if compiled == Uncompiled || compiled == Empty {
		t.Fatal("expected a real compile result")
	}
	if compiled.IsEmpty(layer.Solid) || compiled.Layers().Len() != 1 {
		t.Fatalf("layers: got %d, want only solid", compiled.Layers().Len())
	}
	if err := s.Draw(layer.Solid); err != nil {
		t.Fatalf("draw: %v", err)
	}
	draws := f.backend.Draws()
	if len(draws) != 1 || draws[0].Count != 36 {
		t.Fatalf("draws: got %+v, want one draw of 36 indices", draws)
	}
	if _, _, n := f.listener.counts(); n != 1 {
		t.Fatalf("compiled notifications: got %d, want 1", n)
	}
	waitDone(t, f.d, func() bool { return f.d.FreeBufferCount() == 2 })
}

func TestEmptySectionPublishesEmpty(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{Y: 64})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if s.Compiled() != Empty {
		t.Fatal("empty section should publish Empty")
	}
	if !s.Compiled().FacesCanSeeEachOther(world.Up, world.Down) {
		t.Fatal("empty section should be see-through")
	}
}

func TestMissingNeighborsCancelAndRedirty(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(20, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{X: 16})
	f.d.SetCamera(mgl32.Vec3{24, 8, 8})

	// Column x=2 is not loaded, so the east neighbour is missing.
	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })

	if got := task.State(); got != TaskCancelled {
		t.Fatalf("state: got %s, want %s", got, TaskCancelled)
	}
	if s.Compiled() != Uncompiled {
		t.Fatal("a cancelled rebuild must not publish")
	}
	if !s.IsDirty() {
		t.Fatal("cancelled rebuild should mark the section dirty again")
	}
}

func TestFarSectionsSkipNeighborCheck(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(40, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{X: 32})
	f.d.SetCamera(mgl32.Vec3{-200, 8, 8})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if got := task.State(); got != TaskSucceeded {
		t.Fatalf("state: got %s, want %s", got, TaskSucceeded)
	}
	if task.HighPriority() {
		t.Fatal("far, non-player rebuild should be low priority")
	}
}

func TestCancelAfterSuccessIsNoop(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	before := s.Compiled()

	task.Cancel()
	if task.State() != TaskSucceeded {
		t.Fatalf("state after late cancel: got %s", task.State())
	}
	if s.Compiled() != before {
		t.Fatal("late cancel changed the published result")
	}
	if s.IsDirty() {
		t.Fatal("late cancel should not mark the section dirty")
	}
}

func TestReleasedBufferDropsUpload(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	task := f.d.ScheduleRebuild(s, f.regions())
	deadline := time.Now().Add(5 * time.Second)
	for f.d.PendingUploads() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("upload never queued")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.ReleaseBuffers(); err != nil {
		t.Fatalf("release: %v", err)
	}
	waitDone(t, f.d, func() bool { return task.State().Terminal() })

	if got := task.State(); got != TaskCancelled {
		t.Fatalf("state: got %s, want %s", got, TaskCancelled)
	}
	if got := f.backend.Uploads(); got != 0 {
		t.Fatalf("uploads: got %d, want 0", got)
	}
	if s.Compiled() != Uncompiled {
		t.Fatal("released section should stay uncompiled")
	}
}

type panicMesher struct{}

func (panicMesher) MeshBlock(meshing.Region, world.BlockPos, world.BlockState, vertex.Pose, vertex.Consumer) {
	panic("model exploded")
}

func TestWorkerPanicGoesToCrashSink(t *testing.T) {
	compiler := testCompiler()
	compiler.Blocks = panicMesher{}
	f := newFixture(t, compiler, testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if got := task.State(); got != TaskCancelled {
		t.Fatalf("state: got %s, want %s", got, TaskCancelled)
	}
	reports := f.reporter.Reports()
	if len(reports) != 1 || reports[0].Label != "Batching sections" {
		t.Fatalf("reports: got %v", reports)
	}

	// The dispatcher keeps going.
	empty := f.section(t, world.BlockPos{Y: 64})
	next := f.d.ScheduleRebuild(empty, f.regions())
	waitDone(t, f.d, func() bool { return next.State().Terminal() })
	if next.State() != TaskSucceeded {
		t.Fatalf("next task: got %s, want %s", next.State(), TaskSucceeded)
	}
	waitDone(t, f.d, func() bool { return f.d.FreeBufferCount() == 2 })
}

func TestGlobalBlockEntitiesDiffed(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	pos := world.BlockPos{X: 3, Y: 3, Z: 3}
	f.store.Set(pos.X, pos.Y, pos.Z, world.BlockTypeBeacon, false)
	f.store.Set(0, 0, 0, world.BlockTypeStone, false)
	be := &world.SimpleBlockEntity{Position: pos, Type: registry.KindBeacon}
	f.store.SetBlockEntity(be)
	s := f.section(t, world.BlockPos{})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if added, removed, _ := f.listener.counts(); added != 1 || removed != 0 {
		t.Fatalf("after first compile: added %d removed %d, want 1 0", added, removed)
	}
	if got := len(s.GlobalBlockEntities()); got != 1 {
		t.Fatalf("global block entities: got %d, want 1", got)
	}

	f.store.Chunk(0, 0).RemoveBlockEntity(pos)
	f.store.Set(pos.X, pos.Y, pos.Z, world.BlockTypeAir, false)
	task = f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if added, removed, _ := f.listener.counts(); added != 1 || removed != 1 {
		t.Fatalf("after second compile: added %d removed %d, want 1 1", added, removed)
	}
}

func TestResortRewritesIndexBuffer(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(2, 5, 5, world.BlockTypeStainedGlass, false)
	f.store.Set(9, 5, 5, world.BlockTypeStainedGlass, false)
	s := f.section(t, world.BlockPos{})
	f.d.SetCamera(mgl32.Vec3{-10, 5, 5})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if s.Compiled().TransparencyState() == nil {
		t.Fatal("translucent section should keep a sort state")
	}
	uploads := f.backend.Uploads()

	f.d.SetCamera(mgl32.Vec3{30, 5, 5})
	if !f.d.ScheduleResort(s, layer.Translucent) {
		t.Fatal("resort of a translucent section should schedule")
	}
	resort := s.lastResort
	waitDone(t, f.d, func() bool { return resort.State().Terminal() })
	if got := resort.State(); got != TaskSucceeded {
		t.Fatalf("resort state: got %s, want %s", got, TaskSucceeded)
	}
	if got := f.backend.Uploads(); got != uploads+1 {
		t.Fatalf("uploads after resort: got %d, want %d", got, uploads+1)
	}
	if f.d.ScheduleResort(s, layer.Tripwire) {
		t.Fatal("resort of an empty layer should not schedule")
	}
}

func TestResortRefusedWhileRebuildOutstanding(t *testing.T) {
	opts := testOptions()
	opts.BufferPacks = 1
	f := newFixture(t, testCompiler(), opts)
	f.store.Set(2, 5, 5, world.BlockTypeStainedGlass, false)
	s := f.section(t, world.BlockPos{})
	f.d.SetCamera(mgl32.Vec3{-10, 5, 5})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if got := s.Buffer(layer.Translucent).IndexCount(); got != 36 {
		t.Fatalf("indices for one block: got %d, want 36", got)
	}

	f.store.Set(9, 5, 5, world.BlockTypeStainedGlass, false)
	f.store.Set(12, 5, 5, world.BlockTypeStainedGlass, false)
	f.d.SetCamera(mgl32.Vec3{30, 5, 5})
	task = f.d.ScheduleRebuild(s, f.regions())
	if f.d.ScheduleResort(s, layer.Translucent) {
		t.Fatal("resort scheduled behind an outstanding rebuild")
	}
	waitDone(t, f.d, func() bool { return task.State().Terminal() && f.d.IsQueueEmpty() })

	if got := task.State(); got != TaskSucceeded {
		t.Fatalf("rebuild state: got %s, want %s", got, TaskSucceeded)
	}
	if got := s.Buffer(layer.Translucent).IndexCount(); got != 108 {
		t.Fatalf("indices for three blocks: got %d, want 108", got)
	}
}

// waitPendingUploads waits, without draining, until n uploads are queued.
func waitPendingUploads(t *testing.T, d *Dispatcher, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for d.PendingUploads() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d uploads: %s", n, d.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestQueuedResortDroppedWhenRebuildReplacesIt(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	for _, x := range []int{2, 9, 12} {
		f.store.Set(x, 5, 5, world.BlockTypeStainedGlass, false)
	}
	s := f.section(t, world.BlockPos{})
	f.d.SetCamera(mgl32.Vec3{-10, 5, 5})

	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })
	if got := s.Buffer(layer.Translucent).IndexCount(); got != 108 {
		t.Fatalf("indices for three blocks: got %d, want 108", got)
	}

	f.d.SetCamera(mgl32.Vec3{30, 5, 5})
	if !f.d.ScheduleResort(s, layer.Translucent) {
		t.Fatal("resort of a compiled translucent section should schedule")
	}
	resort := s.lastResort
	waitPendingUploads(t, f.d, 1)

	f.store.Set(9, 5, 5, world.BlockTypeAir, false)
	f.store.Set(12, 5, 5, world.BlockTypeAir, false)
	task = f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool {
		return task.State().Terminal() && resort.State().Terminal() && f.d.IsQueueEmpty()
	})

	if got := resort.State(); got != TaskCancelled {
		t.Fatalf("replaced resort: got %s, want %s", got, TaskCancelled)
	}
	if got := task.State(); got != TaskSucceeded {
		t.Fatalf("rebuild state: got %s, want %s", got, TaskSucceeded)
	}
	if got := s.Buffer(layer.Translucent).IndexCount(); got != 36 {
		t.Fatalf("indices for one block: got %d, want 36", got)
	}
	if len(f.reporter.Reports()) != 0 {
		t.Fatalf("a dropped resort is not a crash: %v", f.reporter.Reports())
	}
}

func TestRebuildSectionSync(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	if got := f.d.RebuildSectionSync(s, f.regions()); got != Succeeded {
		t.Fatalf("sync rebuild: got %v, want Succeeded", got)
	}
	if s.Compiled().IsEmpty(layer.Solid) {
		t.Fatal("solid layer should be published")
	}
	if f.backend.Uploads() == 0 {
		t.Fatal("sync rebuild should apply its uploads")
	}
}

// gateMesher blocks every mesh call until the gate is closed.
type gateMesher struct {
	gate chan struct{}
	meshing.BlockMesher
}

func (g gateMesher) MeshBlock(r meshing.Region, pos world.BlockPos, st world.BlockState, pose vertex.Pose, out vertex.Consumer) {
	<-g.gate
	g.BlockMesher.MeshBlock(r, pos, st, pose, out)
}

func TestBlockUntilClearCancelsQueued(t *testing.T) {
	compiler := testCompiler()
	gate := make(chan struct{})
	compiler.Blocks = gateMesher{gate: gate, BlockMesher: compiler.Blocks}
	opts := testOptions()
	opts.BufferPacks = 1
	f := newFixture(t, compiler, opts)
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)

	first := f.d.ScheduleRebuild(f.section(t, world.BlockPos{}), f.regions())
	waitDone(t, f.d, func() bool { return first.State() == TaskRunning })
	queued := []*RebuildTask{
		f.d.ScheduleRebuild(f.section(t, world.BlockPos{}), f.regions()),
		f.d.ScheduleRebuild(f.section(t, world.BlockPos{}), f.regions()),
	}
	waitDone(t, f.d, func() bool { return f.d.QueueDepth() == 2 })

	f.d.BlockUntilClear()
	for i, q := range queued {
		if got := q.State(); got != TaskCancelled {
			t.Fatalf("queued task %d: got %s, want %s", i, got, TaskCancelled)
		}
	}
	if f.d.QueueDepth() != 0 {
		t.Fatalf("queue depth: got %d, want 0", f.d.QueueDepth())
	}

	close(gate)
	waitDone(t, f.d, func() bool { return first.State().Terminal() })
	if first.State() != TaskSucceeded {
		t.Fatalf("running task: got %s, want %s", first.State(), TaskSucceeded)
	}
	waitDone(t, f.d, f.d.IsQueueEmpty)
}

func TestStatsFormat(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	if got, want := f.d.Stats(), "pC: 000, pU: 00, aB: 02"; got != want {
		t.Fatalf("stats: got %q, want %q", got, want)
	}
}

func TestScheduleAfterDisposeCancels(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})
	f.d.Dispose()

	task := f.d.ScheduleRebuild(s, f.regions())
	if got := task.State(); got != TaskCancelled {
		t.Fatalf("state: got %s, want %s", got, TaskCancelled)
	}
	if !f.d.IsQueueEmpty() {
		t.Fatal("disposed dispatcher should report an empty queue")
	}
}
