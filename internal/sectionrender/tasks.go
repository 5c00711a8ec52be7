package sectionrender

import (
	"errors"
	"fmt"
	"sync"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/profiling"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// errStaleGeometry fails a re-sort whose section was rebuilt or cancelled
// before its indices reached the GPU.
var errStaleGeometry = errors.New("sectionrender: sorted indices no longer match the section mesh")

// TaskState is the lifecycle of a compile task.
type TaskState int32

const (
	TaskQueued TaskState = iota
	TaskRunning
	TaskSucceeded
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskSucceeded:
		return "succeeded"
	case TaskCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("TaskState(%d)", int32(s))
}

// Terminal reports whether the task has finished.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskCancelled
}

// TaskResult is how a run ended.
type TaskResult uint8

const (
	Succeeded TaskResult = iota
	Cancelled
)

func (r TaskResult) state() TaskState {
	if r == Succeeded {
		return TaskSucceeded
	}
	return TaskCancelled
}

// compileTask is a unit of work run by the dispatcher with a leased pack.
type compileTask interface {
	base() *task
	name() string
	run(pack *meshing.BufferPack) TaskResult
	Cancel()
}

// task is the state shared by rebuild and resort tasks.
type task struct {
	id           uuid.UUID
	section      *RenderSection
	dist         float64
	highPriority bool
	seq          uint64

	cancelled atomic.Bool
	state     atomic.Int32
}

func newTask(s *RenderSection, dist float64, high bool) task {
	return task{id: uuid.New(), section: s, dist: dist, highPriority: high}
}

func (t *task) base() *task { return t }

// ID identifies the task in logs.
func (t *task) ID() uuid.UUID { return t.id }

// State returns the task's current state.
func (t *task) State() TaskState { return TaskState(t.state.Load()) }

// HighPriority reports which queue the task goes to.
func (t *task) HighPriority() bool { return t.highPriority }

// Distance returns the squared camera distance at creation.
func (t *task) Distance() float64 { return t.dist }

// IsCancelled reports whether cancellation was requested.
func (t *task) IsCancelled() bool { return t.cancelled.Load() }

// begin moves a queued task to running. It fails for tasks cancelled while
// they were queued.
func (t *task) begin() bool {
	return t.state.CAS(int32(TaskQueued), int32(TaskRunning))
}

func (t *task) finish(r TaskResult) {
	t.state.Store(int32(r.state()))
}

// requestCancel sets the cancel flag. It reports true only for the call that
// set it, and never for a task that already finished.
func (t *task) requestCancel() bool {
	if t.State().Terminal() {
		return false
	}
	if !t.cancelled.CAS(false, true) {
		return false
	}
	t.state.CAS(int32(TaskQueued), int32(TaskCancelled))
	return true
}

// RebuildTask recompiles a section from a region snapshot and uploads every
// layer.
type RebuildTask struct {
	task
	mu     sync.Mutex
	region meshing.Region
}

func (t *RebuildTask) name() string { return "rend_chk_rebuild" }

// Cancel stops the task at its next check. The first cancel of an unfinished
// task marks the section dirty again so it is rescheduled.
func (t *RebuildTask) Cancel() {
	// The flag is set before the region is dropped so run never mistakes a
	// cancelled task for an empty section.
	first := t.requestCancel()
	t.mu.Lock()
	t.region = nil
	t.mu.Unlock()
	if first {
		t.section.SetDirty(false)
	}
}

func (t *RebuildTask) takeRegion() meshing.Region {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.region
	t.region = nil
	return r
}

func (t *RebuildTask) run(pack *meshing.BufferPack) TaskResult {
	defer profiling.Track("sectionrender.Rebuild")()
	s := t.section
	d := s.dispatcher

	if t.IsCancelled() {
		return Cancelled
	}
	if !s.HasAllNeighbors() {
		t.Cancel()
		return Cancelled
	}
	if t.IsCancelled() {
		return Cancelled
	}

	region := t.takeRegion()
	if region == nil {
		if !s.publish(t, Empty) {
			return Cancelled
		}
		return Succeeded
	}

	results, err := d.compiler.Compile(s.SectionPos(), region, s.vertexSorting(), pack)
	if err != nil {
		d.crash.DelayCrash("Compiling section", err)
		return Cancelled
	}
	s.updateGlobalBlockEntities(results.GlobalBlockEntities)
	if t.IsCancelled() {
		results.Release()
		return Cancelled
	}

	compiled := newCompiledSection(results)
	futures := make([]*Future, 0, layer.Count)
	for _, l := range layer.All() {
		mesh := results.Layers[l]
		if mesh == nil {
			continue
		}
		results.Layers[l] = nil
		futures = append(futures, d.uploadSectionLayer(mesh, s.Buffer(l)))
	}
	if err := waitAll(futures); err != nil {
		d.crash.DelayCrash("Rendering section", err)
	}
	if !s.publish(t, compiled) {
		return Cancelled
	}
	return Succeeded
}

// ResortTask rewrites the translucent index buffer of a compiled section for
// the current camera position.
type ResortTask struct {
	task
	compiled *CompiledSection
}

func (t *ResortTask) name() string { return "rend_chk_sort" }

// Cancel stops the task at its next check.
func (t *ResortTask) Cancel() {
	t.requestCancel()
}

// current reports whether the geometry the task sorts is still the
// published one.
func (t *ResortTask) current() bool {
	return !t.IsCancelled() && t.section.Compiled() == t.compiled
}

func (t *ResortTask) run(pack *meshing.BufferPack) TaskResult {
	defer profiling.Track("sectionrender.Resort")()
	s := t.section
	d := s.dispatcher

	if t.IsCancelled() {
		return Cancelled
	}
	if !s.HasAllNeighbors() {
		t.cancelled.Store(true)
		return Cancelled
	}
	if !t.current() {
		return Cancelled
	}

	state := t.compiled.TransparencyState()
	if state == nil || t.compiled.IsEmpty(layer.Translucent) {
		return Cancelled
	}
	indices := state.BuildSortedIndexBuffer(pack.Buffer(layer.Translucent), s.vertexSorting())
	if indices == nil {
		return Cancelled
	}
	if !t.current() {
		indices.Close()
		return Cancelled
	}

	err := d.uploadSectionIndexBuffer(indices, state.IndexType, s.Buffer(layer.Translucent), t.current).Wait()
	switch {
	case errors.Is(err, errStaleGeometry):
		return Cancelled
	case err != nil:
		d.crash.DelayCrash("Rendering section", err)
	}
	if t.IsCancelled() {
		return Cancelled
	}
	return Succeeded
}
