package sectionrender

import (
	"fmt"
	"sync"

	"chunkmesh/internal/gpu"
	"chunkmesh/internal/layer"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/vertex"
	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// Center returns the middle of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// RegionSource builds the block view a rebuild compiles against. It returns
// nil when the section has nothing to mesh.
type RegionSource interface {
	CreateRegion(pos world.SectionPos) *world.Region
}

// RenderSection is the renderer's view of one 16^3 section: a GPU buffer per
// layer, the published compile result and the tasks in flight for it.
//
// Origin, dirty flags and task handles belong to the scheduling goroutine;
// the published CompiledSection may be read from anywhere.
type RenderSection struct {
	index      int
	dispatcher *Dispatcher

	compiled       atomic.Value
	initialCancels atomic.Int32

	mu              sync.Mutex
	lastRebuild     *RebuildTask
	lastResort      *ResortTask
	dirty           bool
	playerChanged   bool
	origin          world.BlockPos
	bb              Box
	relativeOrigins [6]world.BlockPos

	globalMu sync.Mutex
	global   map[world.BlockEntity]struct{}

	buffers [layer.Count]*gpu.VertexBuffer
}

// NewSection creates the section at origin with one GPU buffer per layer.
// It must be called on the thread owning the GPU backend.
func (d *Dispatcher) NewSection(index int, origin world.BlockPos) (*RenderSection, error) {
	s := &RenderSection{
		index:      index,
		dispatcher: d,
		global:     make(map[world.BlockEntity]struct{}),
	}
	for _, l := range layer.All() {
		vb, err := gpu.NewVertexBuffer(d.backend)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("section %d %s buffer: %w", index, l, err), s.closeBuffers())
		}
		s.buffers[l] = vb
	}
	s.SetOrigin(origin)
	return s, nil
}

// Index returns the section's slot in its owner.
func (s *RenderSection) Index() int { return s.index }

// Compiled returns the published compile result.
func (s *RenderSection) Compiled() *CompiledSection {
	if c, ok := s.compiled.Load().(*CompiledSection); ok {
		return c
	}
	return Uncompiled
}

// publish stores c as the result of t unless t was cancelled or replaced
// since it started. The check and the store happen under mu, so a reset
// that races with it always leaves the section uncompiled.
func (s *RenderSection) publish(t *RebuildTask, c *CompiledSection) bool {
	s.mu.Lock()
	if t.IsCancelled() || s.lastRebuild != t {
		s.mu.Unlock()
		return false
	}
	s.compiled.Store(c)
	s.initialCancels.Store(0)
	s.mu.Unlock()
	s.dispatcher.listener.SectionCompiled(s)
	return true
}

// InitialCancelCount returns how many times a rebuild was replaced before
// the section first compiled.
func (s *RenderSection) InitialCancelCount() int {
	return int(s.initialCancels.Load())
}

// Buffer returns the GPU buffer of l.
func (s *RenderSection) Buffer(l layer.Layer) *gpu.VertexBuffer {
	return s.buffers[l]
}

// Origin returns the minimum block of the section.
func (s *RenderSection) Origin() world.BlockPos {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// SectionPos returns the section coordinate.
func (s *RenderSection) SectionPos() world.SectionPos {
	return s.Origin().Section()
}

// BoundingBox returns the section's world space box.
func (s *RenderSection) BoundingBox() Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bb
}

// RelativeOrigin returns the origin of the neighbouring section towards d.
func (s *RenderSection) RelativeOrigin(d world.Direction) world.BlockPos {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.relativeOrigins[d]
}

// SetOrigin moves the section, cancelling its tasks and dropping its
// compiled state.
func (s *RenderSection) SetOrigin(origin world.BlockPos) {
	s.reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = origin
	min := origin.Vec3()
	s.bb = Box{Min: min, Max: min.Add(mgl32.Vec3{16, 16, 16})}
	for _, d := range world.Directions {
		s.relativeOrigins[d] = origin.Relative(d, world.SectionSize)
	}
}

func (s *RenderSection) reset() {
	s.CancelTasks()
	s.mu.Lock()
	s.compiled.Store(Uncompiled)
	s.initialCancels.Store(0)
	s.dirty = true
	s.mu.Unlock()
}

// ReleaseBuffers resets the section and frees its GPU buffers. Uploads still
// queued for it are dropped when they run.
func (s *RenderSection) ReleaseBuffers() error {
	s.reset()
	return s.closeBuffers()
}

func (s *RenderSection) closeBuffers() error {
	var err error
	for _, vb := range s.buffers {
		if vb != nil {
			err = multierr.Append(err, vb.Close())
		}
	}
	return err
}

// SetDirty marks the section for rebuild. fromPlayer accumulates until the
// section is rebuilt.
func (s *RenderSection) SetDirty(fromPlayer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasDirty := s.dirty
	s.dirty = true
	s.playerChanged = fromPlayer || (wasDirty && s.playerChanged)
}

// SetNotDirty clears both dirty flags.
func (s *RenderSection) SetNotDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
	s.playerChanged = false
}

func (s *RenderSection) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *RenderSection) IsDirtyFromPlayer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty && s.playerChanged
}

// DistToCameraSqr returns the squared distance from the dispatcher camera
// to the section centre.
func (s *RenderSection) DistToCameraSqr() float64 {
	c := s.BoundingBox().Center()
	cam := s.dispatcher.CameraPosition()
	dx := float64(c.X() - cam.X())
	dy := float64(c.Y() - cam.Y())
	dz := float64(c.Z() - cam.Z())
	return dx*dx + dy*dy + dz*dz
}

// HasAllNeighbors reports whether the section may compile now. Sections
// within the neighbour check distance need their four horizontal
// neighbouring columns loaded.
func (s *RenderSection) HasAllNeighbors() bool {
	limit := s.dispatcher.opts.NeighborCheckDistance
	if s.DistToCameraSqr() > limit*limit {
		return true
	}
	level := s.dispatcher.level
	for _, d := range world.Horizontal {
		o := s.RelativeOrigin(d)
		c := world.ChunkPosOf(o.X, o.Z)
		if !level.HasChunk(c.X, c.Z) {
			return false
		}
	}
	return true
}

// IsAxisAlignedWith reports whether the section shares a section
// coordinate with x, y or z.
func (s *RenderSection) IsAxisAlignedWith(x, y, z int) bool {
	p := s.SectionPos()
	return x == p.X || y == p.Y || z == p.Z
}

func (s *RenderSection) vertexSorting() vertex.Sorting {
	return vertex.ByDistance(s.dispatcher.CameraPosition().Sub(s.Origin().Vec3()))
}

// CancelTasks cancels the outstanding rebuild and resort. It reports
// whether a rebuild was outstanding.
func (s *RenderSection) CancelTasks() bool {
	s.mu.Lock()
	rebuild, resort := s.lastRebuild, s.lastResort
	s.lastRebuild, s.lastResort = nil, nil
	s.mu.Unlock()

	if resort != nil {
		resort.Cancel()
	}
	if rebuild != nil {
		rebuild.Cancel()
		return true
	}
	return false
}

// createCompileTask replaces the outstanding tasks with a fresh rebuild.
func (s *RenderSection) createCompileTask(regions RegionSource) *RebuildTask {
	replaced := s.CancelTasks()
	var region meshing.Region
	if r := regions.CreateRegion(s.SectionPos()); r != nil {
		region = r
	}
	uncompiled := s.Compiled() == Uncompiled
	if uncompiled && replaced {
		s.initialCancels.Inc()
	}

	opts := s.dispatcher.opts
	dist := s.DistToCameraSqr()
	near := opts.HighPriorityDistance * opts.HighPriorityDistance
	high := (s.IsDirtyFromPlayer() || dist <= near) &&
		int(s.initialCancels.Load()) <= opts.InitialCancelThreshold

	t := &RebuildTask{task: newTask(s, dist, high), region: region}
	s.mu.Lock()
	s.lastRebuild = t
	s.mu.Unlock()
	return t
}

// ResortTransparency schedules a re-sort of layer l for the current camera.
// It reports false when the section has no geometry in l or a rebuild is
// still outstanding, since that rebuild uploads freshly sorted indices.
func (s *RenderSection) ResortTransparency(l layer.Layer) bool {
	compiled := s.Compiled()
	s.mu.Lock()
	prev := s.lastResort
	s.lastResort = nil
	rebuilding := s.lastRebuild != nil && !s.lastRebuild.State().Terminal()
	s.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	if rebuilding || compiled.IsEmpty(l) {
		return false
	}
	t := &ResortTask{task: newTask(s, s.DistToCameraSqr(), true), compiled: compiled}
	s.mu.Lock()
	s.lastResort = t
	s.mu.Unlock()
	s.dispatcher.schedule(t)
	return true
}

// RebuildAsync clears the dirty flags and schedules a rebuild on the
// dispatcher. A rebuild cancelled later marks the section dirty again.
func (s *RenderSection) RebuildAsync(regions RegionSource) *RebuildTask {
	t := s.createCompileTask(regions)
	s.SetNotDirty()
	s.dispatcher.schedule(t)
	return t
}

// GlobalBlockEntities returns the off-screen block entities last compiled.
func (s *RenderSection) GlobalBlockEntities() []world.BlockEntity {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	out := make([]world.BlockEntity, 0, len(s.global))
	for be := range s.global {
		out = append(out, be)
	}
	return out
}

func (s *RenderSection) updateGlobalBlockEntities(current []world.BlockEntity) {
	next := make(map[world.BlockEntity]struct{}, len(current))
	for _, be := range current {
		next[be] = struct{}{}
	}

	var added, removed []world.BlockEntity
	s.globalMu.Lock()
	for be := range next {
		if _, ok := s.global[be]; !ok {
			added = append(added, be)
		}
	}
	for be := range s.global {
		if _, ok := next[be]; !ok {
			removed = append(removed, be)
		}
	}
	s.global = next
	s.globalMu.Unlock()

	if len(added) > 0 || len(removed) > 0 {
		s.dispatcher.listener.UpdateGlobalBlockEntities(removed, added)
	}
}

// Draw issues the draw call for layer l. It must run on the GPU thread.
func (s *RenderSection) Draw(l layer.Layer) error {
	if s.Compiled().IsEmpty(l) {
		return nil
	}
	return s.buffers[l].Draw()
}
