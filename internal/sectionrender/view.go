package sectionrender

import (
	"math"
	"sort"
	"sync"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/profiling"
	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

const (
	// resortSections is how many of the nearest translucent sections are
	// re-sorted when the camera moves.
	resortSections = 15
	// syncRebuildDistance is the squared distance under which player edits
	// are rebuilt on the render thread.
	syncRebuildDistance = 768
)

// ViewArea keeps a RenderSection for every section of the loaded columns
// around the camera and drives their rebuilds. Update and Draw run on the
// render thread; MarkDirty may be called from any goroutine.
type ViewArea struct {
	d       *Dispatcher
	level   world.Level
	palette world.Palette
	light   world.LightSource

	sections  map[world.SectionPos]*RenderSection
	nextIndex int
	sorted    []*RenderSection

	dirtyMu sync.Mutex
	dirty   map[world.SectionPos]bool

	lastSort   mgl32.Vec3
	sortedOnce bool
}

// NewViewArea creates an empty view over level.
func NewViewArea(d *Dispatcher, level world.Level, palette world.Palette, light world.LightSource) *ViewArea {
	return &ViewArea{
		d:        d,
		level:    level,
		palette:  palette,
		light:    light,
		sections: make(map[world.SectionPos]*RenderSection),
		dirty:    make(map[world.SectionPos]bool),
	}
}

// MarkDirty records that a section's blocks changed. It matches
// world.SectionListener.
func (v *ViewArea) MarkDirty(pos world.SectionPos, fromPlayer bool) {
	v.dirtyMu.Lock()
	v.dirty[pos] = v.dirty[pos] || fromPlayer
	v.dirtyMu.Unlock()
}

// MarkAllDirty queues every held section for a rebuild on the next
// Update. Render thread only.
func (v *ViewArea) MarkAllDirty() {
	for _, s := range v.sections {
		s.SetDirty(false)
	}
}

// Len returns the number of sections held.
func (v *ViewArea) Len() int {
	return len(v.sections)
}

// Section returns the section at pos, or nil.
func (v *ViewArea) Section(pos world.SectionPos) *RenderSection {
	return v.sections[pos]
}

// UpdateStats reports what one Update did.
type UpdateStats struct {
	Created, Released int
	Async, Sync       int
	Resorted          int
}

// Update moves the view to camera: sections are created for loaded columns
// within radius chunks and released outside it, dirty sections are
// rebuilt and nearby translucency is re-sorted when the camera moved.
func (v *ViewArea) Update(camera mgl32.Vec3, radius int) (UpdateStats, error) {
	defer profiling.Track("sectionrender.ViewArea.Update")()
	var st UpdateStats
	v.d.SetCamera(camera)
	center := world.ChunkPosOf(floorInt(camera.X()), floorInt(camera.Z()))

	var errs error
	for pos, s := range v.sections {
		dx, dz := pos.X-center.X, pos.Z-center.Z
		if abs(dx) > radius || abs(dz) > radius || !v.level.HasChunk(pos.X, pos.Z) {
			errs = multierr.Append(errs, s.ReleaseBuffers())
			delete(v.sections, pos)
			st.Released++
		}
	}
	for cx := center.X - radius; cx <= center.X+radius; cx++ {
		for cz := center.Z - radius; cz <= center.Z+radius; cz++ {
			if !v.level.HasChunk(cx, cz) {
				continue
			}
			for sy := 0; sy < world.NumSections; sy++ {
				pos := world.SectionPos{X: cx, Y: sy, Z: cz}
				if _, ok := v.sections[pos]; ok {
					continue
				}
				s, err := v.d.NewSection(v.nextIndex, pos.Origin())
				if err != nil {
					return st, multierr.Append(errs, err)
				}
				v.nextIndex++
				v.sections[pos] = s
				st.Created++
			}
		}
	}

	v.dirtyMu.Lock()
	dirty := v.dirty
	v.dirty = make(map[world.SectionPos]bool)
	v.dirtyMu.Unlock()
	for pos, fromPlayer := range dirty {
		if s := v.sections[pos]; s != nil {
			s.SetDirty(fromPlayer)
		}
	}

	v.sortByDistance()
	regions := world.NewRegionCache(v.level, v.palette, v.light)
	for _, s := range v.sorted {
		if !s.IsDirty() {
			continue
		}
		if s.IsDirtyFromPlayer() && s.DistToCameraSqr() < syncRebuildDistance {
			v.d.RebuildSectionSync(s, regions)
			st.Sync++
		} else {
			v.d.ScheduleRebuild(s, regions)
			st.Async++
		}
	}

	if !v.sortedOnce || camera.Sub(v.lastSort).LenSqr() > 1 {
		v.lastSort = camera
		v.sortedOnce = true
		for _, s := range v.sorted {
			if st.Resorted == resortSections {
				break
			}
			if !s.Compiled().IsEmpty(layer.Translucent) && v.d.ScheduleResort(s, layer.Translucent) {
				st.Resorted++
			}
		}
	}
	return st, errs
}

func (v *ViewArea) sortByDistance() {
	v.sorted = v.sorted[:0]
	for _, s := range v.sections {
		v.sorted = append(v.sorted, s)
	}
	sort.Slice(v.sorted, func(i, j int) bool {
		return v.sorted[i].DistToCameraSqr() < v.sorted[j].DistToCameraSqr()
	})
}

// DrawLayer draws layer l of every section inside frustum. Translucent
// layers are drawn far to near. before is called with each section's
// origin ahead of its draw.
func (v *ViewArea) DrawLayer(l layer.Layer, frustum *Frustum, before func(origin world.BlockPos)) (int, error) {
	defer profiling.Track("sectionrender.ViewArea.Draw")()
	var errs error
	drawn := 0
	draw := func(s *RenderSection) {
		if s.Compiled().IsEmpty(l) || !frustum.Intersects(s.BoundingBox()) {
			return
		}
		if before != nil {
			before(s.Origin())
		}
		errs = multierr.Append(errs, s.Draw(l))
		drawn++
	}
	if l.Sorted() {
		for i := len(v.sorted) - 1; i >= 0; i-- {
			draw(v.sorted[i])
		}
	} else {
		for _, s := range v.sorted {
			draw(s)
		}
	}
	profiling.Count("sectionrender.drawn", int64(drawn))
	return drawn, errs
}

// Release frees every section's GPU buffers.
func (v *ViewArea) Release() error {
	var errs error
	for pos, s := range v.sections {
		errs = multierr.Append(errs, s.ReleaseBuffers())
		delete(v.sections, pos)
	}
	v.sorted = nil
	return errs
}

func floorInt(f float32) int {
	return int(math.Floor(float64(f)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
