package sectionrender

import (
	"testing"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/registry"
	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func newView(f *fixture) *ViewArea {
	return NewViewArea(f.d, f.store, registry.DefaultPalette(), world.ConstantLight{Sky: 15})
}

func rebuildFinished(s *RenderSection) bool {
	s.mu.Lock()
	t := s.lastRebuild
	s.mu.Unlock()
	return t != nil && t.State().Terminal()
}

func TestViewAreaCreatesAndRebuildsSections(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	v := newView(f)
	defer v.Release()

	camera := mgl32.Vec3{8, 8, 8}
	st, err := v.Update(camera, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := 9 * world.NumSections
	if st.Created != want || v.Len() != want {
		t.Fatalf("created: got %d (len %d), want %d", st.Created, v.Len(), want)
	}
	if st.Async != want || st.Sync != 0 {
		t.Fatalf("rebuilds: got %d async %d sync, want %d async", st.Async, st.Sync, want)
	}

	s := v.Section(world.SectionPos{})
	waitDone(t, f.d, func() bool { return s.Compiled() != Uncompiled && f.d.IsQueueEmpty() })

	var origins []world.BlockPos
	drawn, err := v.DrawLayer(layer.Solid, nil, func(o world.BlockPos) { origins = append(origins, o) })
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if drawn != 1 || len(origins) != 1 || origins[0] != (world.BlockPos{}) {
		t.Fatalf("drawn: got %d %v, want the origin section only", drawn, origins)
	}

	v.MarkAllDirty()
	st, err = v.Update(camera, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.Created != 0 || st.Async != want {
		t.Fatalf("after MarkAllDirty: got %d created %d async, want 0 and %d", st.Created, st.Async, want)
	}
}

func TestViewAreaPlayerEditRebuildsSynchronously(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	v := newView(f)
	defer v.Release()
	f.store.SetListener(v.MarkDirty)

	camera := mgl32.Vec3{8, 8, 8}
	if _, err := v.Update(camera, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	s := v.Section(world.SectionPos{})
	waitDone(t, f.d, func() bool { return s.Compiled() != Uncompiled && f.d.IsQueueEmpty() })

	f.store.Set(6, 5, 5, world.BlockTypeStone, true)
	st, err := v.Update(camera, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.Sync != 1 {
		t.Fatalf("sync rebuilds: got %d, want 1", st.Sync)
	}
	if s.IsDirty() {
		t.Fatal("section still dirty after a synchronous rebuild")
	}
	if got := s.Buffer(layer.Solid).IndexCount(); got != 60 {
		t.Fatalf("indices: got %d, want 60", got)
	}
}

func TestViewAreaResortsWhenCameraMoves(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStainedGlass, false)
	v := newView(f)
	defer v.Release()

	if _, err := v.Update(mgl32.Vec3{8, 8, 8}, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	s := v.Section(world.SectionPos{})
	waitDone(t, f.d, func() bool { return rebuildFinished(s) && f.d.IsQueueEmpty() })

	st, _ := v.Update(mgl32.Vec3{8.5, 8, 8}, 1)
	if st.Resorted != 0 {
		t.Fatalf("resorted after a small move: got %d, want 0", st.Resorted)
	}
	st, _ = v.Update(mgl32.Vec3{11, 8, 8}, 1)
	if st.Resorted != 1 {
		t.Fatalf("resorted: got %d, want 1", st.Resorted)
	}
}

func TestViewAreaReleasesFarSections(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	v := newView(f)

	if _, err := v.Update(mgl32.Vec3{8, 8, 8}, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	waitDone(t, f.d, f.d.IsQueueEmpty)

	st, err := v.Update(mgl32.Vec3{500, 8, 500}, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.Released != 9*world.NumSections || v.Len() != 0 {
		t.Fatalf("released: got %d (len %d)", st.Released, v.Len())
	}
	if live := f.backend.Live(); live != 0 {
		t.Fatalf("live buffers: got %d, want 0", live)
	}
	if err := v.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestFrustumIntersects(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := NewFrustum(proj.Mul4(view), 0)

	cases := []struct {
		name string
		box  Box
		want bool
	}{
		{"ahead", Box{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}, true},
		{"behind", Box{Min: mgl32.Vec3{-1, -1, 9}, Max: mgl32.Vec3{1, 1, 11}}, false},
		{"beyond far", Box{Min: mgl32.Vec3{-1, -1, -300}, Max: mgl32.Vec3{1, 1, -200}}, false},
		{"around eye", Box{Min: mgl32.Vec3{-8, -8, -8}, Max: mgl32.Vec3{8, 8, 8}}, true},
	}
	for _, c := range cases {
		if got := f.Intersects(c.box); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
	var none *Frustum
	if !none.Intersects(Box{}) {
		t.Fatal("nil frustum should accept everything")
	}
}
