package sectionrender

import (
	"testing"
	"time"

	"chunkmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDirtyFromPlayerAccumulates(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})

	s.SetNotDirty()
	s.SetDirty(true)
	s.SetDirty(false)
	if !s.IsDirtyFromPlayer() {
		t.Fatal("player flag should survive a later non-player dirty")
	}

	s.SetNotDirty()
	s.SetDirty(false)
	if !s.IsDirty() || s.IsDirtyFromPlayer() {
		t.Fatal("non-player dirty on a clean section should not set the player flag")
	}
	s.SetDirty(false)
	s.SetDirty(false)
	if s.IsDirtyFromPlayer() {
		t.Fatal("repeated dirtying should be idempotent")
	}
}

func TestSetOriginResets(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})
	task := f.d.ScheduleRebuild(s, f.regions())
	waitDone(t, f.d, func() bool { return task.State().Terminal() })

	s.SetOrigin(world.BlockPos{X: 32, Y: 16, Z: -16})
	if s.Compiled() != Uncompiled {
		t.Fatal("moved section should be uncompiled")
	}
	if !s.IsDirty() {
		t.Fatal("moved section should be dirty")
	}
	bb := s.BoundingBox()
	if bb.Min != (mgl32.Vec3{32, 16, -16}) || bb.Max != (mgl32.Vec3{48, 32, 0}) {
		t.Fatalf("bounding box: got %v", bb)
	}
	if got := s.RelativeOrigin(world.West); got != (world.BlockPos{X: 16, Y: 16, Z: -16}) {
		t.Fatalf("west origin: got %v", got)
	}
	if got := s.SectionPos(); got != (world.SectionPos{X: 2, Y: 1, Z: -1}) {
		t.Fatalf("section pos: got %v", got)
	}
}

func TestReplacedRebuildDoesNotPublish(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})
	first := s.createCompileTask(f.regions())
	second := s.createCompileTask(f.regions())

	if s.publish(first, Empty) {
		t.Fatal("replaced rebuild published")
	}
	if s.Compiled() != Uncompiled {
		t.Fatal("replaced rebuild changed the section")
	}
	s.SetOrigin(world.BlockPos{X: 16})
	if s.publish(second, Empty) {
		t.Fatal("rebuild published after the section moved")
	}
	if s.Compiled() != Uncompiled {
		t.Fatal("moved section should stay uncompiled")
	}
}

func TestSetOriginRacingRebuildLeavesSectionUncompiled(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	f.store.Set(5, 5, 5, world.BlockTypeStone, false)
	s := f.section(t, world.BlockPos{})

	for i := 0; i < 50; i++ {
		task := f.d.ScheduleRebuild(s, f.regions())
		delay := time.Duration(i%5) * 100 * time.Microsecond
		moved := make(chan struct{})
		go func() {
			defer close(moved)
			time.Sleep(delay)
			s.SetOrigin(world.BlockPos{})
		}()
		waitDone(t, f.d, func() bool {
			select {
			case <-moved:
				return task.State().Terminal()
			default:
				return false
			}
		})
		if s.Compiled() != Uncompiled {
			t.Fatalf("iteration %d: section compiled after it moved (rebuild %s)", i, task.State())
		}
	}
}

func TestDistanceIsToSectionCentre(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{X: 16})
	f.d.SetCamera(mgl32.Vec3{24, 8, 11})
	if got := s.DistToCameraSqr(); got != 9 {
		t.Fatalf("distance squared: got %v, want 9", got)
	}
}

func TestRepeatedInitialCancelsDemotePriority(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})
	regions := f.regions()

	var task *RebuildTask
	for i, wantHigh := range []bool{true, true, true, false} {
		task = s.createCompileTask(regions)
		if task.HighPriority() != wantHigh {
			t.Fatalf("task %d: high priority %v, want %v (cancels %d)", i, task.HighPriority(), wantHigh, s.InitialCancelCount())
		}
	}
	if got := s.InitialCancelCount(); got != 3 {
		t.Fatalf("initial cancels: got %d, want 3", got)
	}
	if !s.publish(task, Empty) {
		t.Fatal("latest rebuild should publish")
	}
	if got := s.InitialCancelCount(); got != 0 {
		t.Fatalf("initial cancels after compile: got %d, want 0", got)
	}
}

func TestPlayerEditsArePriorityEvenWhenFar(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})
	f.d.SetCamera(mgl32.Vec3{500, 0, 0})

	s.SetNotDirty()
	if s.createCompileTask(f.regions()).HighPriority() {
		t.Fatal("far background rebuild should be low priority")
	}
	s.SetDirty(true)
	if !s.createCompileTask(f.regions()).HighPriority() {
		t.Fatal("player triggered rebuild should be high priority")
	}
}

func TestIsAxisAlignedWith(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{X: 32, Y: 16, Z: 48})
	if !s.IsAxisAlignedWith(2, 9, 9) || !s.IsAxisAlignedWith(9, 1, 9) || !s.IsAxisAlignedWith(9, 9, 3) {
		t.Fatal("section should align on each shared coordinate")
	}
	if s.IsAxisAlignedWith(9, 9, 9) {
		t.Fatal("section should not align with unrelated coordinates")
	}
}

func TestReleaseBuffersFreesGPU(t *testing.T) {
	f := newFixture(t, testCompiler(), testOptions())
	s := f.section(t, world.BlockPos{})
	if got := f.backend.Live(); got != 10 {
		t.Fatalf("live buffers: got %d, want 10", got)
	}
	if err := s.ReleaseBuffers(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := f.backend.Live(); got != 0 {
		t.Fatalf("live buffers after release: got %d, want 0", got)
	}
}
