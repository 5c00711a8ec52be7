package sectionrender

import (
	"testing"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/world"
)

func TestSentinelVisibility(t *testing.T) {
	for _, a := range world.Directions {
		for _, b := range world.Directions {
			if Uncompiled.FacesCanSeeEachOther(a, b) {
				t.Fatalf("uncompiled %s->%s: got visible, want blocked", a, b)
			}
			if !Empty.FacesCanSeeEachOther(a, b) {
				t.Fatalf("empty %s->%s: got blocked, want visible", a, b)
			}
		}
	}
}

func TestSentinelsHaveNoLayers(t *testing.T) {
	for _, c := range []*CompiledSection{Uncompiled, Empty} {
		if !c.HasNoRenderableLayers() {
			t.Fatal("sentinel should have no layers")
		}
		for _, l := range layer.All() {
			if !c.IsEmpty(l) {
				t.Fatalf("sentinel layer %s should be empty", l)
			}
		}
		if c.TransparencyState() != nil || len(c.BlockEntities()) != 0 {
			t.Fatal("sentinel should carry no state")
		}
	}
}
