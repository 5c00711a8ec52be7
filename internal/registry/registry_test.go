package registry

import (
	"testing"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/world"
)

func TestDefaultPaletteStates(t *testing.T) {
	p := DefaultPalette()

	stone := p.State(world.BlockTypeStone)
	if !stone.IsSolidRender() || stone.RenderShape() != world.ShapeModel {
		t.Fatalf("stone: solid=%v shape=%v", stone.IsSolidRender(), stone.RenderShape())
	}
	if got := p.State(world.BlockType(9999)); !got.IsAir() {
		t.Fatalf("unknown type resolved to %s, want air", got.Name())
	}
	water := p.State(world.BlockTypeWater)
	if water.Fluid().IsEmpty() || water.Fluid().Layer() != layer.Translucent {
		t.Fatalf("water fluid: %+v", water.Fluid())
	}
	if water.RenderShape() != world.ShapeInvisible {
		t.Fatalf("water shape: got %v, want invisible", water.RenderShape())
	}
	if !p.State(world.BlockTypeChest).HasBlockEntity() {
		t.Fatalf("chest has no block entity")
	}
}

func TestBuiltinModelsLoaded(t *testing.T) {
	InitRegistry("")
	for _, id := range []world.BlockType{world.BlockTypeStone, world.BlockTypeGrass, world.BlockTypeSeagrass} {
		def := Definition(id)
		if def == nil || def.Model == nil || len(def.Model.Elements) == 0 {
			t.Fatalf("block %d has no model", id)
		}
	}
	if _, ok := TextureMap["block/grass_top"]; !ok {
		t.Fatalf("grass top texture not registered")
	}
}

func TestAtlasSpritesDistinct(t *testing.T) {
	InitRegistry("")
	a := Atlas{}.Sprite("block/stone")
	b := Atlas{}.Sprite("block/dirt")
	if a == b {
		t.Fatalf("stone and dirt share sprite %+v", a)
	}
	if a.U1-a.U0 != 1.0/AtlasColumns {
		t.Fatalf("sprite width: got %v", a.U1-a.U0)
	}
}

func TestRenderersLookup(t *testing.T) {
	ok, off := Renderers{}.Lookup(&world.SimpleBlockEntity{Type: KindBeacon})
	if !ok || !off {
		t.Fatalf("beacon: ok=%v offscreen=%v", ok, off)
	}
	ok, off = Renderers{}.Lookup(&world.SimpleBlockEntity{Type: KindChest})
	if !ok || off {
		t.Fatalf("chest: ok=%v offscreen=%v", ok, off)
	}
	if ok, _ := (Renderers{}).Lookup(&world.SimpleBlockEntity{Type: "sign"}); ok {
		t.Fatalf("sign should have no renderer")
	}
}
