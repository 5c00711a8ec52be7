package world

import (
	"testing"

	"chunkmesh/internal/layer"
)

type testState BlockType

func (s testState) Type() BlockType          { return BlockType(s) }
func (s testState) Name() string             { return "test" }
func (s testState) IsAir() bool              { return BlockType(s) == BlockTypeAir }
func (s testState) IsSolidRender() bool      { return BlockType(s) == BlockTypeStone }
func (s testState) RenderShape() RenderShape { return ShapeModel }
func (s testState) Fluid() FluidState        { return EmptyFluid }
func (s testState) HasBlockEntity() bool     { return false }
func (s testState) Layer() layer.Layer       { return layer.Solid }
func (s testState) Tint() uint32             { return 0xFFFFFF }

type testPalette struct{}

func (testPalette) State(t BlockType) BlockState { return testState(t) }

func TestRegionReadsNeighbourColumns(t *testing.T) {
	store := NewChunkStore()
	store.Set(5, 20, 5, BlockTypeDirt, false)
	store.Set(-1, 20, 5, BlockTypeStone, false)
	store.Set(16, 20, 16, BlockTypeSand, false)

	r := NewRegionCache(store, testPalette{}, ConstantLight{Sky: 15}).CreateRegion(SectionPos{0, 1, 0})
	if r == nil {
		t.Fatalf("CreateRegion returned nil for a populated section")
	}
	if got := r.Block(BlockPos{-1, 20, 5}); got != BlockTypeStone {
		t.Fatalf("west halo: got %d, want stone", got)
	}
	if got := r.Block(BlockPos{16, 20, 16}); got != BlockTypeSand {
		t.Fatalf("south-east halo: got %d, want sand", got)
	}
	if got := r.Block(BlockPos{40, 20, 5}); got != BlockTypeAir {
		t.Fatalf("outside region: got %d, want air", got)
	}
	if !r.BlockState(BlockPos{-1, 20, 5}).IsSolidRender() {
		t.Fatalf("palette not applied")
	}
	if _, sky := r.LightAt(BlockPos{}); sky != 15 {
		t.Fatalf("sky light: got %d, want 15", sky)
	}
}

func TestRegionNilForEmptySection(t *testing.T) {
	store := NewChunkStore()
	store.Set(5, 20, 5, BlockTypeDirt, false)
	cache := NewRegionCache(store, testPalette{}, ConstantLight{})
	if r := cache.CreateRegion(SectionPos{0, 0, 0}); r != nil {
		t.Fatalf("empty section produced a region")
	}
	if r := cache.CreateRegion(SectionPos{7, 1, 7}); r != nil {
		t.Fatalf("unloaded column produced a region")
	}
}
