package world

import "chunkmesh/internal/layer"

// BlockType identifies a block kind stored in a chunk.
type BlockType uint16

const (
	BlockTypeAir BlockType = iota
	BlockTypeStone
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeBedrock
	BlockTypeSand
	BlockTypeLog
	BlockTypeLeaves
	BlockTypeGlass
	BlockTypeStainedGlass
	BlockTypeWater
	BlockTypeFlowingWater
	BlockTypeLava
	BlockTypeChest
	BlockTypeBeacon
	BlockTypeTripwire
	BlockTypeSeagrass
)

// RenderShape says how a block is drawn.
type RenderShape uint8

const (
	// ShapeInvisible blocks emit no static geometry.
	ShapeInvisible RenderShape = iota
	// ShapeModel blocks are meshed from their baked model.
	ShapeModel
	// ShapeEntityAnimated blocks are drawn only by their block entity renderer.
	ShapeEntityAnimated
)

// FluidType identifies a fluid.
type FluidType uint8

const (
	FluidEmpty FluidType = iota
	FluidWater
	FluidLava
)

// FluidState is the fluid held by a block. Amount runs from 1 to 8, where 8
// is a source or falling column.
type FluidState struct {
	Type    FluidType
	Amount  int
	Falling bool
}

// EmptyFluid is the fluid state of blocks without fluid.
var EmptyFluid = FluidState{}

// IsEmpty reports whether the state holds no fluid.
func (f FluidState) IsEmpty() bool {
	return f.Type == FluidEmpty
}

// IsSame reports whether f and o are the same fluid.
func (f FluidState) IsSame(o FluidState) bool {
	return !f.IsEmpty() && f.Type == o.Type
}

// OwnHeight returns the surface height of the fluid within its block.
func (f FluidState) OwnHeight() float32 {
	if f.IsEmpty() {
		return 0
	}
	return float32(f.Amount) / 9
}

// Layer returns the chunk layer fluid geometry goes into.
func (f FluidState) Layer() layer.Layer {
	if f.Type == FluidWater {
		return layer.Translucent
	}
	return layer.Solid
}

// BlockState is the read-only view of a block the mesher needs.
type BlockState interface {
	Type() BlockType
	Name() string
	IsAir() bool
	// IsSolidRender reports whether the block fully occludes its cell.
	IsSolidRender() bool
	RenderShape() RenderShape
	Fluid() FluidState
	HasBlockEntity() bool
	// Layer returns the chunk layer model geometry goes into.
	Layer() layer.Layer
	// Tint returns a 0xRRGGBB multiplier for tinted faces.
	Tint() uint32
}

// Palette resolves stored block types to states.
type Palette interface {
	State(t BlockType) BlockState
}

// BlockEntity is per-block data with its own renderer.
type BlockEntity interface {
	Pos() BlockPos
	Kind() string
}

// SimpleBlockEntity is a block entity identified by kind only.
type SimpleBlockEntity struct {
	Position BlockPos
	Type     string
}

func (b *SimpleBlockEntity) Pos() BlockPos { return b.Position }
func (b *SimpleBlockEntity) Kind() string { return b.Type }
