package registry

import (
	"chunkmesh/internal/layer"
	"chunkmesh/internal/world"
	"chunkmesh/pkg/blockmodel"
)

// blockState exposes a definition through world.BlockState.
type blockState struct {
	def *BlockDefinition
}

func (s *blockState) Type() world.BlockType          { return s.def.ID }
func (s *blockState) Name() string                   { return s.def.Name }
func (s *blockState) IsAir() bool                    { return s.def.ID == world.BlockTypeAir }
func (s *blockState) IsSolidRender() bool            { return s.def.IsSolid }
func (s *blockState) RenderShape() world.RenderShape { return s.def.Shape }
func (s *blockState) Fluid() world.FluidState        { return s.def.Fluid }
func (s *blockState) HasBlockEntity() bool           { return s.def.EntityKind != "" }
func (s *blockState) Layer() layer.Layer             { return s.def.RenderLayer }
func (s *blockState) Tint() uint32                   { return s.def.TintColor }

// Model returns the block's baked model, or nil.
func (s *blockState) Model() *blockmodel.Model { return s.def.Model }

// Palette resolves block types against the registry. Unknown types resolve
// to air.
type Palette struct{}

// State implements world.Palette.
func (Palette) State(t world.BlockType) world.BlockState {
	if s, ok := states[t]; ok {
		return s
	}
	return states[world.BlockTypeAir]
}

// DefaultPalette returns the registry palette, initialising the registry with
// built-in models if needed.
func DefaultPalette() Palette {
	InitRegistry("")
	return Palette{}
}
