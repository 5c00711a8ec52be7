package sectionrender

import (
	"chunkmesh/internal/layer"
	"chunkmesh/internal/meshing"
	"chunkmesh/internal/vertex"
	"chunkmesh/internal/visibility"
	"chunkmesh/internal/world"
)

// CompiledSection is the published result of a successful rebuild. It is
// immutable once published.
type CompiledSection struct {
	layers            layer.Set
	blockEntities     []world.BlockEntity
	visibility        visibility.Set
	transparencyState *vertex.SortState
}

var (
	// Uncompiled is published until a section's first rebuild succeeds.
	// No face can see any other.
	Uncompiled = &CompiledSection{}
	// Empty is published for sections holding nothing to draw. Every face
	// can see every other.
	Empty = &CompiledSection{visibility: visibility.All()}
)

func newCompiledSection(res *meshing.Results) *CompiledSection {
	return &CompiledSection{
		layers:            res.NonEmpty(),
		blockEntities:     append([]world.BlockEntity(nil), res.BlockEntities...),
		visibility:        res.Visibility,
		transparencyState: res.TransparencyState,
	}
}

// HasNoRenderableLayers reports whether no layer holds geometry.
func (c *CompiledSection) HasNoRenderableLayers() bool {
	return c.layers.Empty()
}

// IsEmpty reports whether layer l holds no geometry.
func (c *CompiledSection) IsEmpty(l layer.Layer) bool {
	return !c.layers.Has(l)
}

// Layers returns the layers holding geometry.
func (c *CompiledSection) Layers() layer.Set {
	return c.layers
}

// BlockEntities returns the block entities drawn with the section.
func (c *CompiledSection) BlockEntities() []world.BlockEntity {
	return c.blockEntities
}

// TransparencyState returns the sort state of the translucent layer, or nil.
func (c *CompiledSection) TransparencyState() *vertex.SortState {
	return c.transparencyState
}

// FacesCanSeeEachOther reports whether geometry entering through face a
// can leave through face b.
func (c *CompiledSection) FacesCanSeeEachOther(a, b world.Direction) bool {
	return c.visibility.Visible(a, b)
}
