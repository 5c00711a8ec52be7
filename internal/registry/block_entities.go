package registry

import "chunkmesh/internal/world"

// Block entity kinds with renderers.
const (
	KindChest  = "chest"
	KindBeacon = "beacon"
)

// BlockEntityRenderer describes how a block entity kind is drawn each frame.
type BlockEntityRenderer struct {
	Kind string
	// Offscreen renderers stay visible when their section is culled.
	Offscreen bool
}

var BlockEntityRenderers = map[string]BlockEntityRenderer{
	KindChest:  {Kind: KindChest},
	KindBeacon: {Kind: KindBeacon, Offscreen: true},
}

// Renderers resolves block entities against BlockEntityRenderers.
type Renderers struct{}

// Lookup reports whether be has a renderer and whether it renders off screen.
func (Renderers) Lookup(be world.BlockEntity) (ok, offscreen bool) {
	r, ok := BlockEntityRenderers[be.Kind()]
	return ok, r.Offscreen
}
