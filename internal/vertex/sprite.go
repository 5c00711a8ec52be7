package vertex

// Sprite is a rectangle of a texture atlas in normalized coordinates.
type Sprite struct {
	U0, V0, U1, V1 float32
}

// U maps a sprite-local coordinate in [0,1] to the atlas.
func (s Sprite) U(u float32) float32 { return s.U0 + (s.U1-s.U0)*u }

// V maps a sprite-local coordinate in [0,1] to the atlas.
func (s Sprite) V(v float32) float32 { return s.V0 + (s.V1-s.V0)*v }

// WholeTexture covers the full texture.
var WholeTexture = Sprite{U0: 0, V0: 0, U1: 1, V1: 1}

// SpriteCoordinates wraps c so texture coordinates written through it are
// remapped into sprite.
func SpriteCoordinates(c Consumer, sprite Sprite) Consumer {
	return &spriteConsumer{Consumer: c, sprite: sprite}
}

type spriteConsumer struct {
	Consumer
	sprite Sprite
}

func (s *spriteConsumer) SetUv(u, v float32) {
	s.Consumer.SetUv(s.sprite.U(u), s.sprite.V(v))
}

func (s *spriteConsumer) AddFullVertex(v Vertex) {
	v.U = s.sprite.U(v.U)
	v.V = s.sprite.V(v.V)
	Emit(s.Consumer, v)
}
