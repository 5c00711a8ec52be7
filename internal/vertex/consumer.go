package vertex

import "github.com/go-gl/mathgl/mgl32"

// Consumer receives vertices one element at a time. AddVertex opens a new
// vertex; the setters fill elements of the open vertex.
type Consumer interface {
	AddVertex(x, y, z float32)
	SetColor(r, g, b, a int)
	SetUv(u, v float32)
	SetUv1(u, v int)
	SetUv2(u, v int)
	SetNormal(x, y, z float32)
}

// FullVertexConsumer is implemented by consumers with a single-call path for
// complete vertices.
type FullVertexConsumer interface {
	Consumer
	AddFullVertex(v Vertex)
}

// Vertex carries every element a block or entity vertex may need.
// Color is packed 0xAARRGGBB, Overlay and Light are packed uv pairs.
type Vertex struct {
	X, Y, Z    float32
	Color      uint32
	U, V       float32
	Overlay    uint32
	Light      uint32
	NX, NY, NZ float32
}

// NoOverlay is the packed overlay value for geometry without hit tint.
const NoOverlay uint32 = 10 << 16

// PackLight packs block and sky light (0..15 each) into lightmap coordinates.
func PackLight(block, sky int) uint32 {
	return uint32(block<<4) | uint32(sky<<4)<<16
}

// FullBright is the packed light value of a fully lit vertex.
var FullBright = PackLight(15, 15)

// Emit writes v to c, using the single-call path when c has one.
func Emit(c Consumer, v Vertex) {
	if fc, ok := c.(FullVertexConsumer); ok {
		fc.AddFullVertex(v)
		return
	}
	emitElements(c, v)
}

func emitElements(c Consumer, v Vertex) {
	c.AddVertex(v.X, v.Y, v.Z)
	SetPackedColor(c, v.Color)
	c.SetUv(v.U, v.V)
	SetOverlay(c, v.Overlay)
	SetLight(c, v.Light)
	c.SetNormal(v.NX, v.NY, v.NZ)
}

// SetPackedColor writes a 0xAARRGGBB color.
func SetPackedColor(c Consumer, argb uint32) {
	c.SetColor(int(argb>>16&0xFF), int(argb>>8&0xFF), int(argb&0xFF), int(argb>>24&0xFF))
}

// SetColorFloat writes a color from components in [0,1].
func SetColorFloat(c Consumer, r, g, b, a float32) {
	c.SetColor(int(r*255), int(g*255), int(b*255), int(a*255))
}

// SetWhiteAlpha writes opaque white with the given alpha.
func SetWhiteAlpha(c Consumer, alpha int) {
	c.SetColor(255, 255, 255, alpha)
}

// SetLight splits a packed light value into lightmap coordinates.
func SetLight(c Consumer, packed uint32) {
	c.SetUv2(int(packed&0xFFFF), int(packed>>16&0xFFFF))
}

// SetOverlay splits a packed overlay value into overlay coordinates.
func SetOverlay(c Consumer, packed uint32) {
	c.SetUv1(int(packed&0xFFFF), int(packed>>16&0xFFFF))
}

// PackColor packs float channels in [0,1] into 0xAARRGGBB.
func PackColor(r, g, b, a float32) uint32 {
	return uint32(a*255)<<24 | uint32(r*255)<<16 | uint32(g*255)<<8 | uint32(b*255)
}

// Quad is a baked face: four corners in winding order with texture
// coordinates, a face normal and whether it takes directional shading.
type Quad struct {
	Positions [4]mgl32.Vec3
	UVs       [4]mgl32.Vec2
	Normal    mgl32.Vec3
	Shade     bool
	Tint      bool
}

// PutQuad transforms q by pose and emits its four corners. Brightness scales
// the color per corner; lights are packed per corner.
func PutQuad(c Consumer, pose Pose, q Quad, brightness [4]float32, r, g, b, a float32, lights [4]uint32, overlay uint32) {
	n := pose.TransformNormal(q.Normal)
	for i := range q.Positions {
		p := pose.TransformPosition(q.Positions[i])
		br := brightness[i]
		Emit(c, Vertex{
			X: p.X(), Y: p.Y(), Z: p.Z(),
			Color:   PackColor(clamp01(r*br), clamp01(g*br), clamp01(b*br), a),
			U:       q.UVs[i].X(),
			V:       q.UVs[i].Y(),
			Overlay: overlay,
			Light:   lights[i],
			NX:      n.X(), NY: n.Y(), NZ: n.Z(),
		})
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Transformed wraps c so positions and normals pass through pose first.
func Transformed(c Consumer, pose Pose) Consumer {
	return &transformConsumer{Consumer: c, pose: pose}
}

type transformConsumer struct {
	Consumer
	pose Pose
}

func (t *transformConsumer) AddVertex(x, y, z float32) {
	p := t.pose.TransformPosition(mgl32.Vec3{x, y, z})
	t.Consumer.AddVertex(p.X(), p.Y(), p.Z())
}

func (t *transformConsumer) SetNormal(x, y, z float32) {
	n := t.pose.TransformNormal(mgl32.Vec3{x, y, z})
	t.Consumer.SetNormal(n.X(), n.Y(), n.Z())
}
