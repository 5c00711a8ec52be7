package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"chunkmesh/internal/vertex"
	"chunkmesh/internal/world"
	"chunkmesh/pkg/blockmodel"
)

// SpriteSource maps texture names to atlas regions.
type SpriteSource interface {
	Sprite(name string) vertex.Sprite
}

// ModelState is a block state carrying a baked model.
type ModelState interface {
	world.BlockState
	Model() *blockmodel.Model
}

// faceShade is the directional brightness of each face.
var faceShade = [6]float32{
	world.Down:  0.5,
	world.Up:    1.0,
	world.North: 0.8,
	world.South: 0.8,
	world.West:  0.6,
	world.East:  0.6,
}

var faceByName = map[string]world.Direction{
	"down":  world.Down,
	"up":    world.Up,
	"north": world.North,
	"south": world.South,
	"west":  world.West,
	"east":  world.East,
}

// ModelMesher meshes blocks from their model elements, culling faces hidden
// by solid neighbours.
type ModelMesher struct {
	Sprites SpriteSource
}

// MeshBlock implements BlockMesher.
func (m *ModelMesher) MeshBlock(region Region, pos world.BlockPos, state world.BlockState, pose vertex.Pose, out vertex.Consumer) {
	ms, ok := state.(ModelState)
	if !ok {
		return
	}
	model := ms.Model()
	if model == nil {
		return
	}

	for _, elem := range model.Elements {
		rot, hasRot := elementRotation(elem)
		for _, name := range blockmodel.FaceNames {
			face, ok := elem.Faces[name]
			if !ok {
				continue
			}
			dir := faceByName[name]

			lightPos := pos
			if cull, ok := faceByName[face.CullFace]; ok {
				neighbour := pos.Relative(cull, 1)
				if culled(state, region.BlockState(neighbour)) {
					continue
				}
				lightPos = neighbour
			}

			q := elementQuad(elem, dir, face, m.sprite(face.Texture))
			if hasRot {
				for i := range q.Positions {
					q.Positions[i] = mgl32.TransformCoordinate(q.Positions[i], rot)
				}
				q.Normal = mgl32.TransformNormal(q.Normal, rot).Normalize()
			}

			shade := float32(1)
			if q.Shade {
				shade = faceShade[dir]
			}
			r, g, b := float32(1), float32(1), float32(1)
			if q.Tint {
				r, g, b = unpackRGB(state.Tint())
			}
			block, sky := region.LightAt(lightPos)
			light := vertex.PackLight(block, sky)

			vertex.PutQuad(out, pose, q,
				[4]float32{shade, shade, shade, shade},
				r, g, b, 1,
				[4]uint32{light, light, light, light},
				vertex.NoOverlay)
		}
	}
}

func (m *ModelMesher) sprite(name string) vertex.Sprite {
	if m.Sprites == nil {
		return vertex.WholeTexture
	}
	return m.Sprites.Sprite(name)
}

// culled reports whether a face of state touching neighbour is hidden.
func culled(state, neighbour world.BlockState) bool {
	if neighbour.IsSolidRender() {
		return true
	}
	return !state.IsSolidRender() && neighbour.Type() == state.Type()
}

func unpackRGB(c uint32) (r, g, b float32) {
	return float32(c>>16&0xFF) / 255, float32(c>>8&0xFF) / 255, float32(c&0xFF) / 255
}

// elementQuad builds the face of elem towards dir in block units. Corners
// run top-left, bottom-left, bottom-right, top-right as seen from outside.
func elementQuad(elem blockmodel.Element, dir world.Direction, face blockmodel.Face, sprite vertex.Sprite) vertex.Quad {
	x0, y0, z0 := elem.From[0]/16, elem.From[1]/16, elem.From[2]/16
	x1, y1, z1 := elem.To[0]/16, elem.To[1]/16, elem.To[2]/16

	var p [4]mgl32.Vec3
	switch dir {
	case world.Down:
		p = [4]mgl32.Vec3{{x0, y0, z1}, {x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}}
	case world.Up:
		p = [4]mgl32.Vec3{{x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}}
	case world.North:
		p = [4]mgl32.Vec3{{x1, y1, z0}, {x1, y0, z0}, {x0, y0, z0}, {x0, y1, z0}}
	case world.South:
		p = [4]mgl32.Vec3{{x0, y1, z1}, {x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}}
	case world.West:
		p = [4]mgl32.Vec3{{x0, y1, z0}, {x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}}
	case world.East:
		p = [4]mgl32.Vec3{{x1, y1, z1}, {x1, y0, z1}, {x1, y0, z0}, {x1, y1, z0}}
	}

	uv := face.UV
	if uv == [4]float32{} {
		uv = defaultUV(elem, dir)
	}
	corners := [4]mgl32.Vec2{
		{uv[0], uv[1]},
		{uv[0], uv[3]},
		{uv[2], uv[3]},
		{uv[2], uv[1]},
	}
	steps := ((face.Rotation/90)%4 + 4) % 4

	q := vertex.Quad{
		Positions: p,
		Normal:    dir.Normal(),
		Shade:     elem.Shaded(),
		Tint:      face.Tinted(),
	}
	for i := range q.UVs {
		c := corners[(i+steps)%4]
		q.UVs[i] = mgl32.Vec2{sprite.U(c[0] / 16), sprite.V(c[1] / 16)}
	}
	return q
}

// defaultUV derives texture coordinates from the element bounds.
func defaultUV(e blockmodel.Element, dir world.Direction) [4]float32 {
	f, t := e.From, e.To
	switch dir {
	case world.Down:
		return [4]float32{f[0], 16 - t[2], t[0], 16 - f[2]}
	case world.Up:
		return [4]float32{f[0], f[2], t[0], t[2]}
	case world.North:
		return [4]float32{16 - t[0], 16 - t[1], 16 - f[0], 16 - f[1]}
	case world.South:
		return [4]float32{f[0], 16 - t[1], t[0], 16 - f[1]}
	case world.West:
		return [4]float32{f[2], 16 - t[1], t[2], 16 - f[1]}
	default:
		return [4]float32{16 - t[2], 16 - t[1], 16 - f[2], 16 - f[1]}
	}
}

// elementRotation returns the transform of a rotated element in block units.
func elementRotation(e blockmodel.Element) (mgl32.Mat4, bool) {
	r := e.Rotation
	if r == nil || r.Angle == 0 {
		return mgl32.Ident4(), false
	}
	angle := mgl32.DegToRad(r.Angle)
	origin := mgl32.Vec3{r.Origin[0] / 16, r.Origin[1] / 16, r.Origin[2] / 16}

	s := float32(1)
	if r.Rescale {
		s = float32(1 / math.Abs(math.Cos(float64(angle))))
	}
	var rot mgl32.Mat4
	var scale mgl32.Vec3
	switch r.Axis {
	case "x":
		rot = mgl32.HomogRotate3DX(angle)
		scale = mgl32.Vec3{1, s, s}
	case "z":
		rot = mgl32.HomogRotate3DZ(angle)
		scale = mgl32.Vec3{s, s, 1}
	default:
		rot = mgl32.HomogRotate3DY(angle)
		scale = mgl32.Vec3{s, 1, s}
	}
	m := mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())).
		Mul4(rot).
		Mul4(mgl32.Translate3D(-origin.X(), -origin.Y(), -origin.Z()))
	return m, true
}
