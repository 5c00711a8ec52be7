package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"chunkmesh/internal/vertex"
	"chunkmesh/internal/world"
)

const (
	// WaterTint is the colour multiplier of water surfaces.
	WaterTint uint32 = 0x3F76E4
	// liquidInset is how far the top face sits below the corner heights.
	liquidInset = 0.001
)

// Liquid texture names.
const (
	WaterStill = "block/water_still"
	WaterFlow  = "block/water_flow"
	LavaStill  = "block/lava_still"
	LavaFlow   = "block/lava_flow"
)

// LiquidRenderer meshes water and lava blocks.
type LiquidRenderer struct {
	Sprites SpriteSource
}

func (l *LiquidRenderer) sprites(fluid world.FluidState) (still, flow vertex.Sprite) {
	if l.Sprites == nil {
		return vertex.WholeTexture, vertex.WholeTexture
	}
	if fluid.Type == world.FluidLava {
		return l.Sprites.Sprite(LavaStill), l.Sprites.Sprite(LavaFlow)
	}
	return l.Sprites.Sprite(WaterStill), l.Sprites.Sprite(WaterFlow)
}

// MeshLiquid implements LiquidMesher.
func (l *LiquidRenderer) MeshLiquid(region Region, pos world.BlockPos, fluid world.FluidState, out vertex.Consumer) {
	sideVisible := func(d world.Direction) bool {
		n := pos.Relative(d, 1)
		if region.FluidState(n).IsSame(fluid) {
			return false
		}
		return !region.BlockState(n).IsSolidRender()
	}

	above := pos.Relative(world.Up, 1)
	renderUp := !region.FluidState(above).IsSame(fluid)
	renderDown := sideVisible(world.Down)
	var renderSide [6]bool
	anySide := false
	for _, d := range world.Horizontal {
		renderSide[d] = sideVisible(d)
		anySide = anySide || renderSide[d]
	}
	if !renderUp && !renderDown && !anySide {
		return
	}

	still, flow := l.sprites(fluid)
	r, g, b := float32(1), float32(1), float32(1)
	if fluid.Type == world.FluidWater {
		r, g, b = unpackRGB(WaterTint)
	}

	hNW := cornerHeight(region, pos, fluid)
	hSW := cornerHeight(region, pos.Offset(0, 0, 1), fluid)
	hSE := cornerHeight(region, pos.Offset(1, 0, 1), fluid)
	hNE := cornerHeight(region, pos.Offset(1, 0, 0), fluid)

	x, y, z := pos.Local()
	pose := vertex.Pose{
		Model:  mgl32.Translate3D(float32(x), float32(y), float32(z)),
		Normal: mgl32.Ident3(),
	}
	block, sky := region.LightAt(pos)
	light := vertex.PackLight(block, sky)

	emit := func(q vertex.Quad, d world.Direction) {
		s := faceShade[d]
		vertex.PutQuad(out, pose, q,
			[4]float32{s, s, s, s},
			r, g, b, 1,
			[4]uint32{light, light, light, light},
			vertex.NoOverlay)
	}

	full := hNW >= 1 && hSW >= 1 && hSE >= 1 && hNE >= 1
	if renderUp && !(full && region.BlockState(above).IsSolidRender()) {
		nw, sw, se, ne := hNW-liquidInset, hSW-liquidInset, hSE-liquidInset, hNE-liquidInset
		emit(vertex.Quad{
			Positions: [4]mgl32.Vec3{{0, nw, 0}, {0, sw, 1}, {1, se, 1}, {1, ne, 0}},
			UVs:       spriteCorners(still, 0, 0, 1, 1),
			Normal:    world.Up.Normal(),
		}, world.Up)
	}

	if renderDown {
		emit(vertex.Quad{
			Positions: [4]mgl32.Vec3{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {1, 0, 1}},
			UVs:       spriteCorners(still, 0, 0, 1, 1),
			Normal:    world.Down.Normal(),
		}, world.Down)
	}

	for _, d := range world.Horizontal {
		if !renderSide[d] {
			continue
		}
		var p [4]mgl32.Vec3
		var hl, hr float32
		switch d {
		case world.North:
			hl, hr = hNE, hNW
			p = [4]mgl32.Vec3{{1, hl, 0}, {1, 0, 0}, {0, 0, 0}, {0, hr, 0}}
		case world.South:
			hl, hr = hSW, hSE
			p = [4]mgl32.Vec3{{0, hl, 1}, {0, 0, 1}, {1, 0, 1}, {1, hr, 1}}
		case world.West:
			hl, hr = hNW, hSW
			p = [4]mgl32.Vec3{{0, hl, 0}, {0, 0, 0}, {0, 0, 1}, {0, hr, 1}}
		case world.East:
			hl, hr = hSE, hNE
			p = [4]mgl32.Vec3{{1, hl, 1}, {1, 0, 1}, {1, 0, 0}, {1, hr, 0}}
		}
		emit(vertex.Quad{
			Positions: p,
			UVs: [4]mgl32.Vec2{
				{flow.U(0), flow.V((1 - hl) * 0.5)},
				{flow.U(0), flow.V(0.5)},
				{flow.U(0.5), flow.V(0.5)},
				{flow.U(0.5), flow.V((1 - hr) * 0.5)},
			},
			Normal: d.Normal(),
		}, d)
	}
}

func spriteCorners(s vertex.Sprite, u0, v0, u1, v1 float32) [4]mgl32.Vec2 {
	return [4]mgl32.Vec2{
		{s.U(u0), s.V(v0)},
		{s.U(u0), s.V(v1)},
		{s.U(u1), s.V(v1)},
		{s.U(u1), s.V(v0)},
	}
}

// cornerHeight averages the fluid height of the four columns sharing the
// north-west corner of corner. Sources weigh ten times more than flowing
// fluid, open cells pull the height down and solid cells are ignored. Fluid
// directly above any column raises the corner to the full block.
func cornerHeight(region Region, corner world.BlockPos, fluid world.FluidState) float32 {
	var sum, weight float32
	for j := 0; j < 4; j++ {
		p := corner.Offset(-(j & 1), 0, -(j >> 1 & 1))
		if region.FluidState(p.Relative(world.Up, 1)).IsSame(fluid) {
			return 1
		}
		f := region.FluidState(p)
		switch {
		case f.IsSame(fluid):
			h := f.OwnHeight()
			if f.Amount >= 8 {
				sum += h * 10
				weight += 10
			}
			sum += h
			weight++
		case !region.BlockState(p).IsSolidRender():
			weight++
		}
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}
