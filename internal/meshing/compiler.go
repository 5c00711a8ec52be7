// Package meshing compiles chunk sections into per-layer vertex meshes.
package meshing

import (
	"fmt"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/profiling"
	"chunkmesh/internal/vertex"
	"chunkmesh/internal/visibility"
	"chunkmesh/internal/world"
)

// Region is the read-only block view a compile runs against. It must answer
// for the section and a one block halo around it.
type Region interface {
	BlockState(pos world.BlockPos) world.BlockState
	FluidState(pos world.BlockPos) world.FluidState
	BlockEntity(pos world.BlockPos) world.BlockEntity
	LightAt(pos world.BlockPos) (block, sky int)
}

// BlockMesher emits the model quads of one block. Positions are block-local
// and transformed by pose.
type BlockMesher interface {
	MeshBlock(region Region, pos world.BlockPos, state world.BlockState, pose vertex.Pose, out vertex.Consumer)
}

// LiquidMesher emits the surface of one fluid block in section-local
// coordinates.
type LiquidMesher interface {
	MeshLiquid(region Region, pos world.BlockPos, fluid world.FluidState, out vertex.Consumer)
}

// BlockEntityRenderers reports whether a block entity has a renderer and
// whether that renderer draws outside its section's frustum.
type BlockEntityRenderers interface {
	Lookup(be world.BlockEntity) (ok, offscreen bool)
}

// Results is the output of one section compile. Meshes own bytes in the
// buffer pack they were compiled into and must be released.
type Results struct {
	Layers              [layer.Count]*vertex.MeshData
	BlockEntities       []world.BlockEntity
	GlobalBlockEntities []world.BlockEntity
	Visibility          visibility.Set
	TransparencyState   *vertex.SortState
}

// Mesh returns the mesh of l, or nil when the layer has no geometry.
func (r *Results) Mesh(l layer.Layer) *vertex.MeshData {
	return r.Layers[l]
}

// NonEmpty returns the layers holding geometry.
func (r *Results) NonEmpty() layer.Set {
	var s layer.Set
	for l, m := range r.Layers {
		if m != nil {
			s = s.Add(layer.Layer(l))
		}
	}
	return s
}

// Release closes every mesh still held.
func (r *Results) Release() {
	if r == nil {
		return
	}
	for i, m := range r.Layers {
		m.Close()
		r.Layers[i] = nil
	}
}

// Compiler turns a section of a region into Results.
type Compiler struct {
	Blocks    BlockMesher
	Liquids   LiquidMesher
	Renderers BlockEntityRenderers
}

// Compile meshes every block of section sec into pack. The translucent layer
// is sorted with sorting. Compile writes only to pack and reads only from
// region; a pack must not be shared by concurrent compiles.
func (c *Compiler) Compile(sec world.SectionPos, region Region, sorting vertex.Sorting, pack *BufferPack) (*Results, error) {
	defer profiling.Track("meshing.Compile")()

	res := &Results{}
	graph := visibility.NewGraph()
	poses := vertex.NewPoseStack()
	var builders [layer.Count]*vertex.BufferBuilder
	var err error

	builder := func(l layer.Layer) *vertex.BufferBuilder {
		if builders[l] == nil && err == nil {
			builders[l], err = vertex.NewBufferBuilder(pack.Buffer(l), vertex.Quads, vertex.BlockFormat)
		}
		return builders[l]
	}

	origin := sec.Origin()
	world.BetweenClosed(origin, origin.Offset(15, 15, 15), func(pos world.BlockPos) {
		if err != nil {
			return
		}
		state := region.BlockState(pos)
		if state.IsSolidRender() {
			graph.SetOpaque(pos.Local())
		}

		if state.HasBlockEntity() {
			if be := region.BlockEntity(pos); be != nil {
				c.addBlockEntity(res, be)
			}
		}

		if fluid := region.FluidState(pos); !fluid.IsEmpty() && c.Liquids != nil {
			if b := builder(fluid.Layer()); b != nil {
				c.Liquids.MeshLiquid(region, pos, fluid, b)
			}
		}

		if state.RenderShape() == world.ShapeModel && c.Blocks != nil {
			if b := builder(state.Layer()); b != nil {
				x, y, z := pos.Local()
				poses.Push()
				poses.Translate(float32(x), float32(y), float32(z))
				c.Blocks.MeshBlock(region, pos, state, poses.Last(), b)
				poses.Pop()
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for l, b := range builders {
		if b == nil {
			continue
		}
		mesh, err := b.Build()
		if err != nil {
			res.Release()
			return nil, fmt.Errorf("build %s layer of %v: %w", layer.Layer(l), sec, err)
		}
		res.Layers[l] = mesh
	}

	if mesh := res.Layers[layer.Translucent]; mesh != nil {
		state, err := mesh.SortQuads(pack.Buffer(layer.Translucent), sorting)
		if err != nil {
			res.Release()
			return nil, fmt.Errorf("sort translucent layer of %v: %w", sec, err)
		}
		res.TransparencyState = state
	}

	res.Visibility = graph.Resolve()
	profiling.Count("meshing.sections", 1)
	return res, nil
}

func (c *Compiler) addBlockEntity(res *Results, be world.BlockEntity) {
	if c.Renderers == nil {
		return
	}
	ok, offscreen := c.Renderers.Lookup(be)
	if !ok {
		return
	}
	res.BlockEntities = append(res.BlockEntities, be)
	if offscreen {
		res.GlobalBlockEntities = append(res.GlobalBlockEntities, be)
	}
}
