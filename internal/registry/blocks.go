package registry

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/logger"
	"chunkmesh/internal/world"
	"chunkmesh/pkg/blockmodel"
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID          world.BlockType
	Name        string
	IsSolid     bool
	Shape       world.RenderShape
	RenderLayer layer.Layer
	TintColor   uint32
	Fluid       world.FluidState
	// EntityKind names the block entity the block carries, if any.
	EntityKind string
	// Builtin is the model used when the assets tree has none for Name.
	Builtin *blockmodel.Model
	Model   *blockmodel.Model
}

var (
	Blocks      = make(map[world.BlockType]*BlockDefinition)
	BlockNames  = make(map[string]world.BlockType)
	ModelLoader *blockmodel.Loader

	states   = make(map[world.BlockType]*blockState)
	initOnce sync.Once
)

// RegisterBlock adds def to the registry, loading its model when it has a
// model render shape.
func RegisterBlock(def *BlockDefinition) {
	if ModelLoader == nil {
		ModelLoader = blockmodel.NewLoader("")
	}
	if def.Builtin != nil {
		ModelLoader.AddBuiltin(def.Name, def.Builtin)
	}
	if def.Shape == world.ShapeModel {
		loadModel(def)
	}
	if def.TintColor == 0 {
		def.TintColor = 0xFFFFFF
	}

	Blocks[def.ID] = def
	BlockNames[def.Name] = def.ID
	states[def.ID] = &blockState{def: def}
}

func loadModel(def *BlockDefinition) {
	model, err := ModelLoader.LoadModel(def.Name)
	if err != nil {
		logger.Log.Warn("failed to load block model", zap.String("block", def.Name), zap.Error(err))
		return
	}
	def.Model = model
	for _, elem := range model.Elements {
		for _, face := range elem.Faces {
			registerTexture(face.Texture)
		}
	}
}

// InitRegistry registers the built-in blocks. Models are read from
// assetsDir/models when present; an empty assetsDir uses only the built-in
// models. Only the first call has any effect.
func InitRegistry(assetsDir string) {
	initOnce.Do(func() {
		if assetsDir != "" {
			assetsDir = filepath.Clean(assetsDir)
		}
		ModelLoader = blockmodel.NewLoader(assetsDir)
		registerDefaults()
	})
}

func registerDefaults() {
	RegisterBlock(&BlockDefinition{
		ID:    world.BlockTypeAir,
		Name:  "air",
		Shape: world.ShapeInvisible,
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeStone,
		Name:        "stone",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		Builtin:     blockmodel.CubeAll("block/stone"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeDirt,
		Name:        "dirt",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		Builtin:     blockmodel.CubeAll("block/dirt"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeGrass,
		Name:        "grass",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		TintColor:   0x79C05A,
		Builtin:     blockmodel.CubeBottomTop("block/grass_top", "block/grass_side", "block/dirt", true),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeBedrock,
		Name:        "bedrock",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		Builtin:     blockmodel.CubeAll("block/bedrock"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeSand,
		Name:        "sand",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		Builtin:     blockmodel.CubeAll("block/sand"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeLog,
		Name:        "oak_log",
		IsSolid:     true,
		Shape:       world.ShapeModel,
		RenderLayer: layer.Solid,
		Builtin:     blockmodel.CubeBottomTop("block/oak_log_top", "block/oak_log", "block/oak_log_top", false),
	})

	// Leaves and glass do not occlude.
	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeLeaves,
		Name:        "oak_leaves",
		Shape:       world.ShapeModel,
		RenderLayer: layer.CutoutMipped,
		TintColor:   0x48B518,
		Builtin:     tintedCube("block/oak_leaves"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeGlass,
		Name:        "glass",
		Shape:       world.ShapeModel,
		RenderLayer: layer.Cutout,
		Builtin:     blockmodel.CubeAll("block/glass"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeStainedGlass,
		Name:        "stained_glass",
		Shape:       world.ShapeModel,
		RenderLayer: layer.Translucent,
		Builtin:     blockmodel.CubeAll("block/white_stained_glass"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeWater,
		Name:        "water",
		Shape:       world.ShapeInvisible,
		RenderLayer: layer.Translucent,
		TintColor:   0x3F76E4,
		Fluid:       world.FluidState{Type: world.FluidWater, Amount: 8},
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeFlowingWater,
		Name:        "flowing_water",
		Shape:       world.ShapeInvisible,
		RenderLayer: layer.Translucent,
		TintColor:   0x3F76E4,
		Fluid:       world.FluidState{Type: world.FluidWater, Amount: 4},
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeLava,
		Name:        "lava",
		Shape:       world.ShapeInvisible,
		RenderLayer: layer.Solid,
		Fluid:       world.FluidState{Type: world.FluidLava, Amount: 8},
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeChest,
		Name:        "chest",
		Shape:       world.ShapeEntityAnimated,
		RenderLayer: layer.Solid,
		EntityKind:  KindChest,
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeBeacon,
		Name:        "beacon",
		Shape:       world.ShapeModel,
		RenderLayer: layer.Cutout,
		EntityKind:  KindBeacon,
		Builtin:     blockmodel.CubeAll("block/beacon"),
	})

	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeTripwire,
		Name:        "tripwire",
		Shape:       world.ShapeModel,
		RenderLayer: layer.Tripwire,
		Builtin:     blockmodel.Slab("block/tripwire", 1.5),
	})

	// Seagrass is always waterlogged: it carries a cross model and a water source.
	RegisterBlock(&BlockDefinition{
		ID:          world.BlockTypeSeagrass,
		Name:        "seagrass",
		Shape:       world.ShapeModel,
		RenderLayer: layer.Cutout,
		Fluid:       world.FluidState{Type: world.FluidWater, Amount: 8},
		Builtin:     blockmodel.Cross("block/seagrass", false),
	})

	// Liquids have no model; their textures are looked up by name when meshing.
	registerTexture("block/water_still")
	registerTexture("block/water_flow")
	registerTexture("block/lava_still")
	registerTexture("block/lava_flow")
}

func tintedCube(texture string) *blockmodel.Model {
	return blockmodel.CubeBottomTop(texture, texture, texture, true)
}

// Definition returns the registered definition for t, or nil.
func Definition(t world.BlockType) *BlockDefinition {
	return Blocks[t]
}
