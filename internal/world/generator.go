package world

import (
	"math"

	"chunkmesh/internal/config"

	perlin "github.com/aquilax/go-perlin"
)

// TerrainGenerator fills chunk columns.
type TerrainGenerator interface {
	HeightAt(worldX, worldZ int) int
	PopulateChunk(c *Chunk)
}

// NewConfiguredGenerator returns the generator selected by the world
// generation settings. The flat world's surface sits at sea level.
func NewConfiguredGenerator() TerrainGenerator {
	if config.GetFlat() {
		return NewFlatGenerator(config.GetSeaLevel())
	}
	return NewNoiseGenerator(config.GetSeed(), config.GetSeaLevel())
}

// NoiseGenerator is a perlin heightmap terrain generator with water below sea level.
type NoiseGenerator struct {
	noise      *perlin.Perlin
	scale      float64
	baseHeight int
	amp        float64
	seaLevel   int
}

// NewNoiseGenerator creates a generator with default settings.
func NewNoiseGenerator(seed int64, seaLevel int) *NoiseGenerator {
	return &NoiseGenerator{
		noise:      perlin.NewPerlin(2, 2, 4, seed),
		scale:      1.0 / 64.0,
		baseHeight: 64,
		amp:        24,
		seaLevel:   seaLevel,
	}
}

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *NoiseGenerator) HeightAt(worldX, worldZ int) int {
	n := g.noise.Noise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	height := float64(g.baseHeight) + n*g.amp
	if height < 1 {
		height = 1
	}
	if height > ChunkSizeY-2 {
		height = ChunkSizeY - 2
	}
	return int(math.Floor(height))
}

// PopulateChunk fills a column from the heightmap.
func (g *NoiseGenerator) PopulateChunk(c *Chunk) {
	for lx := range ChunkSizeX {
		for lz := range ChunkSizeZ {
			worldX := c.X*ChunkSizeX + lx
			worldZ := c.Z*ChunkSizeZ + lz
			height := g.HeightAt(worldX, worldZ)
			underwater := height < g.seaLevel
			for y := 0; y <= height; y++ {
				switch {
				case y == 0:
					c.SetBlock(lx, y, lz, BlockTypeBedrock)
				case y < height-3:
					c.SetBlock(lx, y, lz, BlockTypeStone)
				case y < height:
					c.SetBlock(lx, y, lz, BlockTypeDirt)
				case underwater || height <= g.seaLevel+1:
					c.SetBlock(lx, y, lz, BlockTypeSand)
				default:
					c.SetBlock(lx, y, lz, BlockTypeGrass)
				}
			}
			for y := height + 1; y <= g.seaLevel; y++ {
				c.SetBlock(lx, y, lz, BlockTypeWater)
			}
		}
	}
}

// FlatGenerator builds flat terrain of a fixed height.
type FlatGenerator struct {
	height int
}

// NewFlatGenerator creates a flat generator whose surface is at height.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{height: height}
}

// HeightAt implements TerrainGenerator.
func (g *FlatGenerator) HeightAt(int, int) int {
	return g.height
}

// PopulateChunk implements TerrainGenerator.
func (g *FlatGenerator) PopulateChunk(c *Chunk) {
	for lx := range ChunkSizeX {
		for lz := range ChunkSizeZ {
			c.SetBlock(lx, 0, lz, BlockTypeBedrock)
			for y := 1; y < g.height; y++ {
				c.SetBlock(lx, y, lz, BlockTypeDirt)
			}
			if g.height > 0 {
				c.SetBlock(lx, g.height, lz, BlockTypeGrass)
			}
		}
	}
}
