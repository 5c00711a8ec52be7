package world

import "chunkmesh/internal/profiling"

// LightSource supplies block and sky light levels (0..15).
type LightSource interface {
	LightAt(pos BlockPos) (block, sky int)
}

// ConstantLight lights every position the same.
type ConstantLight struct {
	Block, Sky int
}

// LightAt implements LightSource.
func (c ConstantLight) LightAt(BlockPos) (int, int) {
	return c.Block, c.Sky
}

// Region is a read-only view of the 3x3 columns around a section, so
// lookups one block past the section edge still resolve.
type Region struct {
	minX, minZ int
	chunks     [9]*ChunkSnapshot
	palette    Palette
	light      LightSource
}

func regionIndex(minX, minZ, x, z int) int {
	return (x - minX) + (z-minZ)*3
}

func (r *Region) chunkAt(x, z int) *ChunkSnapshot {
	if x < r.minX || x > r.minX+2 || z < r.minZ || z > r.minZ+2 {
		return nil
	}
	return r.chunks[regionIndex(r.minX, r.minZ, x, z)]
}

// Block returns the stored block type at pos.
func (r *Region) Block(pos BlockPos) BlockType {
	return r.chunkAt(SectionCoord(pos.X), SectionCoord(pos.Z)).Block(pos)
}

// BlockState returns the state of the block at pos. Positions outside the
// region are air.
func (r *Region) BlockState(pos BlockPos) BlockState {
	return r.palette.State(r.Block(pos))
}

// FluidState returns the fluid held at pos.
func (r *Region) FluidState(pos BlockPos) FluidState {
	return r.BlockState(pos).Fluid()
}

// BlockEntity returns the block entity at pos, or nil.
func (r *Region) BlockEntity(pos BlockPos) BlockEntity {
	return r.chunkAt(SectionCoord(pos.X), SectionCoord(pos.Z)).BlockEntity(pos)
}

// LightAt returns the block and sky light at pos.
func (r *Region) LightAt(pos BlockPos) (block, sky int) {
	return r.light.LightAt(pos)
}

// RegionCache builds regions from a level, snapshotting each column at most
// once. A cache is meant to live for one frame on the scheduling goroutine.
type RegionCache struct {
	level     Level
	palette   Palette
	light     LightSource
	snapshots map[ChunkPos]*ChunkSnapshot
}

// NewRegionCache creates a cache over level.
func NewRegionCache(level Level, palette Palette, light LightSource) *RegionCache {
	return &RegionCache{
		level:     level,
		palette:   palette,
		light:     light,
		snapshots: make(map[ChunkPos]*ChunkSnapshot),
	}
}

func (c *RegionCache) snapshot(x, z int) *ChunkSnapshot {
	pos := ChunkPos{x, z}
	if s, ok := c.snapshots[pos]; ok {
		return s
	}
	var s *ChunkSnapshot
	if ch := c.level.Chunk(x, z); ch != nil {
		s = ch.Snapshot()
	}
	c.snapshots[pos] = s
	return s
}

// CreateRegion returns the region around section pos, or nil when the
// section holds only air or its column is not loaded.
func (c *RegionCache) CreateRegion(pos SectionPos) *Region {
	defer profiling.Track("world.CreateRegion")()
	center := c.level.Chunk(pos.X, pos.Z)
	if center == nil || center.IsSectionEmpty(pos.Y) {
		return nil
	}
	r := &Region{
		minX:    pos.X - 1,
		minZ:    pos.Z - 1,
		palette: c.palette,
		light:   c.light,
	}
	for z := pos.Z - 1; z <= pos.Z+1; z++ {
		for x := pos.X - 1; x <= pos.X+1; x++ {
			r.chunks[regionIndex(r.minX, r.minZ, x, z)] = c.snapshot(x, z)
		}
	}
	return r
}
