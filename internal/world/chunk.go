package world

import (
	"sync"
)

// Section is a 16x16x16 block array. A nil blocks slice means all air.
type Section struct {
	blocks []BlockType
	nonAir int
}

func indexInSection(x, y, z int) int {
	return (y*SectionSize+z)*SectionSize + x
}

// IsEmpty reports whether the section holds only air.
func (s *Section) IsEmpty() bool {
	return s.nonAir == 0
}

func (s *Section) get(x, y, z int) BlockType {
	if s.blocks == nil {
		return BlockTypeAir
	}
	return s.blocks[indexInSection(x, y, z)]
}

func (s *Section) set(x, y, z int, t BlockType) bool {
	if s.blocks == nil {
		if t == BlockTypeAir {
			return false
		}
		s.blocks = make([]BlockType, SectionVolume)
	}
	idx := indexInSection(x, y, z)
	old := s.blocks[idx]
	if old == t {
		return false
	}
	s.blocks[idx] = t
	switch {
	case old == BlockTypeAir:
		s.nonAir++
	case t == BlockTypeAir:
		s.nonAir--
	}
	if s.nonAir == 0 {
		s.blocks = nil
	}
	return true
}

// Chunk is a 16x256x16 column of sections plus its block entities.
// It is safe for concurrent use.
type Chunk struct {
	X, Z int

	mu            sync.RWMutex
	sections      [NumSections]Section
	blockEntities map[BlockPos]BlockEntity
	dirty         bool
}

// NewChunk creates an empty chunk at the given column coordinates.
func NewChunk(x, z int) *Chunk {
	return &Chunk{
		X:             x,
		Z:             z,
		blockEntities: make(map[BlockPos]BlockEntity),
		dirty:         true,
	}
}

// Pos returns the chunk's column coordinate.
func (c *Chunk) Pos() ChunkPos {
	return ChunkPos{c.X, c.Z}
}

func inChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkSizeX && y >= 0 && y < ChunkSizeY && z >= 0 && z < ChunkSizeZ
}

// GetBlock returns the block type at local coordinates.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	if !inChunk(x, y, z) {
		return BlockTypeAir
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sections[y>>4].get(x, y&15, z)
}

// SetBlock sets the block type at local coordinates and reports whether
// anything changed.
func (c *Chunk) SetBlock(x, y, z int, t BlockType) bool {
	if !inChunk(x, y, z) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.sections[y>>4].set(x, y&15, z, t)
	if changed {
		c.dirty = true
	}
	return changed
}

// IsSectionEmpty reports whether section index sy holds only air. Sections
// outside the column are empty.
func (c *Chunk) IsSectionEmpty(sy int) bool {
	if sy < 0 || sy >= NumSections {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sections[sy].IsEmpty()
}

// SetBlockEntity installs be at its position, replacing any previous one.
func (c *Chunk) SetBlockEntity(be BlockEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockEntities[be.Pos()] = be
}

// RemoveBlockEntity drops the block entity at pos.
func (c *Chunk) RemoveBlockEntity(pos BlockPos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.blockEntities, pos)
}

// BlockEntity returns the block entity at world position pos, or nil.
func (c *Chunk) BlockEntity(pos BlockPos) BlockEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blockEntities[pos]
}

// IsDirty returns whether the chunk has been modified since SetClean.
func (c *Chunk) IsDirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// SetClean marks the chunk as unmodified.
func (c *Chunk) SetClean() {
	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
}

// Snapshot copies the chunk's blocks and block entities into an immutable
// view that workers can read without locking.
func (c *Chunk) Snapshot() *ChunkSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := &ChunkSnapshot{X: c.X, Z: c.Z}
	for i := range c.sections {
		if src := c.sections[i].blocks; src != nil {
			snap.sections[i] = append([]BlockType(nil), src...)
		}
	}
	if len(c.blockEntities) > 0 {
		snap.blockEntities = make(map[BlockPos]BlockEntity, len(c.blockEntities))
		for k, v := range c.blockEntities {
			snap.blockEntities[k] = v
		}
	}
	return snap
}

// ChunkSnapshot is a frozen copy of a chunk taken for meshing.
type ChunkSnapshot struct {
	X, Z          int
	sections      [NumSections][]BlockType
	blockEntities map[BlockPos]BlockEntity
}

// Block returns the block type at world position pos. Positions outside the
// world height are air.
func (s *ChunkSnapshot) Block(pos BlockPos) BlockType {
	if s == nil || pos.Y < 0 || pos.Y >= ChunkSizeY {
		return BlockTypeAir
	}
	sec := s.sections[pos.Y>>4]
	if sec == nil {
		return BlockTypeAir
	}
	return sec[indexInSection(pos.X&15, pos.Y&15, pos.Z&15)]
}

// BlockEntity returns the block entity at pos, or nil.
func (s *ChunkSnapshot) BlockEntity(pos BlockPos) BlockEntity {
	if s == nil {
		return nil
	}
	return s.blockEntities[pos]
}
