package world

import (
	"sync"

	"chunkmesh/internal/profiling"
)

// Level is the loaded world as seen by the section renderer.
type Level interface {
	// Chunk returns the loaded column at x, z, or nil.
	Chunk(x, z int) *Chunk
	// HasChunk reports whether the column at x, z is loaded.
	HasChunk(x, z int) bool
}

// SectionListener is told about sections whose geometry may have changed.
type SectionListener func(pos SectionPos, fromPlayer bool)

// ChunkStore manages the storage and retrieval of chunk columns.
type ChunkStore struct {
	chunks   map[ChunkPos]*Chunk
	mu       sync.RWMutex
	modCount uint64

	listenerMu sync.RWMutex
	listener   SectionListener
}

// NewChunkStore creates an empty chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkPos]*Chunk),
	}
}

// SetListener installs the callback notified of changed sections.
func (cs *ChunkStore) SetListener(l SectionListener) {
	cs.listenerMu.Lock()
	cs.listener = l
	cs.listenerMu.Unlock()
}

func (cs *ChunkStore) notify(pos SectionPos, fromPlayer bool) {
	cs.listenerMu.RLock()
	l := cs.listener
	cs.listenerMu.RUnlock()
	if l != nil && pos.Y >= 0 && pos.Y < NumSections {
		l(pos, fromPlayer)
	}
}

// Chunk implements Level.
func (cs *ChunkStore) Chunk(x, z int) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[ChunkPos{x, z}]
}

// HasChunk implements Level.
func (cs *ChunkStore) HasChunk(x, z int) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[ChunkPos{x, z}]
	cs.mu.RUnlock()
	return ok
}

// GetChunk returns the column at x, z, creating an empty one when create is set.
func (cs *ChunkStore) GetChunk(x, z int, create bool) *Chunk {
	pos := ChunkPos{x, z}
	cs.mu.RLock()
	chunk, exists := cs.chunks[pos]
	cs.mu.RUnlock()
	if exists || !create {
		return chunk
	}

	cs.mu.Lock()
	if existing, ok := cs.chunks[pos]; ok {
		cs.mu.Unlock()
		return existing
	}
	chunk = NewChunk(x, z)
	cs.chunks[pos] = chunk
	cs.modCount++
	cs.mu.Unlock()
	return chunk
}

// AddChunk installs a pre-generated column. Sections of the column and of its
// horizontal neighbours are reported to the listener, since neighbours may
// have been waiting for it.
func (cs *ChunkStore) AddChunk(chunk *Chunk) bool {
	pos := chunk.Pos()
	cs.mu.Lock()
	if _, ok := cs.chunks[pos]; ok {
		cs.mu.Unlock()
		return false
	}
	cs.chunks[pos] = chunk
	cs.modCount++
	cs.mu.Unlock()

	for sy := 0; sy < NumSections; sy++ {
		cs.notify(SectionPos{pos.X, sy, pos.Z}, false)
		for _, d := range Horizontal {
			dx, _, dz := d.Offset()
			if cs.HasChunk(pos.X+dx, pos.Z+dz) {
				cs.notify(SectionPos{pos.X + dx, sy, pos.Z + dz}, false)
			}
		}
	}
	return true
}

// Get returns the block type at world coordinates.
func (cs *ChunkStore) Get(x, y, z int) BlockType {
	chunk := cs.Chunk(SectionCoord(x), SectionCoord(z))
	if chunk == nil {
		return BlockTypeAir
	}
	return chunk.GetBlock(x&15, y, z&15)
}

// Set sets the block type at world coordinates, creating the column if
// needed. The section and any neighbouring section sharing the touched face
// are reported to the listener.
func (cs *ChunkStore) Set(x, y, z int, t BlockType, fromPlayer bool) {
	chunk := cs.GetChunk(SectionCoord(x), SectionCoord(z), true)
	if !chunk.SetBlock(x&15, y, z&15, t) {
		return
	}

	sec := BlockPos{x, y, z}.Section()
	cs.notify(sec, fromPlayer)

	lx, ly, lz := x&15, y&15, z&15
	if lx == 0 {
		cs.notify(SectionPos{sec.X - 1, sec.Y, sec.Z}, fromPlayer)
	} else if lx == 15 {
		cs.notify(SectionPos{sec.X + 1, sec.Y, sec.Z}, fromPlayer)
	}
	if ly == 0 {
		cs.notify(SectionPos{sec.X, sec.Y - 1, sec.Z}, fromPlayer)
	} else if ly == 15 {
		cs.notify(SectionPos{sec.X, sec.Y + 1, sec.Z}, fromPlayer)
	}
	if lz == 0 {
		cs.notify(SectionPos{sec.X, sec.Y, sec.Z - 1}, fromPlayer)
	} else if lz == 15 {
		cs.notify(SectionPos{sec.X, sec.Y, sec.Z + 1}, fromPlayer)
	}
}

// SetBlockEntity installs be in its column, creating the column if needed.
func (cs *ChunkStore) SetBlockEntity(be BlockEntity) {
	p := be.Pos()
	cs.GetChunk(SectionCoord(p.X), SectionCoord(p.Z), true).SetBlockEntity(be)
	cs.notify(p.Section(), false)
}

// AppendChunksInRadius appends loaded columns within radius chunks of
// (cx, cz) to dst.
func (cs *ChunkStore) AppendChunksInRadius(cx, cz, radius int, dst []*Chunk) []*Chunk {
	defer profiling.Track("world.AppendChunksInRadius")()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			if ch, ok := cs.chunks[ChunkPos{cx + dx, cz + dz}]; ok {
				dst = append(dst, ch)
			}
		}
	}
	return dst
}

// Len returns the number of loaded columns.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns a counter bumped on every column add or remove.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// EvictFarChunks removes columns outside radius chunks of (cx, cz) and
// returns how many were removed.
func (cs *ChunkStore) EvictFarChunks(cx, cz, radius int) int {
	defer profiling.Track("world.EvictFarChunks")()
	removed := 0
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for pos := range cs.chunks {
		dx := pos.X - cx
		dz := pos.Z - cz
		if dx*dx+dz*dz > radius*radius {
			delete(cs.chunks, pos)
			cs.modCount++
			removed++
		}
	}
	return removed
}
