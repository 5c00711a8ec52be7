package world

import (
	"math"
	"runtime"
	"sync"

	"chunkmesh/internal/profiling"
)

// ChunkStreamer generates chunk columns around a point on background
// goroutines and installs them into a store.
type ChunkStreamer struct {
	jobs       chan ChunkPos
	pending    map[ChunkPos]struct{}
	pendingMu  sync.Mutex
	maxPending int

	maxJobsPerCall int

	store *ChunkStore
	gen   TerrainGenerator

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewChunkStreamer creates a streamer with one worker per CPU.
func NewChunkStreamer(store *ChunkStore, gen TerrainGenerator) *ChunkStreamer {
	cs := &ChunkStreamer{
		jobs:           make(chan ChunkPos, 1024),
		pending:        make(map[ChunkPos]struct{}),
		maxJobsPerCall: 256,
		maxPending:     4096,
		store:          store,
		gen:            gen,
	}

	workers := max(runtime.NumCPU(), 1)
	for i := 0; i < workers; i++ {
		cs.wg.Add(1)
		go cs.worker()
	}
	return cs
}

// Close stops the generation workers and waits for them to exit.
func (cs *ChunkStreamer) Close() {
	cs.closeOnce.Do(func() {
		close(cs.jobs)
		cs.wg.Wait()
	})
}

func (cs *ChunkStreamer) worker() {
	defer cs.wg.Done()
	for pos := range cs.jobs {
		cs.generate(pos)
		cs.pendingMu.Lock()
		delete(cs.pending, pos)
		cs.pendingMu.Unlock()
	}
}

func (cs *ChunkStreamer) generate(pos ChunkPos) {
	if cs.store.HasChunk(pos.X, pos.Z) {
		return
	}
	chunk := NewChunk(pos.X, pos.Z)
	cs.gen.PopulateChunk(chunk)
	cs.store.AddChunk(chunk)
}

func chunkCoordOf(v float32, size int) int {
	return floorDiv(int(math.Floor(float64(v))), size)
}

// StreamAroundSync generates every missing column within radius chunks of
// the given world position before returning.
func (cs *ChunkStreamer) StreamAroundSync(x, z float32, radius int) {
	defer profiling.Track("world.StreamAroundSync")()
	cx := chunkCoordOf(x, ChunkSizeX)
	cz := chunkCoordOf(z, ChunkSizeZ)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			cs.generate(ChunkPos{cx + dx, cz + dz})
		}
	}
}

// StreamAroundAsync queues missing columns in rings of growing radius.
// It returns how many columns were queued.
func (cs *ChunkStreamer) StreamAroundAsync(x, z float32, radius int) int {
	defer profiling.Track("world.StreamAroundAsync")()
	cx := chunkCoordOf(x, ChunkSizeX)
	cz := chunkCoordOf(z, ChunkSizeZ)

	pushed := 0
	for r := 0; r <= radius && pushed < cs.maxJobsPerCall; r++ {
		if r == 0 {
			if cs.request(ChunkPos{cx, cz}) {
				pushed++
			}
			continue
		}
		for xk := cx - r; xk <= cx+r; xk++ {
			for _, zk := range [2]int{cz - r, cz + r} {
				if cs.request(ChunkPos{xk, zk}) {
					pushed++
				}
			}
		}
		for zk := cz - r + 1; zk <= cz+r-1; zk++ {
			for _, xk := range [2]int{cx - r, cx + r} {
				if cs.request(ChunkPos{xk, zk}) {
					pushed++
				}
			}
		}
	}
	return pushed
}

// Pending returns the number of queued columns not yet generated.
func (cs *ChunkStreamer) Pending() int {
	cs.pendingMu.Lock()
	defer cs.pendingMu.Unlock()
	return len(cs.pending)
}

// request queues pos unless it is loaded, already queued, or the queue is full.
func (cs *ChunkStreamer) request(pos ChunkPos) bool {
	if cs.store.HasChunk(pos.X, pos.Z) {
		return false
	}

	cs.pendingMu.Lock()
	if _, ok := cs.pending[pos]; ok {
		cs.pendingMu.Unlock()
		return false
	}
	if cs.maxPending > 0 && len(cs.pending) >= cs.maxPending {
		cs.pendingMu.Unlock()
		return false
	}
	cs.pending[pos] = struct{}{}
	cs.pendingMu.Unlock()

	select {
	case cs.jobs <- pos:
		return true
	default:
		cs.pendingMu.Lock()
		delete(cs.pending, pos)
		cs.pendingMu.Unlock()
		return false
	}
}

// EvictFarChunks removes columns farther than radius chunks from the position.
func (cs *ChunkStreamer) EvictFarChunks(x, z float32, radius int) int {
	return cs.store.EvictFarChunks(chunkCoordOf(x, ChunkSizeX), chunkCoordOf(z, ChunkSizeZ), radius)
}
