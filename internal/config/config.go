package config

import (
	"runtime"
	"sync"
)

// RenderSettings holds section render configuration
type RenderSettings struct {
	mu                     sync.RWMutex
	renderDistance         int // in chunks
	neighborCheckDistance  float64
	highPriorityDistance   float64
	initialCancelThreshold int
	bufferPacks            int
	workers                int
}

var globalRenderSettings = &RenderSettings{
	renderDistance:         12,
	neighborCheckDistance:  24,
	highPriorityDistance:   48,
	initialCancelThreshold: 2,
	bufferPacks:            clamp(runtime.NumCPU()-1, 1, 10),
	workers:                max(1, runtime.NumCPU()-1),
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetRenderDistance returns the current render distance in chunks
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in chunks
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.renderDistance = clamp(distance, 2, 64)
}

// GetChunkLoadRadius returns radius for chunk loading
func GetChunkLoadRadius() int {
	return GetRenderDistance() + 1
}

// GetChunkEvictRadius returns radius for chunk eviction (larger than load radius)
func GetChunkEvictRadius() int {
	return GetRenderDistance() * 2
}

// GetNeighborCheckDistance returns the block distance within which a section
// waits for all horizontal neighbour columns before compiling.
func GetNeighborCheckDistance() float64 {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.neighborCheckDistance
}

// SetNeighborCheckDistance sets the neighbour check distance in blocks
func SetNeighborCheckDistance(d float64) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if d < 0 {
		d = 0
	}
	globalRenderSettings.neighborCheckDistance = d
}

// GetHighPriorityDistance returns the block distance within which rebuilds
// go to the high priority queue.
func GetHighPriorityDistance() float64 {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.highPriorityDistance
}

// SetHighPriorityDistance sets the high priority distance in blocks
func SetHighPriorityDistance(d float64) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	if d < 0 {
		d = 0
	}
	globalRenderSettings.highPriorityDistance = d
}

// GetInitialCancelThreshold returns how many times a never-compiled section
// may have its rebuild cancelled before new rebuilds are demoted.
func GetInitialCancelThreshold() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.initialCancelThreshold
}

// SetInitialCancelThreshold sets the cancel threshold
func SetInitialCancelThreshold(n int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.initialCancelThreshold = max(n, 0)
}

// GetBufferPacks returns the number of staging buffer packs
func GetBufferPacks() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.bufferPacks
}

// SetBufferPacks sets the number of staging buffer packs
func SetBufferPacks(n int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.bufferPacks = clamp(n, 1, 10)
}

// GetWorkers returns the compile worker count
func GetWorkers() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.workers
}

// SetWorkers sets the compile worker count
func SetWorkers(n int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.workers = max(n, 1)
}

// Render is a consistent copy of the render settings.
type Render struct {
	RenderDistance         int
	NeighborCheckDistance  float64
	HighPriorityDistance   float64
	InitialCancelThreshold int
	BufferPacks            int
	Workers                int
}

// Snapshot returns all render settings read under one lock.
func Snapshot() Render {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return Render{
		RenderDistance:         globalRenderSettings.renderDistance,
		NeighborCheckDistance:  globalRenderSettings.neighborCheckDistance,
		HighPriorityDistance:   globalRenderSettings.highPriorityDistance,
		InitialCancelThreshold: globalRenderSettings.initialCancelThreshold,
		BufferPacks:            globalRenderSettings.bufferPacks,
		Workers:                globalRenderSettings.workers,
	}
}
