package meshing

import (
	"context"
	"sync"

	"chunkmesh/internal/layer"
	"chunkmesh/internal/vertex"
)

// BufferPack is one staging byte buffer per layer, reused across compiles.
type BufferPack struct {
	buffers [layer.Count]*vertex.ByteBuffer
}

// NewBufferPack allocates a pack sized by each layer's default buffer size.
func NewBufferPack() *BufferPack {
	p := &BufferPack{}
	for _, l := range layer.All() {
		p.buffers[l] = vertex.NewByteBuffer(l.BufferSize())
	}
	return p
}

// Buffer returns the staging buffer of l.
func (p *BufferPack) Buffer(l layer.Layer) *vertex.ByteBuffer {
	return p.buffers[l]
}

// Clear rewinds every buffer for reuse.
func (p *BufferPack) Clear() {
	for _, b := range p.buffers {
		b.Clear()
	}
}

// Discard drops every buffer's storage and starts fresh.
func (p *BufferPack) Discard() {
	for _, b := range p.buffers {
		b.Discard()
	}
}

// PackPool hands out a fixed number of buffer packs.
type PackPool struct {
	free     chan *BufferPack
	capacity int
}

// NewPackPool creates a pool holding n packs.
func NewPackPool(n int) *PackPool {
	p := &PackPool{
		free:     make(chan *BufferPack, n),
		capacity: n,
	}
	for range n {
		p.free <- NewBufferPack()
	}
	return p
}

// TryAcquire checks out a pack without blocking. It returns nil when the
// pool is empty.
func (p *PackPool) TryAcquire() *Lease {
	select {
	case pack := <-p.free:
		return &Lease{pool: p, pack: pack}
	default:
		return nil
	}
}

// Acquire checks out a pack, waiting until one is free or ctx is done.
func (p *PackPool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case pack := <-p.free:
		return &Lease{pool: p, pack: pack}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Free returns the number of packs currently in the pool.
func (p *PackPool) Free() int {
	return len(p.free)
}

// Capacity returns the total number of packs.
func (p *PackPool) Capacity() int {
	return p.capacity
}

// Lease is a checked-out pack. It goes back to its pool exactly once.
type Lease struct {
	pool *PackPool
	pack *BufferPack
	once sync.Once
}

// Pack returns the leased pack.
func (l *Lease) Pack() *BufferPack {
	return l.pack
}

// Release returns the pack to its pool, rewinding the buffers after a
// successful job and discarding them otherwise. Calls after the first do
// nothing.
func (l *Lease) Release(success bool) {
	l.once.Do(func() {
		if success {
			l.pack.Clear()
		} else {
			l.pack.Discard()
		}
		l.pool.free <- l.pack
	})
}
