package vertex

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"chunkmesh/internal/logger"

	"go.uber.org/zap"
)

// ByteBuffer is a growable staging buffer. Writers reserve space, fill it
// through the Put helpers and cut the written range into a Result.
//
// A ByteBuffer has a single writer. Results may be closed from any goroutine.
type ByteBuffer struct {
	initialCapacity int
	data            []byte
	writeOffset     int
	nextResult      int

	mu          sync.Mutex
	openResults int
	generation  int
}

// NewByteBuffer allocates a buffer with the given initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &ByteBuffer{
		initialCapacity: capacity,
		data:            make([]byte, capacity),
	}
}

// Reserve makes room for n more bytes and returns the offset of the region.
func (b *ByteBuffer) Reserve(n int) int {
	off := b.writeOffset
	end := off + n
	if end > len(b.data) {
		b.grow(end)
	}
	b.writeOffset = end
	return off
}

func (b *ByteBuffer) grow(need int) {
	size := len(b.data)
	if size < 256 {
		size = 256
	}
	for size < need {
		size += size / 2
	}
	data := make([]byte, size)
	copy(data, b.data[:b.writeOffset])
	b.data = data
}

// Len returns the number of bytes written, including built results.
func (b *ByteBuffer) Len() int { return b.writeOffset }

// Capacity returns the current backing capacity.
func (b *ByteBuffer) Capacity() int { return len(b.data) }

func (b *ByteBuffer) check(off, n int) {
	if off < 0 || off+n > b.writeOffset {
		panic(fmt.Sprintf("vertex: write of %d bytes at %d outside reserved range %d", n, off, b.writeOffset))
	}
}

// PutUint8 writes v at off.
func (b *ByteBuffer) PutUint8(off int, v uint8) {
	b.check(off, 1)
	b.data[off] = v
}

// PutInt8 writes v at off.
func (b *ByteBuffer) PutInt8(off int, v int8) {
	b.check(off, 1)
	b.data[off] = byte(v)
}

// PutUint16 writes v at off in native byte order.
func (b *ByteBuffer) PutUint16(off int, v uint16) {
	b.check(off, 2)
	binary.NativeEndian.PutUint16(b.data[off:], v)
}

// PutUint32 writes v at off in native byte order.
func (b *ByteBuffer) PutUint32(off int, v uint32) {
	b.check(off, 4)
	binary.NativeEndian.PutUint32(b.data[off:], v)
}

// PutFloat32 writes v at off in native byte order.
func (b *ByteBuffer) PutFloat32(off int, v float32) {
	b.PutUint32(off, math.Float32bits(v))
}

// Copy duplicates n bytes from src to dst inside the reserved range.
func (b *ByteBuffer) Copy(dst, src, n int) {
	b.check(src, n)
	b.check(dst, n)
	copy(b.data[dst:dst+n], b.data[src:src+n])
}

// Slice returns a view of n written bytes starting at off.
func (b *ByteBuffer) Slice(off, n int) []byte {
	b.check(off, n)
	return b.data[off : off+n : off+n]
}

// Build cuts everything written since the previous Build into a Result.
// It returns nil when nothing was written.
func (b *ByteBuffer) Build() *Result {
	if b.writeOffset == b.nextResult {
		return nil
	}
	start := b.nextResult
	b.nextResult = b.writeOffset

	b.mu.Lock()
	b.openResults++
	gen := b.generation
	b.mu.Unlock()

	return &Result{
		owner:      b,
		generation: gen,
		data:       b.data[start:b.writeOffset:b.writeOffset],
	}
}

// OpenResults returns the number of results built and not yet closed.
func (b *ByteBuffer) OpenResults() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openResults
}

// Clear rewinds the buffer for reuse, keeping its backing storage. Results
// still open keep their bytes; the buffer moves to fresh storage for them.
func (b *ByteBuffer) Clear() {
	b.mu.Lock()
	open := b.openResults
	b.generation++
	b.openResults = 0
	b.mu.Unlock()

	if open > 0 {
		logger.Log.Warn("clearing byte buffer with open results", zap.Int("open", open))
		b.data = make([]byte, len(b.data))
	} else if b.writeOffset != b.nextResult {
		logger.Log.Debug("clearing byte buffer with unbuilt bytes", zap.Int("bytes", b.writeOffset-b.nextResult))
	}
	b.writeOffset = 0
	b.nextResult = 0
}

// Discard drops the backing storage and starts over at the initial capacity.
// Use it when the buffer may have been left mid-write.
func (b *ByteBuffer) Discard() {
	b.mu.Lock()
	b.generation++
	b.openResults = 0
	b.mu.Unlock()

	b.data = make([]byte, b.initialCapacity)
	b.writeOffset = 0
	b.nextResult = 0
}

func (b *ByteBuffer) release(generation int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if generation != b.generation || b.openResults == 0 {
		return
	}
	b.openResults--
}

// Result is an immutable range of bytes cut from a ByteBuffer.
type Result struct {
	owner      *ByteBuffer
	generation int
	data       []byte
	once       sync.Once
}

// Bytes returns the result's bytes. They must not be used after Close.
func (r *Result) Bytes() []byte { return r.data }

// Len returns the size of the result in bytes.
func (r *Result) Len() int { return len(r.data) }

// Close hands the range back to its buffer. Closing twice is a no-op.
func (r *Result) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.owner.release(r.generation)
		r.data = nil
	})
}
