package gpu

import (
	"fmt"
	"sync"

	"chunkmesh/internal/vertex"
)

type memBuffer struct {
	kind   BufferKind
	data   []byte
	format *vertex.Format
}

// DrawCall records one DrawIndexed call.
type DrawCall struct {
	VB, IB    Handle
	Mode      vertex.Mode
	Count     int
	IndexType vertex.IndexType
}

// MemoryBackend keeps buffers in memory. It is meant for headless runs and
// tests and is safe for concurrent use.
type MemoryBackend struct {
	mu        sync.Mutex
	next      Handle
	buffers   map[Handle]*memBuffer
	boundVB   Handle
	boundIB   Handle
	draws     []DrawCall
	uploads   int
	uploadErr error
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{buffers: make(map[Handle]*memBuffer)}
}

// Allocate implements Backend.
func (m *MemoryBackend) Allocate(kind BufferKind) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.buffers[m.next] = &memBuffer{kind: kind}
	return m.next, nil
}

// Free implements Backend.
func (m *MemoryBackend) Free(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[h]; !ok {
		return fmt.Errorf("free %d: %w", h, ErrUnknownBuffer)
	}
	delete(m.buffers, h)
	return nil
}

// Upload implements Backend.
func (m *MemoryBackend) Upload(h Handle, offset int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	b, ok := m.buffers[h]
	if !ok {
		return fmt.Errorf("upload %d: %w", h, ErrUnknownBuffer)
	}
	if offset == 0 {
		b.data = append(b.data[:0:0], data...)
	} else {
		if offset+len(data) > len(b.data) {
			return fmt.Errorf("upload %d: %d bytes at %d past end %d", h, len(data), offset, len(b.data))
		}
		copy(b.data[offset:], data)
	}
	m.uploads++
	return nil
}

// SetupFormat implements Backend.
func (m *MemoryBackend) SetupFormat(vb Handle, format *vertex.Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buffers[vb]
	if !ok || b.kind != ArrayBuffer {
		return fmt.Errorf("setup format on %d: %w", vb, ErrUnknownBuffer)
	}
	b.format = format
	return nil
}

// Bind implements Backend.
func (m *MemoryBackend) Bind(vb, ib Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[vb]; !ok {
		return fmt.Errorf("bind %d: %w", vb, ErrUnknownBuffer)
	}
	if _, ok := m.buffers[ib]; !ok {
		return fmt.Errorf("bind %d: %w", ib, ErrUnknownBuffer)
	}
	m.boundVB, m.boundIB = vb, ib
	return nil
}

// DrawIndexed implements Backend.
func (m *MemoryBackend) DrawIndexed(mode vertex.Mode, count int, indexType vertex.IndexType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ib, ok := m.buffers[m.boundIB]
	if !ok {
		return fmt.Errorf("draw: %w", ErrUnknownBuffer)
	}
	if need := count * indexType.Bytes(); need > len(ib.data) {
		return fmt.Errorf("draw: %d indices need %d bytes, buffer has %d", count, need, len(ib.data))
	}
	m.draws = append(m.draws, DrawCall{VB: m.boundVB, IB: m.boundIB, Mode: mode, Count: count, IndexType: indexType})
	return nil
}

// SetUploadError makes every following upload fail with err. Nil clears it.
func (m *MemoryBackend) SetUploadError(err error) {
	m.mu.Lock()
	m.uploadErr = err
	m.mu.Unlock()
}

// Data returns a copy of a buffer's contents.
func (m *MemoryBackend) Data(h Handle) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buffers[h]; ok {
		return append([]byte(nil), b.data...)
	}
	return nil
}

// Live returns the number of allocated buffers.
func (m *MemoryBackend) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffers)
}

// Uploads returns the number of successful uploads.
func (m *MemoryBackend) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// Draws returns the recorded draw calls.
func (m *MemoryBackend) Draws() []DrawCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DrawCall(nil), m.draws...)
}
