// Package gpu holds the GPU buffer contract used by section rendering and a
// headless implementation of it.
package gpu

import (
	"errors"

	"chunkmesh/internal/vertex"
)

// Handle names a buffer owned by a Backend. Zero is never a valid handle.
type Handle uint32

// BufferKind is the binding target of a buffer.
type BufferKind uint8

const (
	ArrayBuffer BufferKind = iota
	ElementBuffer
)

func (k BufferKind) String() string {
	if k == ElementBuffer {
		return "element"
	}
	return "array"
}

// ErrUnknownBuffer is returned for handles the backend does not own.
var ErrUnknownBuffer = errors.New("gpu: unknown buffer")

// Backend allocates, fills and draws GPU buffers. All calls happen on the
// thread owning the graphics context.
type Backend interface {
	Allocate(kind BufferKind) (Handle, error)
	Free(h Handle) error
	// Upload writes data at offset. An upload at offset zero replaces the
	// buffer's storage.
	Upload(h Handle, offset int, data []byte) error
	// SetupFormat describes format's attribute layout for vertex buffer vb.
	SetupFormat(vb Handle, format *vertex.Format) error
	Bind(vb, ib Handle) error
	DrawIndexed(mode vertex.Mode, count int, indexType vertex.IndexType) error
}
