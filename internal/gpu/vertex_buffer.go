package gpu

import (
	"fmt"

	"go.uber.org/multierr"

	"chunkmesh/internal/vertex"
)

// VertexBuffer is the vertex and index buffer pair of one mesh on the GPU.
// It is used only from the thread owning the backend.
type VertexBuffer struct {
	backend Backend
	vb, ib  Handle

	format     *vertex.Format
	mode       vertex.Mode
	indexType  vertex.IndexType
	indexCount int
	closed     bool
}

// NewVertexBuffer allocates both buffers.
func NewVertexBuffer(backend Backend) (*VertexBuffer, error) {
	vb, err := backend.Allocate(ArrayBuffer)
	if err != nil {
		return nil, fmt.Errorf("allocate vertex buffer: %w", err)
	}
	ib, err := backend.Allocate(ElementBuffer)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("allocate index buffer: %w", err), backend.Free(vb))
	}
	return &VertexBuffer{backend: backend, vb: vb, ib: ib}, nil
}

// IsInvalid reports whether the buffer has been closed.
func (b *VertexBuffer) IsInvalid() bool {
	return b.closed
}

// IndexCount returns the number of indices the next Draw issues.
func (b *VertexBuffer) IndexCount() int {
	return b.indexCount
}

// Format returns the format of the last uploaded mesh, or nil.
func (b *VertexBuffer) Format() *vertex.Format {
	return b.format
}

// Upload replaces the buffer contents with mesh and closes mesh. Meshes
// without an index buffer get the sequential pattern of their mode. Uploading
// into a closed buffer only closes mesh.
func (b *VertexBuffer) Upload(mesh *vertex.MeshData) error {
	defer mesh.Close()
	if b.closed {
		return nil
	}
	state := mesh.DrawState()

	if err := b.backend.Upload(b.vb, 0, mesh.VertexBytes()); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}
	if b.format == nil || !b.format.Equal(state.Format) {
		if err := b.backend.SetupFormat(b.vb, state.Format); err != nil {
			return fmt.Errorf("setup format %s: %w", state.Format, err)
		}
		b.format = state.Format
	}

	indices := mesh.IndexBytes()
	indexType := state.IndexType
	if indices == nil {
		seq, t := vertex.SequentialIndices(state.Mode, state.VertexCount)
		encoded, err := t.Encode(seq)
		if err != nil {
			return fmt.Errorf("encode sequential indices: %w", err)
		}
		indices, indexType = encoded, t
	}
	if err := b.backend.Upload(b.ib, 0, indices); err != nil {
		return fmt.Errorf("upload indices: %w", err)
	}

	b.mode = state.Mode
	b.indexType = indexType
	b.indexCount = state.IndexCount
	return nil
}

// UploadIndexBuffer replaces only the index buffer, keeping the vertex data,
// and closes indices. Used after re-sorting.
func (b *VertexBuffer) UploadIndexBuffer(indices *vertex.Result, indexType vertex.IndexType) error {
	defer indices.Close()
	if b.closed {
		return nil
	}
	if err := b.backend.Upload(b.ib, 0, indices.Bytes()); err != nil {
		return fmt.Errorf("upload sorted indices: %w", err)
	}
	b.indexType = indexType
	b.indexCount = indices.Len() / indexType.Bytes()
	return nil
}

// Draw issues an indexed draw of the uploaded mesh.
func (b *VertexBuffer) Draw() error {
	if b.closed || b.indexCount == 0 {
		return nil
	}
	if err := b.backend.Bind(b.vb, b.ib); err != nil {
		return err
	}
	return b.backend.DrawIndexed(b.mode, b.indexCount, b.indexType)
}

// Close frees both buffers. Closing twice is a no-op.
func (b *VertexBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.indexCount = 0
	return multierr.Combine(b.backend.Free(b.vb), b.backend.Free(b.ib))
}
