// Package glbackend implements gpu.Backend on OpenGL 4.1 core.
// Every method must be called on the thread that owns the GL context.
package glbackend

import (
	"fmt"

	"chunkmesh/internal/gpu"
	"chunkmesh/internal/vertex"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type buffer struct {
	id   uint32
	kind gpu.BufferKind
	vao  uint32
	size int
}

// Backend owns GL buffer objects. Each array buffer gets its own vertex
// array object holding the attribute layout.
type Backend struct {
	buffers map[gpu.Handle]*buffer
	next    gpu.Handle
}

var _ gpu.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{buffers: make(map[gpu.Handle]*buffer)}
}

func target(kind gpu.BufferKind) uint32 {
	if kind == gpu.ElementBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (b *Backend) lookup(h gpu.Handle) (*buffer, error) {
	buf, ok := b.buffers[h]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", h, gpu.ErrUnknownBuffer)
	}
	return buf, nil
}

func (b *Backend) Allocate(kind gpu.BufferKind) (gpu.Handle, error) {
	buf := &buffer{kind: kind}
	gl.GenBuffers(1, &buf.id)
	if buf.id == 0 {
		return 0, fmt.Errorf("glGenBuffers returned 0 for %s buffer", kind)
	}
	if kind == gpu.ArrayBuffer {
		gl.GenVertexArrays(1, &buf.vao)
	}
	b.next++
	b.buffers[b.next] = buf
	return b.next, nil
}

func (b *Backend) Free(h gpu.Handle) error {
	buf, err := b.lookup(h)
	if err != nil {
		return err
	}
	gl.DeleteBuffers(1, &buf.id)
	if buf.vao != 0 {
		gl.DeleteVertexArrays(1, &buf.vao)
	}
	delete(b.buffers, h)
	return nil
}

func (b *Backend) Upload(h gpu.Handle, offset int, data []byte) error {
	buf, err := b.lookup(h)
	if err != nil {
		return err
	}
	t := target(buf.kind)
	if buf.kind == gpu.ElementBuffer {
		// Element buffer bindings are VAO state; keep them off whatever is bound.
		gl.BindVertexArray(0)
	}
	gl.BindBuffer(t, buf.id)
	defer gl.BindBuffer(t, 0)

	if offset == 0 {
		if len(data) == 0 {
			gl.BufferData(t, 0, nil, gl.STATIC_DRAW)
		} else {
			gl.BufferData(t, len(data), gl.Ptr(data), gl.STATIC_DRAW)
		}
		buf.size = len(data)
		return glError("upload")
	}
	if offset+len(data) > buf.size {
		return fmt.Errorf("upload %d: %d bytes at %d past end %d", h, len(data), offset, buf.size)
	}
	if len(data) > 0 {
		gl.BufferSubData(t, offset, len(data), gl.Ptr(data))
	}
	return glError("upload")
}

// SetupFormat binds the vertex buffer's attributes in format order: the
// n-th element of the format is attribute location n.
func (b *Backend) SetupFormat(vb gpu.Handle, format *vertex.Format) error {
	buf, err := b.lookup(vb)
	if err != nil {
		return err
	}
	if buf.kind != gpu.ArrayBuffer {
		return fmt.Errorf("setup format on %s buffer %d", buf.kind, vb)
	}
	gl.BindVertexArray(buf.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
	defer gl.BindVertexArray(0)

	stride := int32(format.VertexSize())
	for loc, e := range format.Elements() {
		l := uint32(loc)
		off := format.Offset(e)
		gl.EnableVertexAttribArray(l)
		switch e.Usage() {
		case vertex.UsagePosition, vertex.UsageGeneric:
			gl.VertexAttribPointerWithOffset(l, int32(e.Count()), e.Type().GLType(), false, stride, uintptr(off))
		case vertex.UsageNormal, vertex.UsageColor:
			gl.VertexAttribPointerWithOffset(l, int32(e.Count()), e.Type().GLType(), true, stride, uintptr(off))
		case vertex.UsageUV:
			if e.Type() == vertex.Float {
				gl.VertexAttribPointerWithOffset(l, int32(e.Count()), e.Type().GLType(), false, stride, uintptr(off))
			} else {
				gl.VertexAttribIPointer(l, int32(e.Count()), e.Type().GLType(), stride, gl.PtrOffset(off))
			}
		}
	}
	return glError("setup format")
}

func (b *Backend) Bind(vb, ib gpu.Handle) error {
	v, err := b.lookup(vb)
	if err != nil {
		return err
	}
	i, err := b.lookup(ib)
	if err != nil {
		return err
	}
	gl.BindVertexArray(v.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, i.id)
	return nil
}

func (b *Backend) DrawIndexed(mode vertex.Mode, count int, indexType vertex.IndexType) error {
	gl.DrawElements(uint32(mode.Primitive()), int32(count), indexType.GLType(), gl.PtrOffset(0))
	return glError("draw")
}

// Live returns the number of GL buffers currently owned.
func (b *Backend) Live() int {
	return len(b.buffers)
}

// Close frees every buffer still owned and reports how many leaked.
func (b *Backend) Close() error {
	leaked := len(b.buffers)
	for h := range b.buffers {
		_ = b.Free(h)
	}
	if leaked > 0 {
		return fmt.Errorf("%d GL buffers were still live at shutdown", leaked)
	}
	return nil
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%04x", op, code)
	}
	return nil
}
