package vertex

import (
	"encoding/binary"
	"errors"
	"strings"
)

var (
	// ErrNoPosition is returned when a builder's format lacks a position element.
	ErrNoPosition = errors.New("vertex: cannot build mesh with no position element")
	// ErrNotBuilding is returned when a builder is used after Build.
	ErrNotBuilding = errors.New("vertex: not building")
)

// MissingElementsError reports a vertex that was closed before every
// element of its format was written.
type MissingElementsError struct {
	Elements []string
}

func (e *MissingElementsError) Error() string {
	return "vertex: missing elements in vertex: " + strings.Join(e.Elements, ", ")
}

var bigEndian = binary.NativeEndian.Uint16([]byte{0x00, 0x01}) == 0x0001

// BufferBuilder writes the vertices of one mesh into a ByteBuffer.
//
// Every element of the format except position must be written exactly once
// per vertex before the next vertex is started. Setters for elements the
// format does not declare are silently ignored.
//
// Usage errors are sticky: the first one is kept, later calls are no-ops and
// Build returns it.
type BufferBuilder struct {
	buf    *ByteBuffer
	format *Format
	mode   Mode

	vertexSize     int
	initialPending uint32
	fastFormat     bool
	fullFormat     bool

	vertexOffset int
	vertices     int
	pending      uint32
	building     bool
	err          error
}

// NewBufferBuilder starts a mesh in buf.
func NewBufferBuilder(buf *ByteBuffer, mode Mode, format *Format) (*BufferBuilder, error) {
	if !format.Contains(Position) {
		return nil, ErrNoPosition
	}
	return &BufferBuilder{
		buf:            buf,
		format:         format,
		mode:           mode,
		vertexSize:     format.VertexSize(),
		initialPending: format.Mask() &^ Position.Mask(),
		fastFormat:     format == BlockFormat || format == EntityFormat,
		fullFormat:     format == EntityFormat,
		vertexOffset:   -1,
		building:       true,
	}, nil
}

// Format returns the builder's vertex format.
func (b *BufferBuilder) Format() *Format { return b.format }

// Mode returns the builder's primitive mode.
func (b *BufferBuilder) Mode() Mode { return b.mode }

// Vertices returns the number of vertices written so far.
func (b *BufferBuilder) Vertices() int { return b.vertices }

// Err returns the first usage error, if any.
func (b *BufferBuilder) Err() error { return b.err }

func (b *BufferBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build closes the last vertex and freezes the written range into a mesh.
// It returns nil, nil when no vertices were written.
func (b *BufferBuilder) Build() (*MeshData, error) {
	if !b.building {
		b.fail(ErrNotBuilding)
		return nil, b.err
	}
	b.endLastVertex()
	b.building = false
	b.vertexOffset = -1
	if b.err != nil {
		return nil, b.err
	}
	if b.vertices == 0 {
		return nil, nil
	}
	res := b.buf.Build()
	if res == nil {
		return nil, nil
	}
	state := DrawState{
		Format:      b.format,
		VertexCount: b.vertices,
		IndexCount:  b.mode.IndexCount(b.vertices),
		Mode:        b.mode,
		IndexType:   LeastIndexType(b.vertices),
	}
	return NewMeshData(res, state), nil
}

func (b *BufferBuilder) beginVertex() int {
	if !b.building {
		b.fail(ErrNotBuilding)
		return -1
	}
	b.endLastVertex()
	if b.err != nil {
		return -1
	}
	b.vertices++
	off := b.buf.Reserve(b.vertexSize)
	b.vertexOffset = off
	return off
}

// beginElement returns where e goes in the current vertex, or -1 when e is
// not pending.
func (b *BufferBuilder) beginElement(e *Element) int {
	if b.err != nil {
		return -1
	}
	next := b.pending &^ e.Mask()
	if next == b.pending {
		return -1
	}
	b.pending = next
	return b.vertexOffset + b.format.Offset(e)
}

func (b *BufferBuilder) endLastVertex() {
	if b.vertices == 0 || b.err != nil {
		return
	}
	if b.pending != 0 {
		missing := elementsFromMask(b.pending)
		names := make([]string, 0, len(missing))
		for _, e := range missing {
			names = append(names, b.format.ElementName(e))
		}
		b.fail(&MissingElementsError{Elements: names})
		return
	}
	if b.mode.duplicatesVertices() {
		off := b.buf.Reserve(b.vertexSize)
		b.buf.Copy(off, off-b.vertexSize, b.vertexSize)
		b.vertices++
	}
}

// AddVertex starts a new vertex at the given position.
func (b *BufferBuilder) AddVertex(x, y, z float32) {
	off := b.beginVertex()
	if off < 0 {
		return
	}
	off += b.format.Offset(Position)
	b.pending = b.initialPending
	b.buf.PutFloat32(off, x)
	b.buf.PutFloat32(off+4, y)
	b.buf.PutFloat32(off+8, z)
}

// SetColor writes an RGBA color, one byte per channel.
func (b *BufferBuilder) SetColor(r, g, bl, a int) {
	off := b.beginElement(Color)
	if off < 0 {
		return
	}
	b.buf.PutUint8(off, uint8(r))
	b.buf.PutUint8(off+1, uint8(g))
	b.buf.PutUint8(off+2, uint8(bl))
	b.buf.PutUint8(off+3, uint8(a))
}

// SetPackedColor writes a packed 0xAARRGGBB color.
func (b *BufferBuilder) SetPackedColor(argb uint32) {
	off := b.beginElement(Color)
	if off < 0 {
		return
	}
	b.putRGBA(off, argb)
}

// SetUv writes texture coordinates.
func (b *BufferBuilder) SetUv(u, v float32) {
	off := b.beginElement(UV0)
	if off < 0 {
		return
	}
	b.buf.PutFloat32(off, u)
	b.buf.PutFloat32(off+4, v)
}

// SetUv1 writes overlay coordinates.
func (b *BufferBuilder) SetUv1(u, v int) {
	b.uvShort(UV1, u, v)
}

// SetUv2 writes lightmap coordinates.
func (b *BufferBuilder) SetUv2(u, v int) {
	b.uvShort(UV2, u, v)
}

// SetOverlay writes packed overlay coordinates.
func (b *BufferBuilder) SetOverlay(packed uint32) {
	off := b.beginElement(UV1)
	if off < 0 {
		return
	}
	b.putPackedUv(off, packed)
}

// SetLight writes a packed light value, block light in the low 16 bits and
// sky light in the high 16 bits.
func (b *BufferBuilder) SetLight(packed uint32) {
	off := b.beginElement(UV2)
	if off < 0 {
		return
	}
	b.putPackedUv(off, packed)
}

func (b *BufferBuilder) uvShort(e *Element, u, v int) {
	off := b.beginElement(e)
	if off < 0 {
		return
	}
	b.buf.PutUint16(off, uint16(int16(u)))
	b.buf.PutUint16(off+2, uint16(int16(v)))
}

// SetNormal writes a unit normal as three signed bytes.
func (b *BufferBuilder) SetNormal(x, y, z float32) {
	off := b.beginElement(Normal)
	if off < 0 {
		return
	}
	b.putNormal(off, x, y, z)
}

// AddFullVertex writes a complete vertex. For the block and entity formats
// every element is written in a single pass without pending bookkeeping.
func (b *BufferBuilder) AddFullVertex(v Vertex) {
	if !b.fastFormat {
		emitElements(b, v)
		return
	}
	off := b.beginVertex()
	if off < 0 {
		return
	}
	b.pending = 0
	b.buf.PutFloat32(off, v.X)
	b.buf.PutFloat32(off+4, v.Y)
	b.buf.PutFloat32(off+8, v.Z)
	b.putRGBA(off+12, v.Color)
	b.buf.PutFloat32(off+16, v.U)
	b.buf.PutFloat32(off+20, v.V)
	next := off + 24
	if b.fullFormat {
		b.putPackedUv(next, v.Overlay)
		next += 4
	}
	b.putPackedUv(next, v.Light)
	b.putNormal(next+4, v.NX, v.NY, v.NZ)
}

// putRGBA stores an ARGB color as ABGR in native order, so the bytes in
// memory are always R, G, B, A.
func (b *BufferBuilder) putRGBA(off int, argb uint32) {
	abgr := argb&0xFF00FF00 | (argb>>16)&0xFF | (argb&0xFF)<<16
	if bigEndian {
		abgr = abgr>>24 | (abgr>>8)&0xFF00 | (abgr<<8)&0xFF0000 | abgr<<24
	}
	b.buf.PutUint32(off, abgr)
}

func (b *BufferBuilder) putPackedUv(off int, packed uint32) {
	b.buf.PutUint16(off, uint16(packed&0xFFFF))
	b.buf.PutUint16(off+2, uint16(packed>>16&0xFFFF))
}

func (b *BufferBuilder) putNormal(off int, x, y, z float32) {
	b.buf.PutInt8(off, normalByte(x))
	b.buf.PutInt8(off+1, normalByte(y))
	b.buf.PutInt8(off+2, normalByte(z))
}

func normalByte(v float32) int8 {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	return int8(int(v * 127))
}
