package vertex

import (
	"encoding/binary"
	"fmt"
)

// Primitive is the GPU primitive a mode is rasterized as. Values match the
// OpenGL enums.
type Primitive uint32

const (
	PrimitiveLines         Primitive = 0x0001
	PrimitiveLineStrip     Primitive = 0x0003
	PrimitiveTriangles     Primitive = 0x0004
	PrimitiveTriangleStrip Primitive = 0x0005
	PrimitiveTriangleFan   Primitive = 0x0006
)

// Mode is how vertices written by a BufferBuilder are grouped into primitives.
type Mode uint8

const (
	Lines Mode = iota
	LineStrip
	DebugLines
	DebugLineStrip
	Triangles
	TriangleStrip
	TriangleFan
	Quads
)

type modeInfo struct {
	name            string
	primitive       Primitive
	primitiveLength int
	primitiveStride int
	connected       bool
}

// Lines and quads are both drawn as indexed triangles; wide lines are quads.
var modes = [...]modeInfo{
	Lines:          {"LINES", PrimitiveTriangles, 2, 2, false},
	LineStrip:      {"LINE_STRIP", PrimitiveTriangleStrip, 2, 1, true},
	DebugLines:     {"DEBUG_LINES", PrimitiveLines, 2, 2, false},
	DebugLineStrip: {"DEBUG_LINE_STRIP", PrimitiveLineStrip, 2, 1, true},
	Triangles:      {"TRIANGLES", PrimitiveTriangles, 3, 3, false},
	TriangleStrip:  {"TRIANGLE_STRIP", PrimitiveTriangleStrip, 3, 1, true},
	TriangleFan:    {"TRIANGLE_FAN", PrimitiveTriangleFan, 3, 1, true},
	Quads:          {"QUADS", PrimitiveTriangles, 4, 4, false},
}

func (m Mode) String() string { return modes[m].name }

// Primitive returns the GPU primitive used to draw the mode.
func (m Mode) Primitive() Primitive { return modes[m].primitive }

// PrimitiveLength is the number of vertices in the first primitive.
func (m Mode) PrimitiveLength() int { return modes[m].primitiveLength }

// PrimitiveStride is the number of vertices each further primitive adds.
func (m Mode) PrimitiveStride() int { return modes[m].primitiveStride }

// Connected reports whether consecutive primitives share vertices.
func (m Mode) Connected() bool { return modes[m].connected }

// IndexCount returns how many indices are needed to draw vertexCount vertices.
// Quads and wide lines expand every 4 vertices into two triangles.
func (m Mode) IndexCount(vertexCount int) int {
	switch m {
	case Lines, Quads:
		return vertexCount / 4 * 6
	default:
		return vertexCount
	}
}

// duplicatesVertices reports whether each closed vertex is written twice.
// Wide lines are expanded to quads, so every line endpoint needs two vertices.
func (m Mode) duplicatesVertices() bool {
	return m == Lines || m == LineStrip
}

// IndexType is the width of one index buffer element.
type IndexType uint8

const (
	IndexShort IndexType = iota
	IndexInt
)

// LeastIndexType returns the narrowest index type able to address
// vertexCount vertices.
func LeastIndexType(vertexCount int) IndexType {
	if vertexCount&^0xFFFF != 0 {
		return IndexInt
	}
	return IndexShort
}

// Bytes returns the size of one index in bytes.
func (t IndexType) Bytes() int {
	if t == IndexInt {
		return 4
	}
	return 2
}

// GLType returns the OpenGL element type enum.
func (t IndexType) GLType() uint32 {
	if t == IndexInt {
		return 0x1405
	}
	return 0x1403
}

func (t IndexType) String() string {
	if t == IndexInt {
		return "INT"
	}
	return "SHORT"
}

// Encode writes indices into a new native-endian byte slice.
func (t IndexType) Encode(indices []uint32) ([]byte, error) {
	out := make([]byte, len(indices)*t.Bytes())
	for i, idx := range indices {
		if err := t.put(out, i*t.Bytes(), idx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Decode reads native-endian indices of this type from b.
func (t IndexType) Decode(b []byte) []uint32 {
	n := len(b) / t.Bytes()
	out := make([]uint32, n)
	for i := range out {
		if t == IndexInt {
			out[i] = binary.NativeEndian.Uint32(b[i*4:])
		} else {
			out[i] = uint32(binary.NativeEndian.Uint16(b[i*2:]))
		}
	}
	return out
}

func (t IndexType) put(b []byte, off int, idx uint32) error {
	if t == IndexInt {
		binary.NativeEndian.PutUint32(b[off:], idx)
		return nil
	}
	if idx > 0xFFFF {
		return fmt.Errorf("vertex: index %d does not fit in %s", idx, t)
	}
	binary.NativeEndian.PutUint16(b[off:], uint16(idx))
	return nil
}
