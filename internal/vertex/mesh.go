package vertex

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawState is everything needed to issue a draw call for a mesh.
type DrawState struct {
	Format      *Format
	VertexCount int
	IndexCount  int
	Mode        Mode
	IndexType   IndexType
}

// MeshData is a finished mesh: vertex bytes, optional index bytes and the
// draw state. Whoever takes a MeshData must Close it on every path.
type MeshData struct {
	vertices *Result
	indices  *Result
	state    DrawState
}

// NewMeshData wraps built vertex bytes.
func NewMeshData(vertices *Result, state DrawState) *MeshData {
	return &MeshData{vertices: vertices, state: state}
}

// VertexBytes returns the raw vertex data.
func (m *MeshData) VertexBytes() []byte { return m.vertices.Bytes() }

// IndexBytes returns the raw index data, or nil when the mesh has none.
func (m *MeshData) IndexBytes() []byte {
	if m.indices == nil {
		return nil
	}
	return m.indices.Bytes()
}

// IndexResult returns the index buffer result, or nil.
func (m *MeshData) IndexResult() *Result { return m.indices }

// DrawState returns the mesh's draw state.
func (m *MeshData) DrawState() DrawState { return m.state }

// Close releases the vertex and index bytes. Closing twice is a no-op.
func (m *MeshData) Close() {
	if m == nil {
		return
	}
	m.vertices.Close()
	m.indices.Close()
}

// SortQuads computes quad centroids, writes a sorted index buffer into buf
// and returns the sort state for later re-sorting. Only quad meshes can be
// sorted; other modes return nil.
func (m *MeshData) SortQuads(buf *ByteBuffer, sorting Sorting) (*SortState, error) {
	if m.state.Mode != Quads {
		return nil, nil
	}
	centroids, err := unpackQuadCentroids(m.vertices.Bytes(), m.state.VertexCount, m.state.Format)
	if err != nil {
		return nil, err
	}
	state := &SortState{Centroids: centroids, IndexType: m.state.IndexType}
	m.indices.Close()
	m.indices = state.BuildSortedIndexBuffer(buf, sorting)
	return state, nil
}

// unpackQuadCentroids averages the first and third corner of every quad.
func unpackQuadCentroids(data []byte, vertexCount int, format *Format) ([]mgl32.Vec3, error) {
	posOff := format.Offset(Position)
	if posOff < 0 {
		return nil, errors.New("vertex: cannot find quad centers with no position element")
	}
	stride := format.VertexSize()
	quads := vertexCount / 4
	out := make([]mgl32.Vec3, quads)
	for i := range out {
		a := i*4*stride + posOff
		c := a + 2*stride
		out[i] = mgl32.Vec3{
			(readFloat(data, a) + readFloat(data, c)) / 2,
			(readFloat(data, a+4) + readFloat(data, c+4)) / 2,
			(readFloat(data, a+8) + readFloat(data, c+8)) / 2,
		}
	}
	return out, nil
}

func readFloat(b []byte, off int) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(b[off:]))
}

// SortState keeps the centroids of a quad mesh so it can be re-sorted
// against a new camera position without recompiling.
type SortState struct {
	Centroids []mgl32.Vec3
	IndexType IndexType
}

// quadIndexPattern turns quad corners into two triangles.
var quadIndexPattern = [6]uint32{0, 1, 2, 2, 3, 0}

// BuildSortedIndexBuffer writes six indices per quad in sorted order into
// buf and returns the built range. It returns nil when there are no quads.
func (s *SortState) BuildSortedIndexBuffer(buf *ByteBuffer, sorting Sorting) *Result {
	order := sorting.Sort(s.Centroids)
	size := s.IndexType.Bytes()
	off := buf.Reserve(len(order) * 6 * size)
	for _, q := range order {
		base := uint32(q) * 4
		for _, p := range quadIndexPattern {
			if s.IndexType == IndexInt {
				buf.PutUint32(off, base+p)
			} else {
				buf.PutUint16(off, uint16(base+p))
			}
			off += size
		}
	}
	return buf.Build()
}
