package vertex

// lineIndexPattern turns the four vertices of a wide line into a quad.
var lineIndexPattern = [6]uint32{0, 1, 2, 3, 2, 1}

// SequentialIndices returns the index pattern used to draw vertexCount
// vertices of mode without an explicit index buffer, along with its type.
func SequentialIndices(mode Mode, vertexCount int) ([]uint32, IndexType) {
	n := mode.IndexCount(vertexCount)
	out := make([]uint32, 0, n)
	switch mode {
	case Quads:
		out = appendPattern(out, quadIndexPattern, n)
	case Lines:
		out = appendPattern(out, lineIndexPattern, n)
	default:
		for i := 0; i < n; i++ {
			out = append(out, uint32(i))
		}
	}
	return out, LeastIndexType(vertexCount)
}

func appendPattern(out []uint32, pattern [6]uint32, n int) []uint32 {
	for base := uint32(0); len(out) < n; base += 4 {
		for _, p := range pattern {
			out = append(out, base+p)
		}
	}
	return out
}
