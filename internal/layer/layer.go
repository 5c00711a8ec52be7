package layer

// Layer identifies a chunk material layer. Each layer owns its own vertex
// and index buffers and is drawn with its own pipeline state.
type Layer uint8

const (
	Solid Layer = iota
	CutoutMipped
	Cutout
	Translucent
	Tripwire
)

// Count is the number of chunk layers.
const Count = 5

var names = [Count]string{"solid", "cutout_mipped", "cutout", "translucent", "tripwire"}

// Staging buffer sizes per layer, in bytes.
var bufferSizes = [Count]int{
	Solid:        4 << 20,
	CutoutMipped: 4 << 20,
	Cutout:       768 << 10,
	Translucent:  768 << 10,
	Tripwire:     1536,
}

var all = [Count]Layer{Solid, CutoutMipped, Cutout, Translucent, Tripwire}

// All returns every chunk layer in draw order.
func All() []Layer {
	out := all
	return out[:]
}

func (l Layer) String() string {
	if int(l) < len(names) {
		return names[l]
	}
	return "unknown"
}

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	return int(l) < Count
}

// Sorted reports whether quads in this layer must be drawn back to front.
func (l Layer) Sorted() bool {
	return l == Translucent
}

// BufferSize returns the initial staging buffer capacity for the layer.
func (l Layer) BufferSize() int {
	return bufferSizes[l]
}

// Set is a bit set of layers.
type Set uint8

// Add returns s with l included.
func (s Set) Add(l Layer) Set {
	return s | 1<<l
}

// Has reports whether l is in s.
func (s Set) Has(l Layer) bool {
	return s&(1<<l) != 0
}

// Empty reports whether s contains no layers.
func (s Set) Empty() bool {
	return s == 0
}

// Len returns the number of layers in s.
func (s Set) Len() int {
	n := 0
	for _, l := range all {
		if s.Has(l) {
			n++
		}
	}
	return n
}

// Layers returns the members of s in draw order.
func (s Set) Layers() []Layer {
	out := make([]Layer, 0, Count)
	for _, l := range all {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}
