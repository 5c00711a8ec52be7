package visibility

import "chunkmesh/internal/world"

const (
	size   = world.SectionSize
	volume = world.SectionVolume
	// belowThreshold is the opaque cell count under which no wall can split
	// the section, so every face sees every other.
	belowThreshold = size * size
)

const (
	dx = 1
	dz = size
	dy = size * size
)

// edgeCells lists the indices of every cell on the section boundary.
var edgeCells = func() []int {
	var out []int
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				if x == 0 || x == size-1 || y == 0 || y == size-1 || z == 0 || z == size-1 {
					out = append(out, index(x, y, z))
				}
			}
		}
	}
	return out
}()

func index(x, y, z int) int {
	return x*dx + z*dz + y*dy
}

// Graph records opaque cells of one section.
type Graph struct {
	opaque [volume / 64]uint64
	empty  int
}

// NewGraph returns a graph with every cell open.
func NewGraph() *Graph {
	return &Graph{empty: volume}
}

func (g *Graph) isOpaque(i int) bool {
	return g.opaque[i>>6]&(1<<(uint(i)&63)) != 0
}

// SetOpaque marks the cell at local coordinates as opaque.
func (g *Graph) SetOpaque(x, y, z int) {
	i := index(x&15, y&15, z&15)
	if g.isOpaque(i) {
		return
	}
	g.opaque[i>>6] |= 1 << (uint(i) & 63)
	g.empty--
}

// Resolve flood fills every open region touching the boundary and returns the
// set of face pairs connected through open cells.
func (g *Graph) Resolve() Set {
	var s Set
	switch {
	case volume-g.empty < belowThreshold:
		s.SetAll(true)
	case g.empty == 0:
		s.SetAll(false)
	default:
		var visited [volume / 64]uint64
		queue := make([]int, 0, 256)
		for _, start := range edgeCells {
			if g.isOpaque(start) || visited[start>>6]&(1<<(uint(start)&63)) != 0 {
				continue
			}
			s.Add(g.flood(start, &visited, queue[:0]))
		}
	}
	return s
}

func (g *Graph) flood(start int, visited *[volume / 64]uint64, queue []int) []world.Direction {
	var faces [faceCount]bool
	mark := func(i int) {
		visited[i>>6] |= 1 << (uint(i) & 63)
	}
	mark(start)
	queue = append(queue, start)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		addEdges(i, &faces)
		for _, d := range world.Directions {
			n, ok := neighbour(i, d)
			if !ok || g.isOpaque(n) || visited[n>>6]&(1<<(uint(n)&63)) != 0 {
				continue
			}
			mark(n)
			queue = append(queue, n)
		}
	}
	out := make([]world.Direction, 0, faceCount)
	for _, d := range world.Directions {
		if faces[d] {
			out = append(out, d)
		}
	}
	return out
}

func coords(i int) (x, y, z int) {
	return i & 15, (i >> 8) & 15, (i >> 4) & 15
}

func addEdges(i int, faces *[faceCount]bool) {
	x, y, z := coords(i)
	if x == 0 {
		faces[world.West] = true
	} else if x == size-1 {
		faces[world.East] = true
	}
	if y == 0 {
		faces[world.Down] = true
	} else if y == size-1 {
		faces[world.Up] = true
	}
	if z == 0 {
		faces[world.North] = true
	} else if z == size-1 {
		faces[world.South] = true
	}
}

func neighbour(i int, d world.Direction) (int, bool) {
	x, y, z := coords(i)
	ox, oy, oz := d.Offset()
	x, y, z = x+ox, y+oy, z+oz
	if x < 0 || x >= size || y < 0 || y >= size || z < 0 || z >= size {
		return 0, false
	}
	return index(x, y, z), true
}
