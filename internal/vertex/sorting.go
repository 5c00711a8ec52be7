package vertex

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Sorting orders primitives by their centroids. Sort returns primitive
// indices in draw order.
type Sorting interface {
	Sort(centroids []mgl32.Vec3) []int
}

// SortingFunc adapts a key function: primitives are drawn in descending key
// order, so the largest key comes first.
type SortingFunc func(c mgl32.Vec3) float32

// Sort implements Sorting.
func (f SortingFunc) Sort(centroids []mgl32.Vec3) []int {
	keys := make([]float32, len(centroids))
	order := make([]int, len(centroids))
	for i, c := range centroids {
		keys[i] = f(c)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] > keys[order[b]]
	})
	return order
}

// ByDistance draws the primitives farthest from origin first.
func ByDistance(origin mgl32.Vec3) Sorting {
	return SortingFunc(func(c mgl32.Vec3) float32 {
		d := c.Sub(origin)
		return d.Dot(d)
	})
}

// OrthoZ draws primitives with the lowest z first, for orthographic views
// looking down negative z.
var OrthoZ Sorting = SortingFunc(func(c mgl32.Vec3) float32 {
	return -c.Z()
})
