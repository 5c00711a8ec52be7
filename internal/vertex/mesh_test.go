package vertex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// buildQuadsAt writes one unit quad per z value, facing +z.
func buildQuadsAt(t *testing.T, zs ...float32) (*MeshData, *ByteBuffer) {
	t.Helper()
	b, buf := newBuilder(t, Quads, BlockFormat)
	corners := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, z := range zs {
		for _, c := range corners {
			b.AddFullVertex(Vertex{X: c[0], Y: c[1], Z: z, Color: 0xFFFFFFFF, NZ: 1})
		}
	}
	mesh, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return mesh, buf
}

func firstIndexOfQuads(indices []uint32) []int {
	var order []int
	for i := 0; i < len(indices); i += 6 {
		order = append(order, int(indices[i]/4))
	}
	return order
}

func TestSortQuadsWritesSixIndicesPerQuad(t *testing.T) {
	mesh, buf := buildQuadsAt(t, 0, 5, 10)
	defer mesh.Close()
	state, err := mesh.SortQuads(buf, ByDistance(mgl32.Vec3{0.5, 0.5, -1}))
	if err != nil || state == nil {
		t.Fatalf("sort: %v %v", state, err)
	}
	if got, want := len(state.Centroids), 3; got != want {
		t.Fatalf("centroids: got %d, want %d", got, want)
	}
	if got, want := state.Centroids[1], (mgl32.Vec3{0.5, 0.5, 5}); got != want {
		t.Fatalf("centroid: got %v, want %v", got, want)
	}
	indices := IndexShort.Decode(mesh.IndexBytes())
	if got, want := len(indices), 3*6; got != want {
		t.Fatalf("indices: got %d, want %d", got, want)
	}
	order := firstIndexOfQuads(indices)
	if order[0] != 2 || order[1] != 1 || order[2] != 0 {
		t.Fatalf("back to front order: got %v, want [2 1 0]", order)
	}
	for q := 0; q < 3; q++ {
		base := uint32(order[q] * 4)
		want := []uint32{base, base + 1, base + 2, base + 2, base + 3, base}
		for i, w := range want {
			if indices[q*6+i] != w {
				t.Fatalf("quad %d pattern: got %v, want %v", q, indices[q*6:q*6+6], want)
			}
		}
	}
}

func TestResortFromReflectedPointReversesOrder(t *testing.T) {
	mesh, buf := buildQuadsAt(t, 0, 10)
	defer mesh.Close()
	camera := mgl32.Vec3{0.5, 0.5, -1}
	state, err := mesh.SortQuads(buf, ByDistance(camera))
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	before := firstIndexOfQuads(IndexShort.Decode(mesh.IndexBytes()))

	// Reflect the camera through the midpoint of the two centroids.
	mid := state.Centroids[0].Add(state.Centroids[1]).Mul(0.5)
	reflected := mid.Mul(2).Sub(camera)
	res := state.BuildSortedIndexBuffer(buf, ByDistance(reflected))
	defer res.Close()
	after := firstIndexOfQuads(IndexShort.Decode(res.Bytes()))

	if before[0] != after[1] || before[1] != after[0] {
		t.Fatalf("expected reversed order: before %v, after %v", before, after)
	}
}

func TestSortQuadsIgnoresNonQuadMeshes(t *testing.T) {
	b, buf := newBuilder(t, Triangles, BlockFormat)
	for i := 0; i < 3; i++ {
		b.AddFullVertex(testVertex(i))
	}
	mesh, _ := b.Build()
	defer mesh.Close()
	state, err := mesh.SortQuads(buf, ByDistance(mgl32.Vec3{}))
	if state != nil || err != nil || mesh.IndexBytes() != nil {
		t.Fatalf("triangles should not be sorted")
	}
}

func TestMeshCloseReleasesBothResults(t *testing.T) {
	mesh, buf := buildQuadsAt(t, 0, 1)
	if _, err := mesh.SortQuads(buf, OrthoZ); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if got := buf.OpenResults(); got != 2 {
		t.Fatalf("open results: got %d, want 2", got)
	}
	mesh.Close()
	mesh.Close()
	if got := buf.OpenResults(); got != 0 {
		t.Fatalf("open results after close: got %d, want 0", got)
	}
}

func TestSortQuadsAgainReleasesPreviousIndices(t *testing.T) {
	mesh, buf := buildQuadsAt(t, 0, 5)
	if _, err := mesh.SortQuads(buf, ByDistance(mgl32.Vec3{0, 0, -1})); err != nil {
		t.Fatalf("first sort: %v", err)
	}
	if _, err := mesh.SortQuads(buf, ByDistance(mgl32.Vec3{0, 0, 20})); err != nil {
		t.Fatalf("second sort: %v", err)
	}
	if got := buf.OpenResults(); got != 2 {
		t.Fatalf("open results after two sorts: got %d, want 2", got)
	}
	order := firstIndexOfQuads(IndexShort.Decode(mesh.IndexBytes()))
	if order[0] != 0 || order[1] != 1 {
		t.Fatalf("second sort order: got %v, want [0 1]", order)
	}
	mesh.Close()
	if got := buf.OpenResults(); got != 0 {
		t.Fatalf("open results after close: got %d, want 0", got)
	}
}
