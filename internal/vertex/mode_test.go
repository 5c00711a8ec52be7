package vertex

import "testing"

func TestIndexCount(t *testing.T) {
	cases := []struct {
		mode     Mode
		vertices int
		want     int
	}{
		{Quads, 0, 0},
		{Quads, 4, 6},
		{Quads, 400, 600},
		{Lines, 8, 12},
		{Triangles, 9, 9},
		{TriangleStrip, 7, 7},
		{TriangleFan, 5, 5},
		{DebugLines, 6, 6},
	}
	for _, tc := range cases {
		if got := tc.mode.IndexCount(tc.vertices); got != tc.want {
			t.Fatalf("%s.IndexCount(%d): got %d, want %d", tc.mode, tc.vertices, got, tc.want)
		}
	}
}

func TestLeastIndexType(t *testing.T) {
	if got := LeastIndexType(65535); got != IndexShort {
		t.Fatalf("65535 vertices: got %s, want SHORT", got)
	}
	if got := LeastIndexType(65536); got != IndexInt {
		t.Fatalf("65536 vertices: got %s, want INT", got)
	}
}

func TestIndexEncodeDecodeRoundTrip(t *testing.T) {
	for _, typ := range []IndexType{IndexShort, IndexInt} {
		in, _ := SequentialIndices(Quads, 12)
		b, err := typ.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", typ, err)
		}
		if got, want := len(b), len(in)*typ.Bytes(); got != want {
			t.Fatalf("%s encoded size: got %d, want %d", typ, got, want)
		}
		out := typ.Decode(b)
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("%s index %d: got %d, want %d", typ, i, out[i], in[i])
			}
		}
	}
}

func TestShortIndexOverflow(t *testing.T) {
	if _, err := IndexShort.Encode([]uint32{70000}); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestSequentialQuadIndices(t *testing.T) {
	got, typ := SequentialIndices(Quads, 8)
	want := []uint32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}
	if typ != IndexShort || len(got) != len(want) {
		t.Fatalf("got %v (%s), want %v", got, typ, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}
