package vertex

import (
	"bytes"
	"testing"
)

func TestReserveGrowsAndKeepsData(t *testing.T) {
	buf := NewByteBuffer(4)
	off := buf.Reserve(4)
	buf.PutUint32(off, 0xDEADBEEF)
	for i := 0; i < 100; i++ {
		buf.Reserve(16)
	}
	if got, want := buf.Len(), 4+100*16; got != want {
		t.Fatalf("len: got %d, want %d", got, want)
	}
	if buf.Capacity() < buf.Len() {
		t.Fatalf("capacity %d below len %d", buf.Capacity(), buf.Len())
	}
	first := buf.Slice(0, 4)
	again := NewByteBuffer(4)
	again.PutUint32(again.Reserve(4), 0xDEADBEEF)
	if !bytes.Equal(first, again.Slice(0, 4)) {
		t.Fatalf("data lost across growth")
	}
}

func TestBuildCutsSuccessiveRanges(t *testing.T) {
	buf := NewByteBuffer(8)
	if buf.Build() != nil {
		t.Fatalf("build of empty buffer should be nil")
	}
	buf.PutUint8(buf.Reserve(1), 1)
	a := buf.Build()
	buf.PutUint8(buf.Reserve(1), 2)
	buf.PutUint8(buf.Reserve(1), 3)
	b := buf.Build()
	if !bytes.Equal(a.Bytes(), []byte{1}) || !bytes.Equal(b.Bytes(), []byte{2, 3}) {
		t.Fatalf("results: %v %v", a.Bytes(), b.Bytes())
	}
	a.Close()
	b.Close()
}

func TestClearWithOpenResultKeepsBytes(t *testing.T) {
	buf := NewByteBuffer(8)
	buf.PutUint8(buf.Reserve(1), 7)
	res := buf.Build()
	buf.Clear()
	buf.PutUint8(buf.Reserve(1), 9)
	if got := res.Bytes()[0]; got != 7 {
		t.Fatalf("open result overwritten: got %d", got)
	}
	res.Close()
	if buf.OpenResults() != 0 {
		t.Fatalf("stale close must not touch the cleared buffer")
	}
}

func TestWriteOutsideReservationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	buf := NewByteBuffer(64)
	buf.Reserve(2)
	buf.PutUint32(0, 1)
}
