package world

import "testing"

type recordedSection struct {
	pos        SectionPos
	fromPlayer bool
}

func recordListener(store *ChunkStore) *[]recordedSection {
	var got []recordedSection
	store.SetListener(func(pos SectionPos, fromPlayer bool) {
		got = append(got, recordedSection{pos, fromPlayer})
	})
	return &got
}

func TestStoreSetNotifiesBorderNeighbours(t *testing.T) {
	store := NewChunkStore()
	got := recordListener(store)

	store.Set(16, 32, 5, BlockTypeStone, true)

	want := map[SectionPos]bool{
		{1, 2, 0}: true,
		{0, 2, 0}: true,
		{1, 1, 0}: true,
	}
	if len(*got) != len(want) {
		t.Fatalf("notified %d sections, want %d: %v", len(*got), len(want), *got)
	}
	for _, r := range *got {
		if !want[r.pos] {
			t.Fatalf("unexpected notification for %v", r.pos)
		}
		if !r.fromPlayer {
			t.Fatalf("%v: fromPlayer lost", r.pos)
		}
	}
}

func TestStoreSetUnchangedIsSilent(t *testing.T) {
	store := NewChunkStore()
	store.Set(1, 1, 1, BlockTypeDirt, false)
	got := recordListener(store)
	store.Set(1, 1, 1, BlockTypeDirt, false)
	if len(*got) != 0 {
		t.Fatalf("unchanged Set notified %d sections", len(*got))
	}
}

func TestStoreAddChunkNotifiesNeighbours(t *testing.T) {
	store := NewChunkStore()
	store.AddChunk(NewChunk(1, 0))
	got := recordListener(store)

	if !store.AddChunk(NewChunk(0, 0)) {
		t.Fatalf("AddChunk refused a new column")
	}
	if store.AddChunk(NewChunk(0, 0)) {
		t.Fatalf("AddChunk accepted a duplicate column")
	}
	if len(*got) != 2*NumSections {
		t.Fatalf("notified %d sections, want %d", len(*got), 2*NumSections)
	}
}

func TestStoreEvict(t *testing.T) {
	store := NewChunkStore()
	for x := -3; x <= 3; x++ {
		store.AddChunk(NewChunk(x, 0))
	}
	if n := store.EvictFarChunks(0, 0, 1); n != 4 {
		t.Fatalf("evicted %d, want 4", n)
	}
	if store.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", store.Len())
	}
}
