package profiling

import (
	"strings"
	"testing"
)

func TestCountAndReset(t *testing.T) {
	ResetFrame()
	Count("tasks", 2)
	Count("tasks", 3)
	if got := Counters()["tasks"]; got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
	ResetFrame()
	if got := len(Counters()); got != 0 {
		t.Fatalf("counters after reset: got %d, want 0", got)
	}
}

func TestTopN(t *testing.T) {
	ResetFrame()
	Track("a")()
	Track("b")()
	out := TopN(5)
	if !strings.Contains(out, "a:") || !strings.Contains(out, "b:") {
		t.Fatalf("TopN missing entries: %q", out)
	}
	if got := formatMs(2); got != "2ms" {
		t.Fatalf("formatMs(2): got %q", got)
	}
}
