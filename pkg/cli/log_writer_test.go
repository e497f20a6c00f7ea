package cli

import (
	"fmt"
	"testing"
)

func TestLogWriterSplitsLines(t *testing.T) {
	w := NewLogWriter(10)
	fmt.Fprintf(w, "one\ntwo\n")
	fmt.Fprintf(w, "three")

	got := w.Lines()
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("lines = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLogBufferEvictsOldest(t *testing.T) {
	b := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		b.Add(fmt.Sprintf("l%d", i))
	}
	got := b.Lines()
	if len(got) != 3 || got[0] != "l2" || got[2] != "l4" {
		t.Errorf("lines = %v", got)
	}
}

func TestLogWriterEvictsOldest(t *testing.T) {
	w := NewLogWriter(2)
	fmt.Fprintf(w, "a\nb\nc\n")
	got := w.Lines()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("lines = %v", got)
	}
}
