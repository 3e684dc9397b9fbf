package ids

import (
	"testing"
	"time"
)

type seq struct{ i int }

func (s *seq) Intn(n int) int {
	s.i++
	return s.i % n
}

func TestSynthetic(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	got := Synthetic("evt", at, &seq{})
	if got != "evt-1700000000123-123456" {
		t.Fatalf("Synthetic = %q", got)
	}
}

func TestSuffixDefaultsToGlobalSource(t *testing.T) {
	if got := Suffix(nil, 8); len(got) != 8 {
		t.Fatalf("expected 8 chars, got %q", got)
	}
}
