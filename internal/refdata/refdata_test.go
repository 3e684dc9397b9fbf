package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTables(t *testing.T) {
	tables := Default()
	if len(tables.Roster) != 7 || tables.Roster[0] != "Kimora Link" {
		t.Fatalf("unexpected roster: %v", tables.Roster)
	}
	if tables.OverflowAgent != "Kimora Link" {
		t.Fatalf("unexpected overflow agent %q", tables.OverflowAgent)
	}
	if tables.Aliases["LATRICIA"] != "Leticia Wright" {
		t.Fatalf("alias table not loaded: %v", tables.Aliases)
	}
	if tables.OwnerForRefCode(" DR_BRIANNA ") != "Breanna James" {
		t.Fatalf("ref code lookup failed")
	}
}

func TestLoadFromFileNormalizesKeys(t *testing.T) {
	doc := `
roster: [Ann Agent]
aliases:
  "ann-a": Ann Agent
licensing:
  tx: [Ann Agent]
closers:
  - name: Ann Agent
    email: ann@example.com
`
	path := filepath.Join(t.TempDir(), "ref.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tables.OverflowAgent != "Ann Agent" {
		t.Fatalf("expected overflow to default to first roster entry, got %q", tables.OverflowAgent)
	}
	if tables.Aliases["ANNA"] != "Ann Agent" {
		t.Fatalf("alias key not normalized: %v", tables.Aliases)
	}
	if !tables.LicensedIn("ann agent", "TX") {
		t.Fatalf("expected licensing match")
	}
	if tables.LicensedIn("Ann Agent", "CA") {
		t.Fatalf("unexpected licensing match for CA")
	}
	if got := tables.CloserEmail("ann"); got != "ann@example.com" {
		t.Fatalf("expected containment match, got %q", got)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("roster: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMatchCloser(t *testing.T) {
	tables := &Tables{Closers: []Closer{{Name: "Jamal Holmes", Email: "jamal@example.com"}}}
	if got := tables.MatchCloser("jamal"); got != "Jamal Holmes" {
		t.Fatalf("expected containment match, got %q", got)
	}
	if got := tables.MatchCloser("kelin brown"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
	if got := tables.CloserEmail("JAMAL HOLMES"); got != "jamal@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}
