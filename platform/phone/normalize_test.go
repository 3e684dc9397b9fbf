package phone

import "testing"

func TestDigits(t *testing.T) {
	cases := map[string]string{
		"(312) 555-0100":  "3125550100",
		"+1 312.555.0100": "13125550100",
		"":                "",
		"call me":         "",
	}
	for in, want := range cases {
		if got := Digits(in); got != want {
			t.Errorf("Digits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeE164FallsBackToTrimmedInput(t *testing.T) {
	if got := NormalizeE164("  not a number "); got != "not a number" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
	if got := NormalizeE164(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestNormalizeE164ValidUSNumber(t *testing.T) {
	if got := NormalizeE164("(202) 456-1111"); got != "+12024561111" {
		t.Fatalf("expected +12024561111, got %q", got)
	}
}
