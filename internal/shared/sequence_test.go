package shared

import "testing"

func TestFormatReference(t *testing.T) {
	got := formatReference("REP", 2026, 5, 42)
	if got != "REP/2026/00042" {
		t.Fatalf("unexpected reference %q", got)
	}
}

func TestParseReference(t *testing.T) {
	year, number, ok := parseReference("REP", "REP/2026/00042")
	if !ok {
		t.Fatal("expected reference to parse")
	}
	if year != 2026 || number != 42 {
		t.Fatalf("parsed %d/%d", year, number)
	}

	cases := []string{"", "REP/26/001", "ORD/2026/00042", "REP/2026/abc"}
	for _, ref := range cases {
		if _, _, ok := parseReference("REP", ref); ok {
			t.Fatalf("expected %q to be rejected", ref)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	ref := formatReference("REP", 2026, 5, 99999)
	year, number, ok := parseReference("REP", ref)
	if !ok || year != 2026 || number != 99999 {
		t.Fatalf("round trip failed: %q -> %d/%d ok=%v", ref, year, number, ok)
	}
}
