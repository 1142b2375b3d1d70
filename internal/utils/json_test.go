package utils

import "testing"

func TestToJSON(t *testing.T) {
	if got := ToJSON(map[string][]string{"a": {"x", "y"}}); got != `{"a":["x","y"]}` {
		t.Fatalf("unexpected json: %s", got)
	}
	if got := ToJSON(func() {}); got != "" {
		t.Fatalf("expected empty string for unsupported value, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Sécheresse", 4); got != "Séch..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short text changed: %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Fatalf("zero max should keep text: %q", got)
	}
}
