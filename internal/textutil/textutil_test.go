package textutil

import "testing"

func TestLen_CountsRunes(t *testing.T) {
	if got := Len("año"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 3, "hel"},
		{"hello", 10, "hello"},
		{"ñandú", 2, "ña"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Prefix(tt.in, tt.n); got != tt.want {
			t.Errorf("Prefix(%q, %d): expected %q, got %q", tt.in, tt.n, tt.want, got)
		}
	}
}

func TestEllipsize(t *testing.T) {
	if got := Ellipsize("abcdef", 3); got != "abc..." {
		t.Errorf("expected %q, got %q", "abc...", got)
	}
	if got := Ellipsize("abc", 3); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

func TestCapWithMarker(t *testing.T) {
	got, cut := CapWithMarker("abcdef", 4)
	if !cut || got != "abcd"+TruncationMarker {
		t.Errorf("expected truncated text, got %q (cut=%v)", got, cut)
	}
	got, cut = CapWithMarker("ab", 4)
	if cut || got != "ab" {
		t.Errorf("expected untouched text, got %q (cut=%v)", got, cut)
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("expected %q, got %q", "a b c", got)
	}
}
