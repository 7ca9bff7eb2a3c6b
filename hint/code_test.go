package hint

import (
	"strings"
	"testing"
)

func TestCodeSingleLetters(t *testing.T) {
	for i := 0; i < 26; i++ {
		got := Code(i)
		if len(got) != 1 || got[0] != Alphabet[i] {
			t.Errorf("Code(%d) = %q, expected %q", i, got, string(Alphabet[i]))
		}
	}
}

func TestCodeTwoLetters(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{26, "aa"},
		{27, "ab"},
		{51, "az"},
		{52, "ba"},
		{701, "zz"},
		{702, "aaa"},
	}
	for _, tt := range tests {
		if got := Code(tt.index); got != tt.want {
			t.Errorf("Code(%d) = %q, expected %q", tt.index, got, tt.want)
		}
	}
}

func TestCodesUnique(t *testing.T) {
	for _, n := range []int{1, 26, 27, 300, 702, 1000} {
		seen := make(map[string]bool)
		for _, c := range Codes(0, n) {
			if seen[c] {
				t.Fatalf("n=%d: duplicate code %q", n, c)
			}
			seen[c] = true
		}
	}
}

func TestCodesUpTo702AreAtMostTwoLetters(t *testing.T) {
	for i, c := range Codes(0, 702) {
		want := 1
		if i >= 26 {
			want = 2
		}
		if len(c) != want {
			t.Errorf("code %d = %q, expected %d letters", i, c, want)
		}
		if strings.Trim(c, Alphabet) != "" {
			t.Errorf("code %q contains non-alphabet characters", c)
		}
	}
}

func TestCodeNegative(t *testing.T) {
	if got := Code(-1); got != "" {
		t.Errorf("expected empty code for negative index, got %q", got)
	}
}

func TestLabel(t *testing.T) {
	matched, rest := Label("ab", "a")
	if matched != "A" || rest != "B" {
		t.Errorf("expected A/B, got %q/%q", matched, rest)
	}

	matched, rest = Label("ab", "")
	if matched != "" || rest != "AB" {
		t.Errorf("expected empty/AB, got %q/%q", matched, rest)
	}

	matched, rest = Label("ab", "AB")
	if matched != "AB" || rest != "" {
		t.Errorf("expected AB/empty, got %q/%q", matched, rest)
	}

	matched, rest = Label("ab", "c")
	if matched != "" || rest != "AB" {
		t.Errorf("expected no match for unrelated prefix, got %q/%q", matched, rest)
	}
}
