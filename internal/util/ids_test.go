package util

import (
	"regexp"
	"testing"
)

func TestNewID(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-f0-9]{24}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if !pattern.MatchString(id) {
			t.Fatalf("bad id %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short stays", input: "abc", max: 5, want: "abc"},
		{name: "cap applies", input: "abcdef", max: 3, want: "abc"},
		{name: "multibyte boundary", input: "цена 100", max: 4, want: "цена"},
		{name: "zero max", input: "abc", max: 0, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateRunes(tc.input, tc.max); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
