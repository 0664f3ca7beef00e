package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// TruncateRunes caps a string at max runes without splitting a
// multi-byte character.
func TruncateRunes(input string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(input)
	if len(r) <= max {
		return input
	}
	return string(r[:max])
}
