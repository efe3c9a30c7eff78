// Package utils holds small helpers shared by the renderers and commands.
package utils

import (
	"strings"
	"unicode"
)

// SanitizeFilename replaces characters that are awkward in file names with '_'.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, name)
}
