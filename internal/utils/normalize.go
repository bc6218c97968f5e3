package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s into the form stored in the field tries and the
// search history: NFC composed, surrounding whitespace trimmed, case folded.
// Folding maps each character on its own, so the normalized form of a
// prefix is always a prefix of the normalized value ("ΟΔΥΣ" and "ΟΔΥΣΣΕΙΑ"
// both keep σ). A cases.Caser is stateful, so one is created per call.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return cases.Fold().String(s)
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
