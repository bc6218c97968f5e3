package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"Mark Twain", "mark twain"},
		{"  The Adventures  ", "the adventures"},
		{"ÉMILE ZOLA", "émile zola"},
		{"Café", "café"},
		{"ΟΜΗΡΟΣ", "ομηροσ"},
		{"ομηρος", "ομηροσ"},
		{"ΟΔΥΣ", "οδυσ"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Normalize(tc.input), "input %q", tc.input)
	}
}

func TestNormalizePrefixStaysPrefix(t *testing.T) {
	for _, value := range []string{"ΟΔΥΣΣΕΙΑ", "ΟΜΗΡΟΣ", "The Adventures of Tom Sawyer", "Émile Zola"} {
		full := Normalize(value)
		runes := []rune(value)
		for i := 1; i <= len(runes); i++ {
			prefix := Normalize(string(runes[:i]))
			assert.True(t, strings.HasPrefix(full, prefix), "%q is not a prefix of %q", prefix, full)
		}
	}
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 0, RuneLen(""))
	assert.Equal(t, 2, RuneLen("ab"))
	assert.Equal(t, 2, RuneLen("éé"))
}
