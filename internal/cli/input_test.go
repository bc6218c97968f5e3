package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/engine"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	require.NoError(t, eng.BuildIndex([]catalog.Record{
		{ID: "1", Title: "The Adventures of Tom Sawyer", Author: "Mark Twain", Subjects: []string{"Fiction"}},
		{ID: "2", Title: "Pride and Prejudice", Author: "Jane Austen", Subjects: []string{"Fiction", "Romance"}},
	}))
	return eng
}

func TestPreviewDoesNotRecord(t *testing.T) {
	eng := newEngine(t)
	var out bytes.Buffer
	h := NewInputHandler(eng, strings.NewReader("pri\n\n"), &out, 8, 120)
	require.NoError(t, h.Start())

	assert.Contains(t, out.String(), "pride and prejudice")
	assert.Contains(t, out.String(), "[2] Pride and Prejudice by Jane Austen")
	assert.Empty(t, eng.PopularTerms())
}

func TestCommitRecordsSearch(t *testing.T) {
	eng := newEngine(t)
	var out bytes.Buffer
	h := NewInputHandler(eng, strings.NewReader("!Jane\n! jane\n!\n"), &out, 8, 120)
	require.NoError(t, h.Start())

	assert.Equal(t, []string{"jane"}, eng.PopularTerms())
	assert.Equal(t, 2, eng.Stats().TotalSearchCount)
	assert.Contains(t, out.String(), "popular: jane")
}

func TestLongQueryIgnored(t *testing.T) {
	eng := newEngine(t)
	var out bytes.Buffer
	h := NewInputHandler(eng, strings.NewReader("!"+strings.Repeat("x", 20)+"\n"), &out, 8, 10)
	require.NoError(t, h.Start())

	assert.Empty(t, eng.PopularTerms())
	assert.NotContains(t, out.String(), "recorded")
}
