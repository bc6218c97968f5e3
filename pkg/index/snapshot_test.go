package index

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioRecords() []catalog.Record {
	return []catalog.Record{
		{ID: "1", Title: "The Adventures of Tom Sawyer", Author: "Mark Twain", Subjects: []string{"Fiction", "Adventure"}},
		{ID: "2", Title: "Pride and Prejudice", Author: "Jane Austen", Subjects: []string{"Fiction", "Romance"}},
	}
}

func idsOf(snap *Snapshot, f Field, prefix string) []string {
	bm := snap.Trie(f).MatchesForPrefix(prefix)
	return snap.Store.SampleIDs(bm, int(bm.GetCardinality()))
}

func TestBuild(t *testing.T) {
	snap, err := Build(scenarioRecords())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Store.Len())
	assert.False(t, snap.BuiltAt.IsZero())

	assert.Equal(t, []string{"1"}, idsOf(snap, FieldTitle, "the adv"))
	assert.Equal(t, []string{"2"}, idsOf(snap, FieldAuthor, "jane"))
	assert.Equal(t, []string{"1", "2"}, idsOf(snap, FieldSubject, "fic"))
	assert.Equal(t, []string{"2"}, idsOf(snap, FieldSubject, "rom"))

	// whole-value indexing: inner words are not prefixes
	assert.Empty(t, idsOf(snap, FieldTitle, "sawyer"))
	assert.Empty(t, idsOf(snap, FieldAuthor, "twain"))

	r, ok := snap.Store.Get("2")
	require.True(t, ok)
	assert.Equal(t, "Pride and Prejudice", r.Title)

	_, ok = snap.Store.Get("3")
	assert.False(t, ok)
}

func TestBuildRejectsInvalidBatch(t *testing.T) {
	records := append(scenarioRecords(), catalog.Record{Title: "No Id", Author: "Someone"})

	snap, err := Build(records)
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInvalidInput))
}

func TestBuildCopiesSubjects(t *testing.T) {
	records := scenarioRecords()
	snap, err := Build(records)
	require.NoError(t, err)

	records[0].Subjects[0] = "Changed"
	r, _ := snap.Store.Get("1")
	assert.Equal(t, "Fiction", r.Subjects[0])
}

func TestBuildSkipsBlankSubjects(t *testing.T) {
	snap, err := Build([]catalog.Record{{ID: "1", Title: "T", Author: "A", Subjects: []string{"", "  ", "Poetry"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Trie(FieldSubject).Terms())
}

func TestEmptySnapshot(t *testing.T) {
	snap := Empty()
	for _, f := range Fields {
		assert.True(t, snap.Trie(f).MatchesForPrefix("a").IsEmpty())
	}
	assert.Nil(t, snap.Trie(Field(7)))
	assert.Equal(t, 0, snap.Store.Len())
}

func TestStoreAtOutOfRange(t *testing.T) {
	snap, err := Build(scenarioRecords())
	require.NoError(t, err)

	_, ok := snap.Store.At(99)
	assert.False(t, ok)
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "title", FieldTitle.String())
	assert.Equal(t, "author", FieldAuthor.String())
	assert.Equal(t, "subject", FieldSubject.String())
	assert.Equal(t, "unknown", Field(9).String())
}

func BenchmarkBuild(b *testing.B) {
	records := make([]catalog.Record, 20000)
	for i := range records {
		records[i] = catalog.Record{
			ID:       fmt.Sprintf("b%05d", i),
			Title:    fmt.Sprintf("Collected Works Volume %d", i),
			Author:   fmt.Sprintf("Author %d", i%500),
			Subjects: []string{"Fiction", fmt.Sprintf("Series %d", i%40)},
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(records); err != nil {
			b.Fatal(err)
		}
	}
}
