/*
Package index holds the immutable search index: one FieldTrie per
searchable field plus the RecordStore they point into.

A Snapshot is built in one go from a full catalog and never changes
afterwards. Refreshing the catalog means building a new Snapshot and
swapping it in; there is no incremental insert or delete.

	snap, err := index.Build(records)
	ids := snap.Trie(index.FieldAuthor).MatchesForPrefix("jane")

Values are indexed whole, so a title only matches from its first
character: "tom" does not find "The Adventures of Tom Sawyer".
*/
package index

import (
	"time"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Field identifies one of the indexed record fields.
type Field int

const (
	FieldTitle Field = iota
	FieldAuthor
	FieldSubject
)

// Fields lists the indexed fields in suggestion order.
var Fields = [...]Field{FieldTitle, FieldAuthor, FieldSubject}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldAuthor:
		return "author"
	case FieldSubject:
		return "subject"
	}
	return "unknown"
}

// values returns the normalized values of r for field f.
func (f Field) values(r catalog.Record) []string {
	switch f {
	case FieldTitle:
		return []string{utils.Normalize(r.Title)}
	case FieldAuthor:
		return []string{utils.Normalize(r.Author)}
	case FieldSubject:
		out := make([]string, 0, len(r.Subjects))
		for _, s := range r.Subjects {
			if v := utils.Normalize(s); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}

// Snapshot is a complete, read-only index. It is safe for concurrent readers.
type Snapshot struct {
	Store   *RecordStore
	tries   [len(Fields)]*FieldTrie
	BuiltAt time.Time
}

// Empty returns a snapshot with no records; every lookup on it is empty.
func Empty() *Snapshot {
	s := &Snapshot{Store: newRecordStore(0)}
	for _, f := range Fields {
		s.tries[f] = NewFieldTrie()
	}
	return s
}

// Trie returns the trie for field f.
func (s *Snapshot) Trie(f Field) *FieldTrie {
	if f < 0 || int(f) >= len(s.tries) {
		return nil
	}
	return s.tries[f]
}

// Build validates records and indexes them into a new Snapshot. Nothing is
// built when validation fails. Work is linear in the indexed characters;
// the three tries are filled concurrently, one goroutine each.
func Build(records []catalog.Record) (*Snapshot, error) {
	if err := catalog.Validate(records); err != nil {
		return nil, err
	}

	start := time.Now()
	snap := &Snapshot{Store: newRecordStore(len(records))}
	ordinals := make([]uint32, len(records))
	for i, r := range records {
		ordinals[i] = snap.Store.put(r)
	}

	var g errgroup.Group
	for _, f := range Fields {
		trie := NewFieldTrie()
		snap.tries[f] = trie
		g.Go(func() error {
			for i, r := range records {
				for _, v := range f.values(r) {
					trie.Insert(v, ordinals[i])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.BuiltAt = time.Now()
	log.Debugf("Indexed %d records in %v (title=%d author=%d subject=%d terms)",
		snap.Store.Len(), time.Since(start),
		snap.tries[FieldTitle].Terms(), snap.tries[FieldAuthor].Terms(), snap.tries[FieldSubject].Terms())
	return snap, nil
}
