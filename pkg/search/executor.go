/*
Package search runs full queries against an index snapshot.

A record matches when the query is a prefix of its title, its author or
any of its subjects. Matches are ranked on a fixed ladder:

 1. title equals the query
 2. title starts with the query
 3. author contains the query anywhere
 4. everything else

Within a rung records sort alphabetically by title. No paging happens here.
*/
package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/index"
	"github.com/charmbracelet/log"
)

type tier int

const (
	tierExactTitle tier = iota
	tierTitlePrefix
	tierAuthorContains
	tierOther
)

type hit struct {
	record catalog.Record
	title  string
	tier   tier
}

// Executor runs searches. It holds no state and is safe for concurrent use.
type Executor struct{}

// NewExecutor creates an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Search returns every record matching query, ranked. A blank query
// returns an empty list rather than the whole catalog.
func (e *Executor) Search(snap *index.Snapshot, query string) []catalog.Record {
	q := utils.Normalize(query)
	if q == "" || snap == nil {
		return []catalog.Record{}
	}

	matches := roaring.FastOr(
		snap.Trie(index.FieldTitle).MatchesForPrefix(q),
		snap.Trie(index.FieldAuthor).MatchesForPrefix(q),
		snap.Trie(index.FieldSubject).MatchesForPrefix(q),
	)
	if matches.IsEmpty() {
		return []catalog.Record{}
	}

	hits := make([]hit, 0, matches.GetCardinality())
	it := matches.Iterator()
	for it.HasNext() {
		ord := it.Next()
		r, ok := snap.Store.At(ord)
		if !ok {
			log.Debugf("Skipping unresolved record ordinal %d for query '%s'", ord, q)
			continue
		}
		title := utils.Normalize(r.Title)
		hits = append(hits, hit{
			record: r,
			title:  title,
			tier:   rank(q, title, utils.Normalize(r.Author)),
		})
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(a.tier, b.tier); c != 0 {
			return c
		}
		if c := strings.Compare(a.title, b.title); c != 0 {
			return c
		}
		return strings.Compare(a.record.ID, b.record.ID)
	})

	out := make([]catalog.Record, len(hits))
	for i, h := range hits {
		out[i] = h.record
	}
	return out
}

func rank(q, title, author string) tier {
	switch {
	case title == q:
		return tierExactTitle
	case strings.HasPrefix(title, q):
		return tierTitlePrefix
	case strings.Contains(author, q):
		return tierAuthorContains
	}
	return tierOther
}
