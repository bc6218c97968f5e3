// Package history counts committed search terms and keeps the most popular ones at hand for ranking.
package history

import (
	"cmp"
	"slices"
	"sync"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultPopularCount is the size of the cached popular-terms list.
const DefaultPopularCount = 10

// TermCount is a committed term and how often it was committed.
type TermCount struct {
	Term      string `json:"term" msgpack:"term"`
	Frequency int    `json:"frequency" msgpack:"f"`
}

// Stats describes the tracker state.
type Stats struct {
	DistinctTerms int
	PopularTerms  int
	TotalSearches int
}

// Tracker counts committed search terms. Terms live in a patricia trie so
// committed history can also be looked up by prefix.
type Tracker struct {
	mu       sync.RWMutex
	terms    *patricia.Trie
	distinct int
	total    int
	popular  []string
	topN     int
}

// NewTracker creates a tracker caching the topN most frequent terms.
func NewTracker(topN int) *Tracker {
	if topN <= 0 {
		topN = DefaultPopularCount
	}
	return &Tracker{
		terms: patricia.NewTrie(),
		topN:  topN,
	}
}

// RecordSearch counts one commit of term and refreshes the popular list.
// Blank terms are ignored.
func (t *Tracker) RecordSearch(term string) {
	term = utils.Normalize(term)
	if term == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := patricia.Prefix(term)
	if item := t.terms.Get(key); item != nil {
		t.terms.Set(key, item.(int)+1)
	} else {
		t.terms.Insert(key, 1)
		t.distinct++
	}
	t.total++

	// distinct terms stay in the hundreds per session, a full resort is fine
	t.popular = t.rankLocked()
}

func (t *Tracker) rankLocked() []string {
	all := make([]TermCount, 0, t.distinct)
	err := t.terms.Visit(func(p patricia.Prefix, item patricia.Item) error {
		all = append(all, TermCount{Term: string(p), Frequency: item.(int)})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting search history: %v", err)
	}
	sortByFrequency(all)

	n := min(t.topN, len(all))
	top := make([]string, n)
	for i := range n {
		top[i] = all[i].Term
	}
	return top
}

func sortByFrequency(terms []TermCount) {
	slices.SortFunc(terms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
}

// Frequency returns how often term was committed.
func (t *Tracker) Frequency(term string) int {
	term = utils.Normalize(term)
	if term == "" {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if item := t.terms.Get(patricia.Prefix(term)); item != nil {
		return item.(int)
	}
	return 0
}

// PopularTerms returns the cached most popular terms, most frequent first.
func (t *Tracker) PopularTerms() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.popular)
}

// WithPrefix returns up to n committed terms starting with prefix, most
// frequent first.
func (t *Tracker) WithPrefix(prefix string, n int) []TermCount {
	prefix = utils.Normalize(prefix)
	if prefix == "" || n <= 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []TermCount
	err := t.terms.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		out = append(out, TermCount{Term: string(p), Frequency: item.(int)})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting search history subtree: %v", err)
	}
	sortByFrequency(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Stats returns counters for observability.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		DistinctTerms: t.distinct,
		PopularTerms:  len(t.popular),
		TotalSearches: t.total,
	}
}

// Reset forgets every committed term.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.terms = patricia.NewTrie()
	t.distinct = 0
	t.total = 0
	t.popular = nil
	log.Debug("Search history cleared")
}
