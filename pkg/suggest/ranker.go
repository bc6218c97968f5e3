package suggest

import (
	"cmp"
	"slices"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/index"
)

// DefaultMaxSuggestions is used when callers pass a non-positive max.
const DefaultMaxSuggestions = 8

// Entry is one typeahead suggestion.
type Entry struct {
	Term                string   `json:"term" msgpack:"w"`
	Field               string   `json:"field" msgpack:"f"`
	MatchingRecordCount int      `json:"matching_record_count" msgpack:"c"`
	SampleRecordIDs     []string `json:"sample_record_ids,omitempty" msgpack:"ids,omitempty"`
}

// Options bounds the work done per keystroke.
type Options struct {
	MinQueryLen  int
	TitleTerms   int
	AuthorTerms  int
	SubjectTerms int
	SampleIDs    int
	MaxDepth     int
}

// DefaultOptions returns the stock per-field caps.
func DefaultOptions() Options {
	return Options{
		MinQueryLen:  2,
		TitleTerms:   3,
		AuthorTerms:  3,
		SubjectTerms: 2,
		SampleIDs:    3,
		MaxDepth:     64,
	}
}

func (o Options) perField(f index.Field) int {
	switch f {
	case index.FieldTitle:
		return o.TitleTerms
	case index.FieldAuthor:
		return o.AuthorTerms
	case index.FieldSubject:
		return o.SubjectTerms
	}
	return 0
}

// FrequencySource reports how often a term was committed before.
type FrequencySource interface {
	Frequency(term string) int
}

// Ranker merges prefix completions from every field trie.
type Ranker struct {
	opts Options
	freq FrequencySource
}

// NewRanker creates a Ranker. freq may be nil, in which case ranking
// falls back to match counts alone.
func NewRanker(opts Options, freq FrequencySource) *Ranker {
	return &Ranker{opts: opts, freq: freq}
}

type candidate struct {
	entry     Entry
	frequency int
}

// Suggestions returns at most max entries for query. Queries shorter than
// MinQueryLen characters return nothing. Each field contributes at most its
// own cap so one busy field cannot crowd out the others; the merged list is
// ordered by past commit frequency, then by matching record count.
func (r *Ranker) Suggestions(snap *index.Snapshot, query string, max int) []Entry {
	if max <= 0 {
		max = DefaultMaxSuggestions
	}
	q := utils.Normalize(query)
	if snap == nil || utils.RuneLen(q) < r.opts.MinQueryLen || q == "" {
		return []Entry{}
	}

	var candidates []candidate
	for _, f := range index.Fields {
		trie := snap.Trie(f)
		if trie.MatchesForPrefix(q).IsEmpty() {
			continue
		}
		for _, m := range trie.CollectTerminalWords(q, r.opts.perField(f), r.opts.MaxDepth) {
			c := candidate{
				entry: Entry{
					Term:                m.Term,
					Field:               f.String(),
					MatchingRecordCount: m.Count(),
					SampleRecordIDs:     snap.Store.SampleIDs(m.IDs, r.opts.SampleIDs),
				},
			}
			if r.freq != nil {
				c.frequency = r.freq.Frequency(m.Term)
			}
			candidates = append(candidates, c)
		}
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.frequency, a.frequency); c != 0 {
			return c
		}
		return cmp.Compare(b.entry.MatchingRecordCount, a.entry.MatchingRecordCount)
	})

	n := min(max, len(candidates))
	out := make([]Entry, n)
	for i := range n {
		out[i] = candidates[i].entry
	}
	return out
}
