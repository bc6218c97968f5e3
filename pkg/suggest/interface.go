/*
Package suggest produces typeahead suggestions from an index snapshot.

For a query of at least two characters every field trie is asked for the
complete values starting with it, capped per field (three titles, three
authors, two subjects by default). The merged candidates are ordered by
how often the term was committed before, then by how many records match:

	r := suggest.NewRanker(suggest.DefaultOptions(), tracker)
	entries := r.Suggestions(snap, "pri", 8)
	// [{Term: "pride and prejudice", Field: "title", MatchingRecordCount: 1, ...}]

The ranker is read-only and safe for concurrent use.
*/
package suggest

// Suggester is what callers of the typeahead need.
type Suggester interface {
	Suggestions(query string, max int) []Entry
}
