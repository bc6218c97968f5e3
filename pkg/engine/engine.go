/*
Package engine wires the index, the popularity tracker, the suggestion
ranker and the search executor into one instance owned by its caller.

	eng := engine.New(engine.WithConfig(cfg))
	if err := eng.BuildIndex(records); err != nil {
		// the previous index is still live
	}
	eng.Suggestions("pri", 8)
	eng.Search("pride")
	eng.RecordSearch("pride")

BuildIndex publishes a new immutable snapshot with an atomic pointer swap,
so readers never block on a rebuild and never see a partial index. Search
history is independent of the index and survives every rebuild; only Reset
clears it.
*/
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/history"
	"github.com/bastiangx/shelfserve/pkg/index"
	"github.com/bastiangx/shelfserve/pkg/metrics"
	"github.com/bastiangx/shelfserve/pkg/search"
	"github.com/bastiangx/shelfserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Stats is returned by Engine.Stats.
type Stats struct {
	IndexedRecordCount      int `json:"indexed_record_count" msgpack:"indexed"`
	DistinctSearchTermCount int `json:"distinct_search_term_count" msgpack:"distinct"`
	PopularTermCount        int `json:"popular_term_count" msgpack:"popular"`
	TotalSearchCount        int `json:"total_search_count" msgpack:"total"`
}

// Engine is the in-process search core.
type Engine struct {
	snap    atomic.Pointer[index.Snapshot]
	buildMu sync.Mutex

	tracker  *history.Tracker
	ranker   *suggest.Ranker
	executor *search.Executor

	maxSuggestions int
	metrics        *metrics.Metrics
	logger         *log.Logger
}

// New creates an engine with an empty index.
func New(opts ...Option) *Engine {
	o := options{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.New("engine")
	}

	cfg := *o.cfg
	cfg.Sanitize()

	sc := cfg.Search
	tracker := history.NewTracker(cfg.History.PopularCount)
	e := &Engine{
		tracker: tracker,
		ranker: suggest.NewRanker(suggest.Options{
			MinQueryLen:  sc.MinQueryLen,
			TitleTerms:   sc.TitleTerms,
			AuthorTerms:  sc.AuthorTerms,
			SubjectTerms: sc.SubjectTerms,
			SampleIDs:    sc.SampleIDs,
			MaxDepth:     sc.MaxDepth,
		}, tracker),
		executor:       search.NewExecutor(),
		maxSuggestions: sc.MaxSuggestions,
		metrics:        o.metrics,
		logger:         o.logger,
	}
	e.snap.Store(index.Empty())
	return e
}

// BuildIndex replaces the whole index with one built from records. On a
// validation error nothing changes and the error matches
// catalog.ErrInvalidInput.
func (e *Engine) BuildIndex(records []catalog.Record) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	snap, err := index.Build(records)
	if err != nil {
		e.metrics.ObserveBuild(time.Since(start), e.snapshot().Store.Len(), err)
		e.logger.Warnf("Index build rejected, keeping previous index: %v", err)
		return err
	}
	e.snap.Store(snap)

	elapsed := time.Since(start)
	e.metrics.ObserveBuild(elapsed, snap.Store.Len(), nil)
	e.logger.Debugf("Index rebuilt: %d records in %v", snap.Store.Len(), elapsed)
	return nil
}

func (e *Engine) snapshot() *index.Snapshot {
	return e.snap.Load()
}

// Suggestions returns typeahead entries for query. max <= 0 uses the
// configured default.
func (e *Engine) Suggestions(query string, max int) []suggest.Entry {
	if max <= 0 {
		max = e.maxSuggestions
	}
	start := time.Now()
	entries := e.ranker.Suggestions(e.snapshot(), query, max)
	e.metrics.ObserveQuery(metrics.KindSuggest, time.Since(start), len(entries))
	return entries
}

// Search returns every matching record, ranked.
func (e *Engine) Search(query string) []catalog.Record {
	start := time.Now()
	records := e.executor.Search(e.snapshot(), query)
	elapsed := time.Since(start)
	e.metrics.ObserveQuery(metrics.KindSearch, elapsed, len(records))
	e.logger.Debugf("Took [ %v ] for query '%s' (%d results)", elapsed, query, len(records))
	return records
}

// RecordSearch commits term to the search history. Blank terms are ignored.
func (e *Engine) RecordSearch(term string) {
	if utils.Normalize(term) == "" {
		return
	}
	e.tracker.RecordSearch(term)
	e.metrics.ObserveCommit()
}

// PopularTerms returns the most committed terms, most frequent first.
func (e *Engine) PopularTerms() []string {
	return e.tracker.PopularTerms()
}

// HistoryPrefix returns committed terms starting with prefix.
func (e *Engine) HistoryPrefix(prefix string, n int) []history.TermCount {
	return e.tracker.WithPrefix(prefix, n)
}

// Stats reports index and history counters.
func (e *Engine) Stats() Stats {
	hs := e.tracker.Stats()
	return Stats{
		IndexedRecordCount:      e.snapshot().Store.Len(),
		DistinctSearchTermCount: hs.DistinctTerms,
		PopularTermCount:        hs.PopularTerms,
		TotalSearchCount:        hs.TotalSearches,
	}
}

// Reset clears the search history. The index is left alone.
func (e *Engine) Reset() {
	e.tracker.Reset()
}
