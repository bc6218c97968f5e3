// Package cli implements an interactive REPL over the engine for debugging
// suggestions and search results in real time.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// CommitPrefix marks a line as a submitted search instead of a keystroke.
const CommitPrefix = "!"

// Searcher is the engine surface the REPL drives.
type Searcher interface {
	suggest.Suggester
	Search(query string) []catalog.Record
	RecordSearch(term string)
	PopularTerms() []string
}

var (
	termStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	fieldStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// InputHandler reads lines from in and prints suggestions and results to out.
// Plain lines preview suggestions plus the top results; lines starting with
// CommitPrefix also record the term as a submitted search.
type InputHandler struct {
	engine       Searcher
	in           io.Reader
	out          io.Writer
	limit        int
	maxQueryLen  int
	topResults   int
	requestCount int
}

// NewInputHandler creates a REPL over eng.
func NewInputHandler(eng Searcher, in io.Reader, out io.Writer, limit, maxQueryLen int) *InputHandler {
	return &InputHandler{
		engine:      eng,
		in:          in,
		out:         out,
		limit:       limit,
		maxQueryLen: maxQueryLen,
		topResults:  5,
	}
}

// Start runs the loop until in is exhausted.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, headerStyle.Render("ShelfServe REPL"))
	fmt.Fprintf(h.out, "type a query and press Enter, prefix with %q to submit it (Ctrl+D to exit)\n", CommitPrefix)

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++

	commit := strings.HasPrefix(line, CommitPrefix)
	query := strings.TrimSpace(strings.TrimPrefix(line, CommitPrefix))
	if query == "" {
		return
	}
	if utils.RuneLen(query) > h.maxQueryLen {
		log.Errorf("Query too long: %d characters (max %d)", utils.RuneLen(query), h.maxQueryLen)
		return
	}

	if commit {
		h.engine.RecordSearch(query)
		fmt.Fprintf(h.out, "recorded %s\n", termStyle.Render(utils.Normalize(query)))
		if popular := h.engine.PopularTerms(); len(popular) > 0 {
			fmt.Fprintf(h.out, "popular: %s\n", strings.Join(popular, ", "))
		}
	}

	start := time.Now()
	entries := h.engine.Suggestions(query, h.limit)
	results := h.engine.Search(query)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	if len(entries) == 0 && len(results) == 0 {
		log.Warnf("No matches for query: '%s'", query)
		return
	}

	if len(entries) > 0 {
		fmt.Fprintln(h.out, headerStyle.Render(fmt.Sprintf("%d suggestions", len(entries))))
		for i, e := range entries {
			fmt.Fprintf(h.out, "%2d. %-40s %-8s (%d records)\n",
				i+1, termStyle.Render(e.Term), fieldStyle.Render(e.Field), e.MatchingRecordCount)
		}
	}

	if len(results) > 0 {
		shown := min(len(results), h.topResults)
		fmt.Fprintln(h.out, headerStyle.Render(fmt.Sprintf("%d results, top %d", len(results), shown)))
		for i, r := range results[:shown] {
			fmt.Fprintf(h.out, "%2d. [%s] %s by %s\n", i+1, r.ID, r.Title, r.Author)
		}
	}
}
