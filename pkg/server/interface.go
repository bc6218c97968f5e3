/*
Package server implements msgpack IPC over stdin/stdout for shelfserve.

A client writes one msgpack-encoded Request per operation and reads exactly
one response back. Every request carries an ID which is echoed in the
response. The action field selects the operation:

	{"id": "q1", "action": "suggest", "q": "pri", "l": 8}
	{"id": "q2", "action": "search", "q": "pride"}
	{"id": "q3", "action": "commit", "q": "pride and prejudice"}
	{"id": "q4", "action": "popular"}
	{"id": "q5", "action": "history", "q": "pri", "l": 5}
	{"id": "q6", "action": "stats"}
	{"id": "q7", "action": "reset"}
	{"id": "q8", "action": "build", "records": [...]}
	{"id": "q9", "action": "health"}

Suggestion and search responses include the elapsed time in microseconds:

	{"id": "q1", "s": [{"w": "pride and prejudice", "f": "title", "c": 1, "ids": ["2"]}], "c": 1, "t": 38}

Failures come back as ErrorResponse with an HTTP-like code: 400 for bad
requests, 422 for a rejected catalog. A rejected build leaves the live
index untouched.
*/
package server

import (
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/engine"
	"github.com/bastiangx/shelfserve/pkg/history"
	"github.com/bastiangx/shelfserve/pkg/suggest"
)

// Request actions.
const (
	ActionSuggest = "suggest"
	ActionSearch  = "search"
	ActionCommit  = "commit"
	ActionPopular = "popular"
	ActionHistory = "history"
	ActionStats   = "stats"
	ActionReset   = "reset"
	ActionBuild   = "build"
	ActionHealth  = "health"
)

// Request is the single message type clients send.
type Request struct {
	ID      string           `msgpack:"id"`
	Action  string           `msgpack:"action"`
	Query   string           `msgpack:"q,omitempty"`
	Limit   int              `msgpack:"l,omitempty"`
	Records []catalog.Record `msgpack:"records,omitempty"`
}

// SuggestResponse answers ActionSuggest.
type SuggestResponse struct {
	ID          string          `msgpack:"id"`
	Suggestions []suggest.Entry `msgpack:"s"`
	Count       int             `msgpack:"c"`
	TimeTaken   int64           `msgpack:"t"`
}

// SearchResponse answers ActionSearch. Limit, when set, caps Records;
// Total is the number of matches before the cap.
type SearchResponse struct {
	ID        string           `msgpack:"id"`
	Records   []catalog.Record `msgpack:"r"`
	Count     int              `msgpack:"c"`
	Total     int              `msgpack:"n"`
	TimeTaken int64            `msgpack:"t"`
}

// TermsResponse answers ActionPopular.
type TermsResponse struct {
	ID    string   `msgpack:"id"`
	Terms []string `msgpack:"terms"`
}

// HistoryResponse answers ActionHistory.
type HistoryResponse struct {
	ID    string              `msgpack:"id"`
	Terms []history.TermCount `msgpack:"terms"`
}

// StatsResponse answers ActionStats.
type StatsResponse struct {
	ID    string       `msgpack:"id"`
	Stats engine.Stats `msgpack:"stats"`
}

// StatusResponse answers actions with no payload.
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"code"`
}
