package server

import (
	"bytes"
	"testing"

	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/engine"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func testRecords() []catalog.Record {
	return []catalog.Record{
		{ID: "1", Title: "The Adventures of Tom Sawyer", Author: "Mark Twain", Subjects: []string{"Fiction", "Adventure"}},
		{ID: "2", Title: "Pride and Prejudice", Author: "Jane Austen", Subjects: []string{"Fiction", "Romance"}},
	}
}

// session runs the server over the encoded requests and returns a decoder
// positioned after the ready message. Requests may be Request values or raw
// maps for payloads Request cannot express.
func session(t *testing.T, eng *engine.Engine, cfg *config.Config, reqs ...any) *msgpack.Decoder {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, NewServer(eng, cfg, &in, &out).Start())

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	require.NoError(t, eng.BuildIndex(testRecords()))
	return eng
}

func TestSuggestAndSearch(t *testing.T) {
	dec := session(t, newEngine(t), nil,
		Request{ID: "a", Action: ActionSuggest, Query: "pri"},
		Request{ID: "b", Action: ActionSearch, Query: "fiction", Limit: 1},
	)

	var sug SuggestResponse
	require.NoError(t, dec.Decode(&sug))
	assert.Equal(t, "a", sug.ID)
	require.Equal(t, 1, sug.Count)
	assert.Equal(t, "pride and prejudice", sug.Suggestions[0].Term)
	assert.Equal(t, []string{"2"}, sug.Suggestions[0].SampleRecordIDs)
	assert.GreaterOrEqual(t, sug.TimeTaken, int64(0))

	var res SearchResponse
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, "b", res.ID)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2", res.Records[0].ID)
}

func TestCommitPopularAndHistory(t *testing.T) {
	dec := session(t, newEngine(t), nil,
		Request{ID: "1", Action: ActionCommit, Query: "twain"},
		Request{ID: "2", Action: ActionCommit, Query: "Twain"},
		Request{ID: "3", Action: ActionCommit, Query: "tolstoy"},
		Request{ID: "4", Action: ActionPopular},
		Request{ID: "5", Action: ActionHistory, Query: "t", Limit: 5},
		Request{ID: "6", Action: ActionStats},
	)

	for range 3 {
		var st StatusResponse
		require.NoError(t, dec.Decode(&st))
		assert.Equal(t, "ok", st.Status)
	}

	var terms TermsResponse
	require.NoError(t, dec.Decode(&terms))
	assert.Equal(t, []string{"twain", "tolstoy"}, terms.Terms)

	var hist HistoryResponse
	require.NoError(t, dec.Decode(&hist))
	require.Len(t, hist.Terms, 2)
	assert.Equal(t, "twain", hist.Terms[0].Term)
	assert.Equal(t, 2, hist.Terms[0].Frequency)

	var stats StatsResponse
	require.NoError(t, dec.Decode(&stats))
	assert.Equal(t, engine.Stats{
		IndexedRecordCount:      2,
		DistinctSearchTermCount: 2,
		PopularTermCount:        2,
		TotalSearchCount:        3,
	}, stats.Stats)
}

func TestBuildRejectionKeepsIndex(t *testing.T) {
	eng := newEngine(t)
	bad := []catalog.Record{{ID: "9", Title: "", Author: "Nobody"}}
	dec := session(t, eng, nil,
		Request{ID: "b", Action: ActionBuild, Records: bad},
		Request{ID: "s", Action: ActionSearch, Query: "jane"},
	)

	var errResp ErrorResponse
	require.NoError(t, dec.Decode(&errResp))
	assert.Equal(t, "b", errResp.ID)
	assert.Equal(t, 422, errResp.Code)
	assert.Contains(t, errResp.Error, "title")

	var res SearchResponse
	require.NoError(t, dec.Decode(&res))
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2", res.Records[0].ID)
}

func TestBuildAndReset(t *testing.T) {
	eng := engine.New()
	dec := session(t, eng, nil,
		Request{ID: "b", Action: ActionBuild, Records: testRecords()},
		Request{ID: "c", Action: ActionCommit, Query: "austen"},
		Request{ID: "r", Action: ActionReset},
		Request{ID: "h", Action: ActionHealth},
	)

	for _, id := range []string{"b", "c", "r", "h"} {
		var st StatusResponse
		require.NoError(t, dec.Decode(&st))
		assert.Equal(t, id, st.ID)
		assert.Equal(t, "ok", st.Status)
	}
	assert.Equal(t, 2, eng.Stats().IndexedRecordCount)
	assert.Zero(t, eng.Stats().TotalSearchCount)
}

func TestRejectsBadRequests(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxQueryLen = 5
	dec := session(t, newEngine(t), cfg,
		Request{ID: "1", Action: ActionSuggest, Query: "pride and prejudice"},
		Request{ID: "2", Action: ActionSearch, Query: "pride and prejudice"},
		Request{ID: "3", Action: ActionCommit, Query: "   "},
		Request{ID: "4", Action: ActionHistory},
		Request{ID: "5", Action: "explode"},
	)

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		var e ErrorResponse
		require.NoError(t, dec.Decode(&e))
		assert.Equal(t, id, e.ID)
		assert.Equal(t, 400, e.Code)
		assert.NotEmpty(t, e.Error)
	}
}

func TestMistypedBuildKeepsSession(t *testing.T) {
	dec := session(t, newEngine(t), nil,
		map[string]any{
			"id":      "b",
			"action":  ActionBuild,
			"records": []map[string]any{{"id": "9", "title": 5, "author": "x"}},
		},
		map[string]any{"id": "s1", "action": ActionSearch, "q": 42},
		Request{ID: "s2", Action: ActionSearch, Query: "jane"},
	)

	var buildErr ErrorResponse
	require.NoError(t, dec.Decode(&buildErr))
	assert.Equal(t, "b", buildErr.ID)
	assert.Equal(t, 422, buildErr.Code)
	assert.Contains(t, buildErr.Error, "invalid input")

	var queryErr ErrorResponse
	require.NoError(t, dec.Decode(&queryErr))
	assert.Equal(t, "s1", queryErr.ID)
	assert.Equal(t, 400, queryErr.Code)

	var res SearchResponse
	require.NoError(t, dec.Decode(&res))
	assert.Equal(t, "s2", res.ID)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2", res.Records[0].ID)
}

func TestMalformedInputEndsSession(t *testing.T) {
	in := bytes.NewReader([]byte{0xc1})
	var out bytes.Buffer
	err := NewServer(engine.New(), nil, in, &out).Start()
	require.Error(t, err)

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	var e ErrorResponse
	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, 400, e.Code)
}
