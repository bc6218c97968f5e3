package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/engine"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for one engine.
type Server struct {
	engine *engine.Engine
	cfg    *config.Config
	dec    *msgpack.Decoder
	enc    *msgpack.Encoder
	logger *log.Logger

	requestCount int
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(eng *engine.Engine, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		engine: eng,
		cfg:    cfg,
		dec:    msgpack.NewDecoder(r),
		enc:    msgpack.NewEncoder(w),
		logger: logger.New("ipc"),
	}
}

// Start announces readiness and serves requests until the input closes.
// A request that cannot be decoded ends the session since the stream can
// no longer be framed.
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	s.send(StatusResponse{Status: "ready"})

	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Client closed input after %d requests", s.requestCount)
				return nil
			}
			s.sendError("", "malformed request", 400)
			return fmt.Errorf("decoding request: %w", err)
		}
		s.requestCount++

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.rejectRequest(raw, err)
			continue
		}
		s.handleRequest(req)
	}
}

// envelope reads the routing fields of a request whose payload does not
// match Request.
type envelope struct {
	ID      any                `msgpack:"id"`
	Action  any                `msgpack:"action"`
	Records msgpack.RawMessage `msgpack:"records"`
}

// rejectRequest answers a framed message with the wrong field types. A build
// with badly shaped records gets the catalog error and 422, anything else 400.
func (s *Server) rejectRequest(raw []byte, cause error) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.sendError("", fmt.Sprintf("malformed request: %v", cause), 400)
		return
	}
	id, _ := env.ID.(string)
	action, _ := env.Action.(string)
	log.Debug("Rejecting malformed request", "id", id, "action", action, "err", cause)

	if action == ActionBuild && len(env.Records) > 0 {
		if _, err := catalog.Decode(bytes.NewReader(env.Records), catalog.FormatMsgpack); err != nil {
			s.sendError(id, err.Error(), 422)
			return
		}
	}
	s.sendError(id, fmt.Sprintf("malformed request: %v", cause), 400)
}

// handleRequest dispatches one request by action.
func (s *Server) handleRequest(req Request) {
	switch req.Action {
	case ActionSuggest:
		s.handleSuggest(req)
	case ActionSearch:
		s.handleSearch(req)
	case ActionCommit:
		if !s.validQuery(req) {
			return
		}
		s.engine.RecordSearch(req.Query)
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case ActionPopular:
		s.send(TermsResponse{ID: req.ID, Terms: s.engine.PopularTerms()})
	case ActionHistory:
		if !s.validQuery(req) {
			return
		}
		limit := req.Limit
		if limit < 1 {
			limit = s.cfg.History.PopularCount
		}
		s.send(HistoryResponse{ID: req.ID, Terms: s.engine.HistoryPrefix(req.Query, limit)})
	case ActionStats:
		s.send(StatsResponse{ID: req.ID, Stats: s.engine.Stats()})
	case ActionReset:
		s.engine.Reset()
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case ActionBuild:
		if err := s.engine.BuildIndex(req.Records); err != nil {
			s.sendError(req.ID, err.Error(), 422)
			return
		}
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %q", req.Action), 400)
	}
}

// validQuery rejects blank or oversized query text.
func (s *Server) validQuery(req Request) bool {
	if utils.Normalize(req.Query) == "" {
		s.sendError(req.ID, "missing 'q' parameter", 400)
		log.Debug("Query is empty in request", "id", req.ID)
		return false
	}
	if utils.RuneLen(req.Query) > s.cfg.Server.MaxQueryLen {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", s.cfg.Server.MaxQueryLen), 400)
		log.Debug("Query is too long in request", "id", req.ID)
		return false
	}
	return true
}

func (s *Server) handleSuggest(req Request) {
	if utils.RuneLen(req.Query) > s.cfg.Server.MaxQueryLen {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", s.cfg.Server.MaxQueryLen), 400)
		return
	}
	start := time.Now()
	entries := s.engine.Suggestions(req.Query, req.Limit)
	s.send(SuggestResponse{
		ID:          req.ID,
		Suggestions: entries,
		Count:       len(entries),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleSearch(req Request) {
	if utils.RuneLen(req.Query) > s.cfg.Server.MaxQueryLen {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", s.cfg.Server.MaxQueryLen), 400)
		return
	}
	start := time.Now()
	records := s.engine.Search(req.Query)
	total := len(records)
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	s.send(SearchResponse{
		ID:        req.ID,
		Records:   records,
		Count:     len(records),
		Total:     total,
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) send(response any) {
	if err := s.enc.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
