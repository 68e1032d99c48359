// Package server exposes an agent to game hosts over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/protocol"
	"github.com/brensch/lantern/store"
)

// Recorder receives one row per decision.
type Recorder interface {
	Record(rows ...store.DecisionRow) error
}

type Config struct {
	Version string
	// MoveTimeout bounds each move request. Zero leaves it to the search
	// deadline and the request context.
	MoveTimeout time.Duration
	Recorder    Recorder
	Logger      *slog.Logger
}

// Server holds the agent and the host-facing configuration.
type Server struct {
	agent    *agent.Agent
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(a *agent.Agent, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	return &Server{
		agent:  a,
		config: config,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Hosts are trusted peers; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/end", s.handleEnd)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
}

// handleIndex returns who is playing.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, protocol.InfoResponse{
		Team:    agent.TeamName,
		Version: s.config.Version,
		Depth:   s.agent.Config().Search.Depth,
	})
}

func decodeSnapshot(w http.ResponseWriter, r *http.Request) (*agent.Snapshot, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return nil, false
	}
	var snap agent.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &snap, true
}

// handleStart warms the match cache.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}
	if err := s.agent.StartMatch(snap); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.logger.Info("match started", "match_id", snap.MatchID, "team", snap.Team, "shape", snap.Shape)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	snap, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}
	resp, err := s.move(r.Context(), snap)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEnd drops the match cache.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	snap, ok := decodeSnapshot(w, r)
	if !ok {
		return
	}
	s.agent.EndMatch(snap.MatchID)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) move(ctx context.Context, snap *agent.Snapshot) (protocol.MoveResponse, error) {
	if s.config.MoveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.MoveTimeout)
		defer cancel()
	}

	d, err := s.agent.Move(ctx, snap)
	if err != nil {
		s.logger.Warn("move failed", "match_id", snap.MatchID, "round", snap.Round, "err", err)
		return protocol.MoveResponse{}, err
	}

	if s.config.Recorder != nil {
		row := store.NewDecisionRow(snap.MatchID, "server", s.agent.Config().Search.Depth, d)
		if err := s.config.Recorder.Record(row); err != nil {
			s.logger.Error("record decision", "match_id", snap.MatchID, "err", err)
		}
	}
	return protocol.NewMoveResponse(snap.MatchID, d), nil
}

func statusFor(err error) int {
	if errors.Is(err, agent.ErrInvalidSnapshot) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
