package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/protocol"
)

// handleWS serves one host connection. Every observation frame gets a move
// or error frame back; a bad frame does not end the stream. Matches seen on
// the connection are dropped when it closes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	seen := map[string]struct{}{}
	defer func() {
		for id := range seen {
			s.agent.EndMatch(id)
		}
	}()

	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read", "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply, err := s.handleFrame(r, frame, seen)
		if err != nil {
			reply, _ = protocol.Encode(protocol.TypeError, protocol.ErrorResponse{Error: err.Error()})
		}
		if reply == nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			s.logger.Warn("websocket write", "err", err)
			return
		}
	}
}

func (s *Server) handleFrame(r *http.Request, frame []byte, seen map[string]struct{}) ([]byte, error) {
	ev, err := protocol.Decode(frame, nil)
	if err != nil {
		return nil, err
	}

	switch ev.Type {
	case protocol.TypeObservation:
		var snap agent.Snapshot
		if _, err := protocol.Decode(frame, &snap); err != nil {
			return nil, err
		}
		resp, err := s.move(r.Context(), &snap)
		if err != nil {
			return nil, err
		}
		seen[snap.MatchID] = struct{}{}
		return protocol.Encode(protocol.TypeMove, resp)

	case protocol.TypeGameOver:
		var over protocol.GameOver
		if _, err := protocol.Decode(frame, &over); err != nil {
			return nil, err
		}
		s.agent.EndMatch(over.MatchID)
		delete(seen, over.MatchID)
		s.logger.Info("game over", "match_id", over.MatchID, "winner", over.Winner, "score", over.Score)
		return nil, nil

	default:
		s.logger.Debug("ignoring event", "type", ev.Type)
		return nil, nil
	}
}
