// Package protocol defines the JSON messages exchanged with game hosts over
// HTTP and websockets.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/brensch/lantern/agent"
)

// Event types on the websocket stream.
const (
	TypeObservation = "observation"
	TypeGameOver    = "game_over"
	TypeMove        = "move"
	TypeError       = "error"
)

// Event is one websocket frame.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// InfoResponse answers GET /.
type InfoResponse struct {
	Team    string `json:"team"`
	Version string `json:"version"`
	Depth   int    `json:"depth"`
}

// MoveResponse carries the chosen destination of the acting bot.
type MoveResponse struct {
	MatchID  string         `json:"match_id,omitempty"`
	Round    int            `json:"round"`
	Move     agent.Position `json:"move"`
	Value    int64          `json:"value"`
	Nodes    int            `json:"nodes"`
	Cutoffs  int            `json:"cutoffs"`
	TimedOut bool           `json:"timed_out,omitempty"`
	Elapsed  int64          `json:"elapsed_us"`
}

// GameOver is sent by a host when a match finishes.
type GameOver struct {
	MatchID string `json:"match_id"`
	Winner  int    `json:"winner"`
	Score   [2]int `json:"score"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewMoveResponse renders a decision.
func NewMoveResponse(matchID string, d agent.Decision) MoveResponse {
	return MoveResponse{
		MatchID:  matchID,
		Round:    d.State.Round,
		Move:     agent.PositionOf(d.Move),
		Value:    d.Value,
		Nodes:    d.Stats.Nodes,
		Cutoffs:  d.Stats.Cutoffs,
		TimedOut: d.Stats.TimedOut,
		Elapsed:  d.Stats.Elapsed.Microseconds(),
	}
}

// Encode wraps data in an event frame.
func Encode(typ string, data any) ([]byte, error) {
	ev := Event{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", typ, err)
		}
		ev.Data = raw
	}
	return json.Marshal(ev)
}

// Decode parses an event frame and, when into is non-nil, its payload.
func Decode(frame []byte, into any) (Event, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if into != nil && len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, into); err != nil {
			return ev, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
	}
	return ev, nil
}
