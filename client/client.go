// Package client plays matches by dialing a host's websocket event stream.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/protocol"
)

// Config holds client configuration.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	// ReadTimeout bounds the wait for each host frame. Zero waits forever.
	ReadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:              "ws://localhost:8080/ws",
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      30 * time.Second,
	}
}

// Stats counts what happened on one connection.
type Stats struct {
	Observations int
	Moves        int
	Errors       int
	GamesOver    int
}

// Play dials the host and answers every observation with a move until the
// host closes the connection or ctx is done. A normal close returns nil.
func Play(ctx context.Context, config Config, a *agent.Agent, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats

	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, config.URL, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		// Re-arming the deadline would undo the one set when ctx ended.
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
		}
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return stats, nil
			}
			return stats, fmt.Errorf("read error: %w", err)
		}

		var snap agent.Snapshot
		ev, err := protocol.Decode(frame, nil)
		if err != nil {
			stats.Errors++
			logger.Warn("bad frame", "err", err)
			continue
		}

		switch ev.Type {
		case protocol.TypeObservation:
			stats.Observations++
			if _, err := protocol.Decode(frame, &snap); err != nil {
				stats.Errors++
				logger.Warn("bad observation", "err", err)
				continue
			}
			d, err := a.Move(ctx, &snap)
			if err != nil {
				stats.Errors++
				if errors.Is(err, agent.ErrInvalidSnapshot) {
					logger.Warn("invalid observation", "match_id", snap.MatchID, "err", err)
					continue
				}
				return stats, err
			}
			reply, err := protocol.Encode(protocol.TypeMove, protocol.NewMoveResponse(snap.MatchID, d))
			if err != nil {
				return stats, err
			}
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return stats, fmt.Errorf("write move: %w", err)
			}
			stats.Moves++

		case protocol.TypeGameOver:
			stats.GamesOver++
			var over protocol.GameOver
			if _, err := protocol.Decode(frame, &over); err != nil {
				logger.Warn("bad game_over", "err", err)
				continue
			}
			a.EndMatch(over.MatchID)
			logger.Info("game over", "match_id", over.MatchID, "winner", over.Winner, "score", over.Score)

		case protocol.TypeError:
			stats.Errors++
			var e protocol.ErrorResponse
			_, _ = protocol.Decode(frame, &e)
			logger.Warn("host error", "err", e.Error)

		default:
			logger.Debug("ignoring event", "type", ev.Type)
		}
	}
}
