package report

import (
	"context"
	"fmt"
)

// Decision is one recorded move as the replay API serves it.
type Decision struct {
	Round    int32    `json:"round"`
	Turn     int32    `json:"turn"`
	Team     int32    `json:"team"`
	BotX     []int32  `json:"bot_x"`
	BotY     []int32  `json:"bot_y"`
	Score    [2]int32 `json:"score"`
	MoveX    int32    `json:"move_x"`
	MoveY    int32    `json:"move_y"`
	Value    int64    `json:"value"`
	Nodes    int64    `json:"nodes"`
	TimedOut bool     `json:"timed_out"`
}

// MatchDecisions returns every decision of one match in play order.
func (d *DB) MatchDecisions(ctx context.Context, matchID string) ([]Decision, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT
			round, turn, team, bot_x, bot_y, score_blue, score_red,
			move_x, move_y, value, nodes, timed_out
		FROM decisions
		WHERE match_id = ?
		ORDER BY round, turn`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query match %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var dec Decision
		var botX, botY any
		if err := rows.Scan(&dec.Round, &dec.Turn, &dec.Team, &botX, &botY, &dec.Score[0], &dec.Score[1],
			&dec.MoveX, &dec.MoveY, &dec.Value, &dec.Nodes, &dec.TimedOut); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		dec.BotX = asInt32Slice(botX)
		dec.BotY = asInt32Slice(botY)
		out = append(out, dec)
	}
	return out, rows.Err()
}

// asInt32Slice converts the list types DuckDB hands back for INTEGER[].
func asInt32Slice(v any) []int32 {
	switch vv := v.(type) {
	case nil:
		return nil
	case []int32:
		return vv
	case []int64:
		out := make([]int32, 0, len(vv))
		for _, x := range vv {
			out = append(out, int32(x))
		}
		return out
	case []any:
		out := make([]int32, 0, len(vv))
		for _, x := range vv {
			out = append(out, int32(asInt64(x)))
		}
		return out
	default:
		return nil
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
