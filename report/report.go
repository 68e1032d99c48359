// Package report queries decision batches with DuckDB.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// MatchSummary aggregates every recorded decision of one match.
type MatchSummary struct {
	MatchID   string  `json:"match_id"`
	Decisions int64   `json:"decisions"`
	Rounds    int64   `json:"rounds"`
	ScoreBlue int64   `json:"score_blue"`
	ScoreRed  int64   `json:"score_red"`
	TimedOut  int64   `json:"timed_out"`
	MeanNodes float64 `json:"mean_nodes"`
	MeanUs    float64 `json:"mean_us"`
}

// DB is an in-memory DuckDB with a `decisions` view over parquet batches.
type DB struct {
	db    *sql.DB
	roots []string
}

// Open builds the view over every *.parquet file below roots, skipping the
// tmp/ directories batch writers stage into.
func Open(roots []string) (*DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" || !hasParquet(root) {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}

	sqlText := emptyView
	if len(globs) > 0 {
		sqlText = `CREATE OR REPLACE VIEW decisions AS
			SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
			WHERE NOT contains(filename, '/tmp/')`
	}
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create decisions view: %w", err)
	}
	return &DB{db: db, roots: roots}, nil
}

const emptyView = `CREATE OR REPLACE VIEW decisions AS
	SELECT * FROM (
		SELECT
			NULL::VARCHAR AS match_id,
			NULL::INTEGER AS round,
			NULL::INTEGER AS turn,
			NULL::INTEGER AS team,
			NULL::INTEGER[] AS bot_x,
			NULL::INTEGER[] AS bot_y,
			NULL::INTEGER AS score_blue,
			NULL::INTEGER AS score_red,
			NULL::INTEGER AS move_x,
			NULL::INTEGER AS move_y,
			NULL::BIGINT AS value,
			NULL::BIGINT AS nodes,
			NULL::BOOLEAN AS timed_out,
			NULL::BIGINT AS elapsed_us,
			NULL::VARCHAR AS filename
	) WHERE 1=0`

// hasParquet reports whether root holds at least one finished batch.
// read_parquet fails on a glob that matches nothing.
func hasParquet(root string) bool {
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == "tmp" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".parquet") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (d *DB) Close() error { return d.db.Close() }

// SQL exposes the connection for ad-hoc queries.
func (d *DB) SQL() *sql.DB { return d.db }

// Count returns the number of recorded decisions.
func (d *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// MatchSummaries returns one summary per match ordered by match id. Scores
// are the ones seen at the last recorded decision.
func (d *DB) MatchSummaries(ctx context.Context) ([]MatchSummary, error) {
	query := `SELECT
			match_id,
			COUNT(*)::BIGINT AS decisions,
			(MAX(round) + 1)::BIGINT AS rounds,
			arg_max(score_blue, round * 4 + turn)::BIGINT AS score_blue,
			arg_max(score_red, round * 4 + turn)::BIGINT AS score_red,
			SUM(CASE WHEN timed_out THEN 1 ELSE 0 END)::BIGINT AS timed_out,
			AVG(nodes)::DOUBLE AS mean_nodes,
			AVG(elapsed_us)::DOUBLE AS mean_us
		FROM decisions
		GROUP BY match_id
		ORDER BY match_id`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query match summaries: %w", err)
	}
	defer rows.Close()

	var out []MatchSummary
	for rows.Next() {
		var s MatchSummary
		if err := rows.Scan(&s.MatchID, &s.Decisions, &s.Rounds, &s.ScoreBlue, &s.ScoreRed, &s.TimedOut, &s.MeanNodes, &s.MeanUs); err != nil {
			return nil, fmt.Errorf("scan match summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
