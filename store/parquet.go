// Package store persists search decisions as Parquet batches.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/lantern/agent"
)

const schemaName = "decision_row_v1"

// DecisionRow is one move chosen by the search, with enough of the state it
// was chosen from to replay or audit it.
//
// Turn is the slot of the bot that moved. BotX/BotY hold all four bots in slot
// order. FoodBlue and FoodRed count the pellets left on each half.
type DecisionRow struct {
	MatchID string `parquet:"match_id,dict"`
	Round   int32  `parquet:"round"`
	Turn    int32  `parquet:"turn"`
	Team    int32  `parquet:"team"`
	Width   int32  `parquet:"width"`
	Height  int32  `parquet:"height"`

	BotX []int32 `parquet:"bot_x"`
	BotY []int32 `parquet:"bot_y"`

	ScoreBlue int32 `parquet:"score_blue"`
	ScoreRed  int32 `parquet:"score_red"`
	FoodBlue  int32 `parquet:"food_blue"`
	FoodRed   int32 `parquet:"food_red"`

	MoveX int32 `parquet:"move_x"`
	MoveY int32 `parquet:"move_y"`
	Value int64 `parquet:"value"`

	Depth       int32 `parquet:"depth"`
	Nodes       int64 `parquet:"nodes"`
	Cutoffs     int64 `parquet:"cutoffs"`
	TimedOut    bool  `parquet:"timed_out"`
	ElapsedUs   int64 `parquet:"elapsed_us"`
	CacheHits   int64 `parquet:"cache_hits"`
	CacheMisses int64 `parquet:"cache_misses"`

	Source string `parquet:"source,dict"`
}

// NewDecisionRow flattens an agent decision.
func NewDecisionRow(matchID, source string, depth int, d agent.Decision) DecisionRow {
	s := d.State
	row := DecisionRow{
		MatchID:     matchID,
		Round:       int32(s.Round),
		Turn:        int32(s.Turn),
		Team:        int32(s.TeamID),
		Width:       s.Shape.Width,
		Height:      s.Shape.Height,
		BotX:        make([]int32, len(s.Bots)),
		BotY:        make([]int32, len(s.Bots)),
		ScoreBlue:   int32(s.Score[0]),
		ScoreRed:    int32(s.Score[1]),
		FoodBlue:    int32(s.Food[0].Len()),
		FoodRed:     int32(s.Food[1].Len()),
		MoveX:       d.Move.X,
		MoveY:       d.Move.Y,
		Value:       d.Value,
		Depth:       int32(depth),
		Nodes:       int64(d.Stats.Nodes),
		Cutoffs:     int64(d.Stats.Cutoffs),
		TimedOut:    d.Stats.TimedOut,
		ElapsedUs:   d.Stats.Elapsed.Microseconds(),
		CacheHits:   int64(d.Cache.Hits),
		CacheMisses: int64(d.Cache.Misses),
		Source:      source,
	}
	for i, b := range s.Bots {
		row.BotX[i] = b.X
		row.BotY[i] = b.Y
	}
	return row
}

var batchSeq atomic.Uint64

// WriteBatchParquetAtomic writes rows into outDir/tmp and then renames the
// file into outDir, so readers never observe a partially written batch.
// The returned path is the final parquet file path.
func WriteBatchParquetAtomic(outDir string, rows []DecisionRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("batch_%d_%d.parquet", time.Now().UnixNano(), batchSeq.Add(1))
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	return finalPath, nil
}

// ReadParquet loads every row of one batch file.
func ReadParquet(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
