// Command debuggame plays one match with a board dump after every round and
// writes its decisions to a single parquet batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/search"
	"github.com/brensch/lantern/selfplay"
	"github.com/brensch/lantern/store"
)

func main() {
	outDir := flag.String("out-dir", filepath.Join("debug_games"), "Output directory for debug games")
	layoutPath := flag.String("layout", "", "Layout file (empty = built-in)")
	blueDepth := flag.Int("depth-blue", search.DefaultConfig.Depth, "Blue search depth")
	redDepth := flag.Int("depth-red", search.DefaultConfig.Depth, "Red search depth")
	maxRounds := flag.Int("max-rounds", 0, "Stop after this many rounds (0 = full length)")
	every := flag.Int("every", 1, "Print the board every N rounds")
	flag.Parse()

	layout := maze.Default
	if *layoutPath != "" {
		text, err := os.ReadFile(*layoutPath)
		if err != nil {
			log.Fatalf("read layout: %v", err)
		}
		if layout, err = maze.Parse(string(text)); err != nil {
			log.Fatalf("parse layout: %v", err)
		}
	}
	if *every < 1 {
		*every = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("Playing debug match: blue depth %d vs red depth %d", *blueDepth, *redDepth)

	onStep := func(s selfplay.Step) {
		d := s.Decision
		me := d.State.Turn
		fmt.Printf("  Round %3d | bot %d %v→%v | value %d | nodes %d cutoffs %d | %v\n",
			d.State.Round, me, d.State.Bots[me], d.Move, d.Value, d.Stats.Nodes, d.Stats.Cutoffs, d.Stats.Elapsed)
		if s.State.Turn == 0 && s.State.Round%*every == 0 {
			fmt.Print(selfplay.Render(s.State))
		}
	}

	result, err := selfplay.PlayMatch(ctx, selfplay.MatchConfig{
		Layout:    layout,
		Blue:      agent.Config{Search: search.Config{Depth: *blueDepth}},
		Red:       agent.Config{Search: search.Config{Depth: *redDepth}},
		MaxRounds: *maxRounds,
		Source:    "debug",
		OnStep:    onStep,
	})
	if err != nil {
		log.Fatalf("Failed to play debug match: %v", err)
	}

	winner := "draw"
	if result.Winner >= 0 {
		winner = [game.NumTeams]string{"blue", "red"}[result.Winner]
	}
	log.Printf("Match complete: %d rounds, score %d-%d, winner: %s", result.Rounds, result.Score[0], result.Score[1], winner)

	parquetPath, err := store.WriteBatchParquetAtomic(*outDir, result.Rows)
	if err != nil {
		log.Fatalf("Failed to write debug match: %v", err)
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  Match %s written to:\n", result.MatchID)
	fmt.Printf("  %s\n", parquetPath)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}
