// Package selfplay plays complete matches between two agents on a layout.
package selfplay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/rules"
	"github.com/brensch/lantern/store"
)

// Step is reported after every ply.
type Step struct {
	MatchID  uuid.UUID
	Decision agent.Decision
	// State is the true state after the move was applied.
	State game.State
}

type MatchConfig struct {
	// Layout defaults to maze.Default.
	Layout maze.Layout
	Blue   agent.Config
	Red    agent.Config
	// MaxRounds ends the match early when positive and below rules.MaxRounds.
	MaxRounds int
	// Source tags the recorded rows.
	Source string
	OnStep func(Step)
	Logger *slog.Logger
}

type MatchResult struct {
	MatchID uuid.UUID
	Rounds  int
	Score   [game.NumTeams]int
	// Winner is the winning team or -1 for a draw.
	Winner  int
	Rows    []store.DecisionRow
	Final   game.State
	Elapsed time.Duration
}

// PlayMatch plays one match. Each ply the bot to move asks its team's agent
// for a move from a snapshot of the true state, and the true state advances
// by rules.ApplyMove. A cancelled ctx stops between plies and returns the
// partial result with ctx's error.
func PlayMatch(ctx context.Context, cfg MatchConfig) (MatchResult, error) {
	start := time.Now()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := rules.MaxRounds
	if cfg.MaxRounds > 0 && cfg.MaxRounds < maxRounds {
		maxRounds = cfg.MaxRounds
	}
	source := cfg.Source
	if source == "" {
		source = "selfplay"
	}

	id := uuid.New()
	matchID := id.String()
	agents := [game.NumTeams]*agent.Agent{
		agent.New(cfg.Blue, logger),
		agent.New(cfg.Red, logger),
	}
	depths := [game.NumTeams]int{cfg.Blue.Search.Depth, cfg.Red.Search.Depth}
	defer func() {
		for _, a := range agents {
			a.EndMatch(matchID)
		}
	}()

	layout := cfg.Layout
	if layout.Shape == (game.Shape{}) {
		layout = maze.Default
	}
	state := layout.State(0)
	res := MatchResult{MatchID: id, Rows: make([]store.DecisionRow, 0, maxRounds*game.NumBots)}

	finish := func(err error) (MatchResult, error) {
		res.Final = state
		res.Score = state.Score
		res.Rounds = state.Round
		res.Winner = rules.Winner(state)
		res.Elapsed = time.Since(start)
		return res, err
	}

	for !rules.IsTerminal(state) && state.Round < maxRounds {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		me := state.Turn
		team := game.TeamOf(me)
		snap := agent.SnapshotOf(matchID, state, me)
		d, err := agents[team].Move(ctx, &snap)
		if err != nil {
			return finish(fmt.Errorf("round %d bot %d: %w", state.Round, me, err))
		}

		state = rules.ApplyMove(state, d.Move)
		res.Rows = append(res.Rows, store.NewDecisionRow(matchID, source, depths[team], d))
		if cfg.OnStep != nil {
			cfg.OnStep(Step{MatchID: id, Decision: d, State: state})
		}
	}

	out, err := finish(nil)
	logger.Info("match finished",
		"match_id", matchID,
		"rounds", out.Rounds,
		"score", out.Score,
		"winner", out.Winner,
		"elapsed", out.Elapsed,
	)
	return out, err
}

// RunMatches plays n matches with at most parallel running at once. When
// sink is non-nil every finished match is handed to it; a sink error stops
// the run. Results come back in start order.
func RunMatches(ctx context.Context, n, parallel int, cfg MatchConfig, sink func(MatchResult) error) ([]MatchResult, error) {
	if n <= 0 {
		return nil, nil
	}
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]MatchResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := PlayMatch(ctx, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			if sink != nil {
				return sink(res)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
