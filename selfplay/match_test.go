package selfplay

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/brensch/lantern/agent"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/rules"
	"github.com/brensch/lantern/search"
)

func shallow(depth int) agent.Config {
	return agent.Config{Search: search.Config{Depth: depth}}
}

func TestPlayMatch_ScoresAreConsistent(t *testing.T) {
	var steps atomic.Int64
	res, err := PlayMatch(context.Background(), MatchConfig{
		Layout:    maze.Default,
		Blue:      shallow(2),
		Red:       shallow(1),
		MaxRounds: 20,
		OnStep:    func(Step) { steps.Add(1) },
	})
	if err != nil {
		t.Fatalf("PlayMatch: %v", err)
	}
	t.Logf("\n%s", Render(res.Final))

	if res.MatchID == uuid.Nil {
		t.Fatalf("match id not set")
	}
	if res.Rounds > 20 || len(res.Rows) != int(steps.Load()) {
		t.Fatalf("rounds=%d rows=%d steps=%d", res.Rounds, len(res.Rows), steps.Load())
	}
	if !rules.IsTerminal(res.Final) && res.Rounds != 20 {
		t.Fatalf("stopped early at round %d", res.Rounds)
	}

	initial := maze.Default.State(0)
	for team := 0; team < game.NumTeams; team++ {
		// Team t eats from Food[1-t]; anything above that must be captures.
		eaten := initial.Food[game.Opponent(team)].Len() - res.Final.Food[game.Opponent(team)].Len()
		extra := res.Score[team] - eaten*rules.FoodPoints
		if extra < 0 || extra%rules.CapturePoints != 0 {
			t.Fatalf("team %d: score=%d eaten=%d", team, res.Score[team], eaten)
		}
	}
	if want := rules.Winner(res.Final); res.Winner != want {
		t.Fatalf("winner=%d want=%d", res.Winner, want)
	}

	id := res.MatchID.String()
	for i, row := range res.Rows {
		if row.MatchID != id || row.Source != "selfplay" {
			t.Fatalf("row %d: match=%s source=%s", i, row.MatchID, row.Source)
		}
		if int(row.Turn) != i%game.NumBots {
			t.Fatalf("row %d: turn=%d", i, row.Turn)
		}
		if want := int32([2]int{2, 1}[row.Turn%2]); row.Depth != want {
			t.Fatalf("row %d: depth=%d want=%d", i, row.Depth, want)
		}
	}
}

func TestPlayMatch_FullLengthTerminates(t *testing.T) {
	if testing.Short() {
		t.Skip("full match")
	}
	res, err := PlayMatch(context.Background(), MatchConfig{Blue: shallow(1), Red: shallow(1)})
	if err != nil {
		t.Fatalf("PlayMatch: %v", err)
	}
	if !rules.IsTerminal(res.Final) {
		t.Fatalf("match ended at round %d without a terminal state", res.Rounds)
	}
	if res.Rounds > rules.MaxRounds {
		t.Fatalf("rounds=%d", res.Rounds)
	}
}

func TestPlayMatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	res, err := PlayMatch(ctx, MatchConfig{
		Blue: shallow(1),
		Red:  shallow(1),
		OnStep: func(s Step) {
			if s.State.Round == 3 {
				cancel()
			}
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want Canceled", err)
	}
	if res.Rounds != 3 || len(res.Rows) != 3*game.NumBots {
		t.Fatalf("rounds=%d rows=%d", res.Rounds, len(res.Rows))
	}
}

func TestRunMatches(t *testing.T) {
	var sunk atomic.Int64
	results, err := RunMatches(context.Background(), 4, 2, MatchConfig{
		Blue:      shallow(1),
		Red:       shallow(1),
		MaxRounds: 5,
	}, func(MatchResult) error {
		sunk.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("RunMatches: %v", err)
	}
	if len(results) != 4 || sunk.Load() != 4 {
		t.Fatalf("results=%d sunk=%d", len(results), sunk.Load())
	}
	seen := map[uuid.UUID]bool{}
	for _, r := range results {
		if seen[r.MatchID] {
			t.Fatalf("duplicate match id %s", r.MatchID)
		}
		seen[r.MatchID] = true
		if r.Rounds != 5 {
			t.Fatalf("rounds=%d want=5", r.Rounds)
		}
	}
}

func TestRunMatches_SinkErrorStops(t *testing.T) {
	boom := errors.New("disk full")
	_, err := RunMatches(context.Background(), 3, 1, MatchConfig{
		Blue:      shallow(1),
		Red:       shallow(1),
		MaxRounds: 2,
	}, func(MatchResult) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}

func TestRender(t *testing.T) {
	out := Render(maze.Default.State(0))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("lines=%d want=9:\n%s", len(lines), out)
	}
	if lines[0] != "round 0  turn 0  blue 0  red 0" {
		t.Fatalf("header=%q", lines[0])
	}
	if want := strings.TrimSpace(maze.Default.String()); strings.Join(lines[1:], "\n") != want {
		t.Fatalf("board:\n%s\nwant:\n%s", strings.Join(lines[1:], "\n"), want)
	}
}
