package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/rules"
)

func mustState(t testing.TB, team int, rows string) game.State {
	t.Helper()
	l, err := maze.Parse(rows)
	if err != nil {
		t.Fatalf("parse layout: %v", err)
	}
	return l.State(team)
}

func mustCache(t testing.TB, state game.State) *distance.Cache {
	t.Helper()
	c, err := distance.NewGridCache(state.Walls, distance.DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewGridCache: %v", err)
	}
	return c
}

const evalBoard = `
########
#0  . 1#
#2 .  3#
########
`

func TestEvaluate_Components(t *testing.T) {
	blue := mustState(t, 0, evalBoard)
	dist := distance.NewGrid(blue.Walls)

	// Pairs cost 5+6+6+5, nearest pellets add 3+4.
	if got := Evaluate(blue, dist); got != -15 {
		t.Fatalf("blue eval=%d want=-15", got)
	}

	red := blue
	red.TeamID = 1
	if got := Evaluate(red, dist); got != -15 {
		t.Fatalf("red eval=%d want=-15", got)
	}

	blue.Score = [2]int{2, 0}
	red.Score = blue.Score
	if got := Evaluate(blue, dist); got != 185 {
		t.Fatalf("blue eval with score=%d want=185", got)
	}
	if got := Evaluate(red, dist); got != -215 {
		t.Fatalf("red eval with score=%d want=-215", got)
	}
}

func TestEvaluate_TerminalAmplifies(t *testing.T) {
	blue := mustState(t, 0, evalBoard)
	dist := distance.NewGrid(blue.Walls)
	blue.Score = [2]int{2, 0}
	blue.Food[0] = game.FoodSet{}

	if got, want := Evaluate(blue, dist), int64(200*TerminalMultiple-22+7); got != want {
		t.Fatalf("terminal blue eval=%d want=%d", got, want)
	}

	red := blue
	red.TeamID = 1
	// Red has nothing left to eat: both bots add the sentinel.
	if got, want := Evaluate(red, dist), int64(-200*TerminalMultiple-22+2*MaxDistance); got != want {
		t.Fatalf("terminal red eval=%d want=%d", got, want)
	}

	draw := mustState(t, 0, evalBoard)
	draw.Round = rules.MaxRounds
	if got := Evaluate(draw, dist); got != -15 {
		t.Fatalf("drawn terminal eval=%d want=-15", got)
	}
}

func TestEvaluate_UnreachableUsesSentinel(t *testing.T) {
	state := mustState(t, 0, `
#######
#0.#.1#
#2 # 3#
#######
`)
	dist := distance.NewGrid(state.Walls)
	if got, want := Evaluate(state, dist), int64(-4*MaxDistance+2*MaxDistance); got != want {
		t.Fatalf("eval=%d want=%d", got, want)
	}
}

const trapBoard = `
##########
#2  . 0.1#
#      .3#
##########
`

func TestFindBestMove_Depth1TakesFood(t *testing.T) {
	state := mustState(t, 0, trapBoard)
	s := NewSearcher(Config{Depth: 1}, mustCache(t, state))
	d, err := s.FindBestMove(context.Background(), state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if want := (game.Cell{X: 7, Y: 1}); d.Move != want {
		t.Fatalf("move=%v want=%v", d.Move, want)
	}
	if d.Value != 90 {
		t.Fatalf("value=%d want=90", d.Value)
	}
}

func TestFindBestMove_Depth2AvoidsCapture(t *testing.T) {
	state := mustState(t, 0, trapBoard)
	s := NewSearcher(Config{Depth: 2}, mustCache(t, state))
	d, err := s.FindBestMove(context.Background(), state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if d.Move == (game.Cell{X: 7, Y: 1}) {
		t.Fatalf("walked into capture at %v (value=%d)", d.Move, d.Value)
	}
	if d.Value <= -415 {
		t.Fatalf("value=%d want better than the capture line -415", d.Value)
	}
	if !rules.IsLegal(state, d.Move) {
		t.Fatalf("illegal move %v", d.Move)
	}
}

// minimax is the unpruned reference search.
func minimax(state game.State, depth int, dist distance.Oracle) int64 {
	if depth <= 0 || rules.IsTerminal(state) {
		return Evaluate(state, dist)
	}
	succs := rules.Successors(state)
	best := minimax(succs[0].State, depth-1, dist)
	for _, succ := range succs[1:] {
		v := minimax(succ.State, depth-1, dist)
		if state.IsMaxPlayer {
			best = max(best, v)
		} else {
			best = min(best, v)
		}
	}
	return best
}

func countNodes(state game.State, depth int) int {
	if depth <= 0 || rules.IsTerminal(state) {
		return 1
	}
	n := 1
	for _, succ := range rules.Successors(state) {
		n += countNodes(succ.State, depth-1)
	}
	return n
}

func TestFindBestMove_MatchesMinimax(t *testing.T) {
	for team := 0; team < 2; team++ {
		state := maze.Default.State(team)
		cache := mustCache(t, state)
		for ply := 0; ply < 6; ply++ {
			for depth := 1; depth <= 4; depth++ {
				s := NewSearcher(Config{Depth: depth}, cache)
				got, err := s.FindBestMove(context.Background(), state)
				if err != nil {
					t.Fatalf("FindBestMove: %v", err)
				}

				var wantMove game.Cell
				var wantValue int64
				for i, succ := range rules.Successors(state) {
					v := minimax(succ.State, depth-1, cache)
					if i == 0 || (state.IsMaxPlayer && v > wantValue) || (!state.IsMaxPlayer && v < wantValue) {
						wantMove, wantValue = succ.Move, v
					}
				}
				if got.Value != wantValue || got.Move != wantMove {
					t.Fatalf("team=%d ply=%d depth=%d: alphabeta=(%v,%d) minimax=(%v,%d)",
						team, ply, depth, got.Move, got.Value, wantMove, wantValue)
				}
				// The root itself is not counted as a node.
				if full := countNodes(state, depth) - 1; got.Stats.Nodes > full {
					t.Fatalf("visited %d nodes, full tree has %d", got.Stats.Nodes, full)
				}
			}
			succs := rules.Successors(state)
			state = succs[ply%len(succs)].State
		}
	}
}

func TestAlphaBeta_PrunesAtDepth(t *testing.T) {
	state := maze.Default.State(0)
	s := NewSearcher(Config{Depth: 5}, mustCache(t, state))
	d, err := s.FindBestMove(context.Background(), state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	full := countNodes(state, 5) - 1
	t.Logf("nodes=%d cutoffs=%d full=%d", d.Stats.Nodes, d.Stats.Cutoffs, full)
	if d.Stats.Cutoffs == 0 || d.Stats.Nodes >= full {
		t.Fatalf("no pruning: nodes=%d cutoffs=%d full=%d", d.Stats.Nodes, d.Stats.Cutoffs, full)
	}
}

func TestFindBestMove_CancelledFallsBackToStatic(t *testing.T) {
	state := maze.Default.State(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSearcher(Config{Depth: 6}, mustCache(t, state))
	d, err := s.FindBestMove(ctx, state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if !d.Stats.TimedOut {
		t.Fatalf("TimedOut=false for a cancelled context")
	}
	if n := len(rules.LegalDestinations(state)); d.Stats.Nodes != n {
		t.Fatalf("nodes=%d want=%d (one static eval per root move)", d.Stats.Nodes, n)
	}
	if !rules.IsLegal(state, d.Move) {
		t.Fatalf("illegal move %v", d.Move)
	}
}

func TestFindBestMove_Deadline(t *testing.T) {
	state := maze.Default.State(0)
	s := NewSearcher(Config{Depth: 40, Deadline: 20 * time.Millisecond}, mustCache(t, state))
	start := time.Now()
	d, err := s.FindBestMove(context.Background(), state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search ignored deadline: %v", elapsed)
	}
	if !d.Stats.TimedOut {
		t.Fatalf("depth 40 finished inside 20ms")
	}
	if !rules.IsLegal(state, d.Move) {
		t.Fatalf("illegal move %v", d.Move)
	}
}

func TestFindBestMove_Deterministic(t *testing.T) {
	state := maze.Default.State(1)
	first, err := NewSearcher(Config{Depth: 4}, mustCache(t, state)).FindBestMove(context.Background(), state)
	if err != nil {
		t.Fatalf("FindBestMove: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := NewSearcher(Config{Depth: 4}, mustCache(t, state)).FindBestMove(context.Background(), state)
		if err != nil {
			t.Fatalf("FindBestMove: %v", err)
		}
		if again.Move != first.Move || again.Value != first.Value || again.Stats.Nodes != first.Stats.Nodes {
			t.Fatalf("run %d: (%v,%d,%d) want (%v,%d,%d)", i, again.Move, again.Value, again.Stats.Nodes, first.Move, first.Value, first.Stats.Nodes)
		}
	}
}

func TestFindBestMove_NoLegalMove(t *testing.T) {
	state := maze.Default.State(0)
	var all []game.Cell
	for y := int32(0); y < state.Shape.Height; y++ {
		for x := int32(0); x < state.Shape.Width; x++ {
			all = append(all, game.Cell{X: x, Y: y})
		}
	}
	state.Walls = game.NewWalls(state.Shape, all)
	_, err := NewSearcher(DefaultConfig, distance.NewGrid(state.Walls)).FindBestMove(context.Background(), state)
	if !errors.Is(err, ErrNoLegalMove) {
		t.Fatalf("err=%v want ErrNoLegalMove", err)
	}
}

func BenchmarkFindBestMove(b *testing.B) {
	state := maze.Default.State(0)
	cache := mustCache(b, state)
	s := NewSearcher(DefaultConfig, cache)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.FindBestMove(context.Background(), state); err != nil {
			b.Fatalf("FindBestMove: %v", err)
		}
	}
}
