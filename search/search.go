// Package search picks moves with depth-limited minimax and alpha-beta
// pruning over rules.Successors, scoring leaves with Evaluate.
//
// A search is single-threaded and deterministic for a given maze, state and
// distance oracle. The only state shared between searches is the oracle,
// normally a per-match distance.Cache.
package search

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/rules"
)

const (
	NegInf int64 = math.MinInt64
	PosInf int64 = math.MaxInt64
)

// ErrNoLegalMove means the bot to move has no legal destination. Staying
// put is always legal, so this only happens for a malformed state.
var ErrNoLegalMove = errors.New("no legal move")

// Config controls the search budget.
type Config struct {
	// Depth is the number of plies searched, counting the root move.
	Depth int
	// Deadline bounds wall-clock time when positive. Nodes reached after it
	// expires are scored statically.
	Deadline time.Duration
}

// DefaultConfig searches one full round.
var DefaultConfig = Config{Depth: 4}

// Stats describes one FindBestMove call.
type Stats struct {
	Nodes    int
	Leaves   int
	Cutoffs  int
	TimedOut bool
	Elapsed  time.Duration
}

// Decision is the outcome of a search.
type Decision struct {
	Move  game.Cell
	Value int64
	Stats Stats
}

// Searcher runs searches against a distance oracle.
// It is not safe for concurrent use; create one per goroutine and share the
// oracle instead.
type Searcher struct {
	Config Config
	Dist   distance.Oracle

	stats Stats
}

func NewSearcher(config Config, dist distance.Oracle) *Searcher {
	return &Searcher{Config: config, Dist: dist}
}

// FindBestMove searches every legal move of the bot at state.Turn and
// returns the best one for the side to move: the highest value when
// state.IsMaxPlayer, the lowest otherwise. The first move wins ties.
func (s *Searcher) FindBestMove(ctx context.Context, state game.State) (Decision, error) {
	start := time.Now()
	s.stats = Stats{}

	if ctx == nil {
		ctx = context.Background()
	}
	if s.Config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.Deadline)
		defer cancel()
	}

	succs := rules.Successors(state)
	if len(succs) == 0 {
		return Decision{}, ErrNoLegalMove
	}

	depth := s.Config.Depth
	if depth < 1 {
		depth = 1
	}

	best := Decision{Move: succs[0].Move}
	for i, succ := range succs {
		v := s.AlphaBeta(ctx, succ.State, depth-1, NegInf, PosInf)
		if i == 0 || (state.IsMaxPlayer && v > best.Value) || (!state.IsMaxPlayer && v < best.Value) {
			best.Move = succ.Move
			best.Value = v
		}
	}

	s.stats.Elapsed = time.Since(start)
	best.Stats = s.stats
	return best, nil
}
