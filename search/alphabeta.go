package search

import (
	"context"

	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/rules"
)

// AlphaBeta returns the minimax value of state searched depth plies deep,
// pruning branches outside (alpha, beta). Children are visited in
// rules.Moves order.
//
// When ctx is done the node is scored statically instead of expanded, so a
// cancelled search still returns a value.
func (s *Searcher) AlphaBeta(ctx context.Context, state game.State, depth int, alpha, beta int64) int64 {
	s.stats.Nodes++

	if depth <= 0 || rules.IsTerminal(state) || s.expired(ctx) {
		s.stats.Leaves++
		return Evaluate(state, s.Dist)
	}

	succs := rules.Successors(state)

	if state.IsMaxPlayer {
		value := NegInf
		for _, succ := range succs {
			value = max(value, s.AlphaBeta(ctx, succ.State, depth-1, alpha, beta))
			alpha = max(alpha, value)
			if value >= beta {
				s.stats.Cutoffs++
				break
			}
		}
		return value
	}

	value := PosInf
	for _, succ := range succs {
		value = min(value, s.AlphaBeta(ctx, succ.State, depth-1, alpha, beta))
		beta = min(beta, value)
		if value <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return value
}

func (s *Searcher) expired(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		s.stats.TimedOut = true
		return true
	default:
		return false
	}
}
