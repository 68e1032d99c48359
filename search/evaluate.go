package search

import (
	"math"

	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/rules"
)

// MaxDistance stands in for the distance of a pair with no connecting path.
const MaxDistance = math.MaxInt32

const (
	ScoreWeight      = 100
	TerminalMultiple = 3000
)

// Evaluate scores state for state.TeamID, whatever side is to move.
//
// The score differential is scaled by ScoreWeight, and again by
// TerminalMultiple on a finished match. Every own/enemy bot pair then costs
// its path length, and every own bot adds its path length to the nearest
// pellet it may eat. Missing paths count as MaxDistance.
func Evaluate(state game.State, dist distance.Oracle) int64 {
	team := state.TeamID
	opp := game.Opponent(team)

	score := int64(ScoreWeight * (state.Score[team] - state.Score[opp]))
	if rules.IsTerminal(state) {
		score *= TerminalMultiple
	}

	own := game.TeamBots(team)
	enemies := game.TeamBots(opp)
	for _, b := range own {
		for _, e := range enemies {
			score -= int64(pathLength(dist, state.Bots[b], state.Bots[e]))
		}
	}

	edible := state.Food[opp]
	for _, b := range own {
		score += int64(nearestFood(dist, state.Bots[b], edible))
	}
	return score
}

func pathLength(dist distance.Oracle, a, b game.Cell) int {
	d, ok := dist.Distance(a, b)
	if !ok {
		return MaxDistance
	}
	return d
}

func nearestFood(dist distance.Oracle, from game.Cell, food game.FoodSet) int {
	best := MaxDistance
	food.Each(func(c game.Cell) {
		if d, ok := dist.Distance(from, c); ok && d < best {
			best = d
		}
	})
	return best
}
