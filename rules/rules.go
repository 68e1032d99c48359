package rules

import (
	"github.com/brensch/lantern/game"
)

const (
	MaxRounds     = 300
	FoodPoints    = 1
	CapturePoints = 5
)

// Moves lists the five step offsets in enumeration order: stay, north,
// south, west, east. Search tie-breaking depends on this order.
var Moves = [5]game.Cell{
	{X: 0, Y: 0},
	{X: 0, Y: -1},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// StartPosition returns the fixed home cell of a bot slot. Captured bots
// are sent back here.
func StartPosition(slot int, shape game.Shape) game.Cell {
	switch slot {
	case 0:
		return game.Cell{X: 1, Y: shape.Height - 2}
	case 1:
		return game.Cell{X: shape.Width - 2, Y: 1}
	case 2:
		return game.Cell{X: 1, Y: shape.Height - 3}
	default:
		return game.Cell{X: shape.Width - 2, Y: 2}
	}
}

// LegalDestinations returns the cells the bot at state.Turn may move to,
// in Moves order. Staying put is always legal so the result is never empty
// for a well-formed state.
func LegalDestinations(state game.State) []game.Cell {
	from := state.Bots[state.Turn]
	out := make([]game.Cell, 0, len(Moves))
	for _, d := range Moves {
		c := from.Add(d)
		if !state.Walls.IsWall(c) {
			out = append(out, c)
		}
	}
	return out
}

// IsLegal reports whether dest is one of LegalDestinations(state).
func IsLegal(state game.State, dest game.Cell) bool {
	if state.Walls.IsWall(dest) {
		return false
	}
	return game.Manhattan(state.Bots[state.Turn], dest) <= 1
}

// ApplyMove returns the state after the bot at state.Turn moves to dest.
// dest must come from LegalDestinations; it is not re-checked here.
func ApplyMove(state game.State, dest game.Cell) game.State {
	next := state
	mover := state.Turn
	team := game.TeamOf(mover)
	enemy := game.Opponent(team)

	// Food on the enemy half is what this team eats.
	if next.Food[enemy].Has(dest) {
		next.Food[enemy] = next.Food[enemy].Without(dest)
		next.Score[team] += FoodPoints
	}

	next.Bots[mover] = dest

	for _, slot := range game.TeamBots(enemy) {
		if next.Bots[slot] != dest || !inHalfOf(team, dest, state.Shape) {
			continue
		}
		next.Bots[slot] = StartPosition(slot, state.Shape)
		next.Score[team] += CapturePoints
	}

	next.Turn = (mover + 1) % game.NumBots
	if next.Turn == 0 {
		next.Round++
	}
	next.IsMaxPlayer = !state.IsMaxPlayer
	return next
}

// inHalfOf reports whether c lies on team's home half. Team 0 owns
// X < width/2 and team 1 owns X >= width/2.
func inHalfOf(team int, c game.Cell, shape game.Shape) bool {
	if team == 0 {
		return c.X < shape.Width/2
	}
	return c.X >= shape.Width/2
}

// Successor pairs a destination with the state it produces.
type Successor struct {
	Move  game.Cell
	State game.State
}

// Successors expands every legal destination in Moves order.
func Successors(state game.State) []Successor {
	dests := LegalDestinations(state)
	out := make([]Successor, len(dests))
	for i, d := range dests {
		out[i] = Successor{Move: d, State: ApplyMove(state, d)}
	}
	return out
}

// IsTerminal reports whether the match is over: the round limit is reached
// or one side has no food left to defend.
func IsTerminal(state game.State) bool {
	return state.Round >= MaxRounds || state.Food[0].Len() == 0 || state.Food[1].Len() == 0
}

// Winner returns the winning team of a finished match, or -1 for a draw.
func Winner(state game.State) int {
	switch {
	case state.Score[0] > state.Score[1]:
		return 0
	case state.Score[1] > state.Score[0]:
		return 1
	default:
		return -1
	}
}
