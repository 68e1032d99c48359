package agent

import (
	"errors"
	"fmt"

	"github.com/brensch/lantern/game"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// MaxBoardSide caps either dimension of a snapshot's shape.
const MaxBoardSide = 1024

// Position is a cell on the wire, encoded as [x, y].
type Position [2]int

func (p Position) Cell() game.Cell { return game.Cell{X: int32(p[0]), Y: int32(p[1])} }

func PositionOf(c game.Cell) Position { return Position{int(c.X), int(c.Y)} }

// BotView is what the host reports about one bot.
// Food is the set of pellets on that bot's home half.
type BotView struct {
	Position Position   `json:"position"`
	Score    int        `json:"score"`
	Food     []Position `json:"food,omitempty"`
}

// Snapshot is one observation handed to the agent by the host.
//
// Team is 0 (blue, bots 0 and 2) or 1 (red, bots 1 and 3). Turn says which of
// the team's two bots is acting: 0 for the first, 1 for the second.
// Enemies are listed in slot order.
type Snapshot struct {
	MatchID string     `json:"match_id"`
	Team    int        `json:"team"`
	Turn    int        `json:"turn"`
	Round   int        `json:"round"`
	Shape   Position   `json:"shape"`
	Walls   []Position `json:"walls"`
	Bot     BotView    `json:"bot"`
	Other   BotView    `json:"other"`
	Enemies []BotView  `json:"enemies"`
}

// Validate rejects snapshots NewState cannot turn into a well-formed state.
func (s *Snapshot) Validate() error {
	if s.Team != 0 && s.Team != 1 {
		return fmt.Errorf("%w: team %d", ErrInvalidSnapshot, s.Team)
	}
	if s.Turn != 0 && s.Turn != 1 {
		return fmt.Errorf("%w: turn %d", ErrInvalidSnapshot, s.Turn)
	}
	if s.Round < 0 {
		return fmt.Errorf("%w: round %d", ErrInvalidSnapshot, s.Round)
	}
	if s.Shape[0] < 2 || s.Shape[1] < 1 || s.Shape[0] > MaxBoardSide || s.Shape[1] > MaxBoardSide {
		return fmt.Errorf("%w: shape %v", ErrInvalidSnapshot, s.Shape)
	}
	if len(s.Enemies) != 2 {
		return fmt.Errorf("%w: %d enemies, want 2", ErrInvalidSnapshot, len(s.Enemies))
	}

	// Coordinates are range checked as ints; Cell truncates to int32.
	for _, w := range s.Walls {
		if !s.onBoard(w) {
			return fmt.Errorf("%w: wall %v outside %v", ErrInvalidSnapshot, w, s.Shape)
		}
	}
	walls := s.walls()

	views := []struct {
		name string
		view BotView
	}{{"bot", s.Bot}, {"other", s.Other}, {"enemy 0", s.Enemies[0]}, {"enemy 1", s.Enemies[1]}}
	for _, v := range views {
		if !s.onBoard(v.view.Position) || walls.IsWall(v.view.Position.Cell()) {
			return fmt.Errorf("%w: %s at %v is on a wall or off the board", ErrInvalidSnapshot, v.name, v.view.Position)
		}
		for _, f := range v.view.Food {
			if !s.onBoard(f) || walls.IsWall(f.Cell()) {
				return fmt.Errorf("%w: food at %v is on a wall or off the board", ErrInvalidSnapshot, f)
			}
		}
	}
	return nil
}

func (s *Snapshot) onBoard(p Position) bool {
	return p[0] >= 0 && p[0] < s.Shape[0] && p[1] >= 0 && p[1] < s.Shape[1]
}

func (s *Snapshot) shape() game.Shape {
	return game.Shape{Width: int32(s.Shape[0]), Height: int32(s.Shape[1])}
}

func (s *Snapshot) walls() *game.Walls {
	cells := make([]game.Cell, len(s.Walls))
	for i, w := range s.Walls {
		cells[i] = w.Cell()
	}
	return game.NewWalls(s.shape(), cells)
}

// MeID returns the slot of the acting bot.
func (s *Snapshot) MeID() int { return s.Team + 2*s.Turn }

// NewState builds the search root for a validated snapshot. The acting bot
// is slot Team+2*Turn and the root is always a maximising node for Team.
func NewState(s *Snapshot) game.State {
	shape := s.shape()
	team := s.Team
	opp := game.Opponent(team)
	me := s.MeID()
	other := team + 2*(1-s.Turn)

	var bots [game.NumBots]game.Cell
	bots[me] = s.Bot.Position.Cell()
	bots[other] = s.Other.Position.Cell()
	for i, e := range s.Enemies {
		bots[opp+2*i] = e.Position.Cell()
	}

	var food []game.Cell
	for _, v := range append([]BotView{s.Bot, s.Other}, s.Enemies...) {
		for _, f := range v.Food {
			food = append(food, f.Cell())
		}
	}

	var score [game.NumTeams]int
	score[team] = s.Bot.Score
	score[opp] = s.Enemies[0].Score

	return game.State{
		IsMaxPlayer: true,
		TeamID:      team,
		MeID:        me,
		Bots:        bots,
		Walls:       s.walls(),
		Food:        game.SplitFood(shape, food),
		Shape:       shape,
		Turn:        me,
		Score:       score,
		Round:       s.Round,
	}
}

// SnapshotOf renders what bot slot me observes in state. It is the inverse of
// NewState and is how self-play and tests feed the agent.
func SnapshotOf(matchID string, state game.State, me int) Snapshot {
	team := game.TeamOf(me)
	opp := game.Opponent(team)
	turn := me / 2
	other := team + 2*(1-turn)

	walls := state.Walls.Cells()
	snap := Snapshot{
		MatchID: matchID,
		Team:    team,
		Turn:    turn,
		Round:   state.Round,
		Shape:   Position{int(state.Shape.Width), int(state.Shape.Height)},
		Walls:   make([]Position, len(walls)),
		Bot: BotView{
			Position: PositionOf(state.Bots[me]),
			Score:    state.Score[team],
			Food:     positions(state.Food[team].Cells()),
		},
		Other: BotView{
			Position: PositionOf(state.Bots[other]),
			Score:    state.Score[team],
		},
	}
	for i, w := range walls {
		snap.Walls[i] = PositionOf(w)
	}
	enemyFood := positions(state.Food[opp].Cells())
	for i := 0; i < 2; i++ {
		snap.Enemies = append(snap.Enemies, BotView{
			Position: PositionOf(state.Bots[opp+2*i]),
			Score:    state.Score[opp],
			Food:     enemyFood,
		})
	}
	return snap
}

func positions(cells []game.Cell) []Position {
	out := make([]Position, len(cells))
	for i, c := range cells {
		out[i] = PositionOf(c)
	}
	return out
}
