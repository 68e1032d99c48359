// Package game defines the core game state types for the maze capture game.
//
// A State is a value: copying it is cheap because walls are shared behind a
// pointer and food sets are never mutated once built. Search code derives
// whole trees of successor states from one root without any locking.
package game

import "fmt"

// Team and slot layout. Bots 0 and 2 belong to team 0 (blue), bots 1 and 3
// to team 1 (red).
const (
	NumBots  = 4
	NumTeams = 2
)

// Cell is a board coordinate.
// (0,0) is the top-left corner and Y grows downward.
type Cell struct {
	X int32
	Y int32
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns c shifted by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Manhattan returns the L1 distance between two cells.
func Manhattan(a, b Cell) int {
	dx := int(a.X - b.X)
	if dx < 0 {
		dx = -dx
	}
	dy := int(a.Y - b.Y)
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Shape is the board size in cells. It is fixed for a whole match.
type Shape struct {
	Width  int32
	Height int32
}

// Contains reports whether c lies on the board.
func (s Shape) Contains(c Cell) bool {
	return c.X >= 0 && c.X < s.Width && c.Y >= 0 && c.Y < s.Height
}

// HomeTeam returns the team whose half contains column x.
func (s Shape) HomeTeam(x int32) int {
	if x < s.Width/2 {
		return 0
	}
	return 1
}

// Walls is an immutable wall bitmap. Cells outside the shape count as walls.
type Walls struct {
	shape Shape
	cells []bool
}

// NewWalls builds a wall bitmap for shape from the given wall cells.
// Cells outside the shape are ignored.
func NewWalls(shape Shape, walls []Cell) *Walls {
	w := &Walls{
		shape: shape,
		cells: make([]bool, int(shape.Width)*int(shape.Height)),
	}
	for _, c := range walls {
		if shape.Contains(c) {
			w.cells[w.index(c)] = true
		}
	}
	return w
}

func (w *Walls) index(c Cell) int {
	return int(c.Y)*int(w.shape.Width) + int(c.X)
}

// Shape returns the board size the bitmap was built for.
func (w *Walls) Shape() Shape { return w.shape }

// IsWall reports whether c is a wall or off the board.
func (w *Walls) IsWall(c Cell) bool {
	if !w.shape.Contains(c) {
		return true
	}
	return w.cells[w.index(c)]
}

// Equal reports whether both bitmaps describe the same maze.
func (w *Walls) Equal(o *Walls) bool {
	if w == o {
		return true
	}
	if w == nil || o == nil || w.shape != o.shape {
		return false
	}
	for i := range w.cells {
		if w.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Cells returns every wall cell in row-major order.
func (w *Walls) Cells() []Cell {
	out := make([]Cell, 0, len(w.cells)/4)
	for y := int32(0); y < w.shape.Height; y++ {
		for x := int32(0); x < w.shape.Width; x++ {
			c := Cell{X: x, Y: y}
			if w.cells[w.index(c)] {
				out = append(out, c)
			}
		}
	}
	return out
}

// State is one complete snapshot of a match.
//
// TeamID is the perspective team that evaluation scores for. IsMaxPlayer
// tells the search whether the ply about to be played belongs to the
// maximising side. Turn indexes Bots and names the bot that moves next.
type State struct {
	IsMaxPlayer bool
	TeamID      int
	MeID        int

	Bots  [NumBots]Cell
	Walls *Walls
	// Food[0] lies on team 0's half and is eaten by team 1; Food[1] the reverse.
	Food  [NumTeams]FoodSet
	Shape Shape

	Turn  int
	Score [NumTeams]int
	Round int
}

// TeamOf returns the team a bot slot belongs to.
func TeamOf(slot int) int { return slot % 2 }

// Opponent returns the other team id.
func Opponent(team int) int { return 1 - team }

// TeamBots returns the two bot slots of a team.
func TeamBots(team int) [2]int { return [2]int{team, team + 2} }
