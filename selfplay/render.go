package selfplay

import (
	"fmt"
	"strings"

	"github.com/brensch/lantern/game"
)

// Render draws the board as text: '#' walls, '.' food, digits for bots.
// When two bots share a cell the higher slot is drawn.
func Render(state game.State) string {
	w, h := int(state.Shape.Width), int(state.Shape.Height)
	grid := make([][]byte, h)
	for y := range grid {
		grid[y] = make([]byte, w)
		for x := range grid[y] {
			c := game.Cell{X: int32(x), Y: int32(y)}
			switch {
			case state.Walls.IsWall(c):
				grid[y][x] = '#'
			case state.Food[0].Has(c) || state.Food[1].Has(c):
				grid[y][x] = '.'
			default:
				grid[y][x] = ' '
			}
		}
	}
	for slot, b := range state.Bots {
		if state.Shape.Contains(b) {
			grid[b.Y][b.X] = byte('0' + slot)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "round %d  turn %d  blue %d  red %d\n", state.Round, state.Turn, state.Score[0], state.Score[1])
	for _, row := range grid {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}
