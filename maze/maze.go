// Package maze parses plain-text maze layouts.
//
// A layout is a block of equal-width rows. '#' is a wall, '.' a food
// pellet, ' ' a free cell, and '0'..'3' (or the letters a, x, b, y) mark the
// starting cell of bot slots 0..3. The outer border must be walls.
package maze

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/rules"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Layout is a parsed maze.
type Layout struct {
	Shape game.Shape
	Walls []game.Cell
	Food  []game.Cell
	Bots  [game.NumBots]game.Cell
}

var botGlyphs = map[rune]int{
	'0': 0, '1': 1, '2': 2, '3': 3,
	'a': 0, 'x': 1, 'b': 2, 'y': 3,
}

// Parse reads a layout. Blank leading and trailing lines are ignored.
// Bots missing from the text are placed on their rules.StartPosition.
func Parse(text string) (Layout, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 3 {
		return Layout{}, fmt.Errorf("%w: need at least 3 rows, got %d", ErrInvalidLayout, len(lines))
	}

	width := len(lines[0])
	if width < 3 {
		return Layout{}, fmt.Errorf("%w: need at least 3 columns, got %d", ErrInvalidLayout, width)
	}

	var l Layout
	l.Shape = game.Shape{Width: int32(width), Height: int32(len(lines))}
	var placed [game.NumBots]bool

	for y, line := range lines {
		if len(line) != width {
			return Layout{}, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidLayout, y, len(line), width)
		}
		for x, ch := range line {
			c := game.Cell{X: int32(x), Y: int32(y)}
			border := x == 0 || y == 0 || x == width-1 || y == len(lines)-1
			if border && ch != '#' {
				return Layout{}, fmt.Errorf("%w: border cell %v is not a wall", ErrInvalidLayout, c)
			}
			switch ch {
			case '#':
				l.Walls = append(l.Walls, c)
			case '.':
				l.Food = append(l.Food, c)
			case ' ':
			default:
				slot, ok := botGlyphs[ch]
				if !ok {
					return Layout{}, fmt.Errorf("%w: unknown glyph %q at %v", ErrInvalidLayout, ch, c)
				}
				if placed[slot] {
					return Layout{}, fmt.Errorf("%w: bot %d placed twice", ErrInvalidLayout, slot)
				}
				placed[slot] = true
				l.Bots[slot] = c
			}
		}
	}

	walls := game.NewWalls(l.Shape, l.Walls)
	for slot := range l.Bots {
		if !placed[slot] {
			l.Bots[slot] = rules.StartPosition(slot, l.Shape)
		}
		if walls.IsWall(l.Bots[slot]) {
			return Layout{}, fmt.Errorf("%w: bot %d starts on a wall at %v", ErrInvalidLayout, slot, l.Bots[slot])
		}
	}
	return l, nil
}

// MustParse is Parse for layouts known to be valid, such as Default.
func MustParse(text string) Layout {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

// State returns the opening position of a match seen from team's side.
// Bot 0 moves first; MeID is the team's first bot.
func (l Layout) State(team int) game.State {
	return game.State{
		IsMaxPlayer: game.TeamOf(0) == team,
		TeamID:      team,
		MeID:        team,
		Bots:        l.Bots,
		Walls:       game.NewWalls(l.Shape, l.Walls),
		Food:        game.SplitFood(l.Shape, l.Food),
		Shape:       l.Shape,
	}
}

// String renders the layout back to text.
func (l Layout) String() string {
	grid := make([][]byte, l.Shape.Height)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", int(l.Shape.Width)))
	}
	for _, c := range l.Walls {
		grid[c.Y][c.X] = '#'
	}
	for _, c := range l.Food {
		grid[c.Y][c.X] = '.'
	}
	for slot, c := range l.Bots {
		grid[c.Y][c.X] = byte('0' + slot)
	}
	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

// Default is a small point-symmetric 16x8 maze with eight pellets a side.
var Default = MustParse(`
################
#.  #.      . 1#
# #   #  #.  #3#
# ..# .    #.  #
#  .#    . #.. #
#2#  .#  #   # #
#0 .      .#  .#
################
`)
