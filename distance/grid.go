// Package distance answers shortest-path queries between maze cells.
//
// Grid runs an A* search with the Manhattan heuristic over the free cells of
// a maze. Cache memoises Grid answers in a bounded LRU; evaluation calls it
// for every leaf of the search tree, so most queries are hits.
package distance

import (
	"container/heap"

	"github.com/brensch/lantern/game"
)

// Oracle returns the number of steps from start to end, or false when no path
// exists.
type Oracle interface {
	Distance(start, end game.Cell) (int, bool)
}

var steps = [4]game.Cell{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

// Grid is the graph of non-wall cells of one maze. Every edge costs 1.
type Grid struct {
	walls *game.Walls
}

func NewGrid(walls *game.Walls) *Grid {
	return &Grid{walls: walls}
}

type node struct {
	cell game.Cell
	g    int
	f    int
}

type frontier []node

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	// Deeper nodes first on ties; they are closer to the goal.
	return q[i].g > q[j].g
}
func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x any)   { *q = append(*q, x.(node)) }
func (q *frontier) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// Distance runs A* from start to end. Either endpoint being a wall or off the
// board means no path. The stay edge of each cell is left out: a self loop
// can never shorten a path.
func (g *Grid) Distance(start, end game.Cell) (int, bool) {
	if g.walls.IsWall(start) || g.walls.IsWall(end) {
		return 0, false
	}
	if start == end {
		return 0, true
	}

	shape := g.walls.Shape()
	width := int(shape.Width)
	index := func(c game.Cell) int { return int(c.Y)*width + int(c.X) }

	best := make([]int32, width*int(shape.Height))
	for i := range best {
		best[i] = -1
	}
	closed := make([]bool, len(best))

	open := frontier{{cell: start, g: 0, f: game.Manhattan(start, end)}}
	best[index(start)] = 0

	for open.Len() > 0 {
		cur := heap.Pop(&open).(node)
		ci := index(cur.cell)
		if closed[ci] {
			continue
		}
		if cur.cell == end {
			return cur.g, true
		}
		closed[ci] = true

		for _, d := range steps {
			next := cur.cell.Add(d)
			if g.walls.IsWall(next) {
				continue
			}
			ni := index(next)
			ng := cur.g + 1
			if closed[ni] || (best[ni] >= 0 && int(best[ni]) <= ng) {
				continue
			}
			best[ni] = int32(ng)
			heap.Push(&open, node{cell: next, g: ng, f: ng + game.Manhattan(next, end)})
		}
	}
	return 0, false
}
