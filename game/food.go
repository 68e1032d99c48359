// food.go implements the immutable food sets carried by State.

package game

import "sort"

// FoodSet is an immutable set of food cells. The zero value is empty.
// Without returns a new set and never touches the receiver, so sibling
// states in a search tree can share one set safely.
type FoodSet struct {
	cells map[Cell]struct{}
}

// NewFoodSet builds a set from cells. Duplicates collapse.
func NewFoodSet(cells []Cell) FoodSet {
	m := make(map[Cell]struct{}, len(cells))
	for _, c := range cells {
		m[c] = struct{}{}
	}
	return FoodSet{cells: m}
}

// SplitFood assigns every pellet to the half it lies on: out[0] holds cells
// with X < width/2, out[1] the rest.
func SplitFood(shape Shape, cells []Cell) [NumTeams]FoodSet {
	var halves [NumTeams][]Cell
	for _, c := range cells {
		team := shape.HomeTeam(c.X)
		halves[team] = append(halves[team], c)
	}
	return [NumTeams]FoodSet{NewFoodSet(halves[0]), NewFoodSet(halves[1])}
}

func (f FoodSet) Len() int { return len(f.cells) }

func (f FoodSet) Has(c Cell) bool {
	_, ok := f.cells[c]
	return ok
}

// Without returns a copy of f with c removed. If c is absent f is returned as is.
func (f FoodSet) Without(c Cell) FoodSet {
	if !f.Has(c) {
		return f
	}
	m := make(map[Cell]struct{}, len(f.cells)-1)
	for k := range f.cells {
		if k != c {
			m[k] = struct{}{}
		}
	}
	return FoodSet{cells: m}
}

// Each calls fn for every cell in unspecified order.
func (f FoodSet) Each(fn func(Cell)) {
	for c := range f.cells {
		fn(c)
	}
}

// Cells returns the cells sorted row-major.
func (f FoodSet) Cells() []Cell {
	out := make([]Cell, 0, len(f.cells))
	for c := range f.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
