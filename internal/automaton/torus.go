package automaton

import "morphogen/internal/model"

// step advances the toroidal grid by one synchronous transition. Neighbor
// counts use the Moore neighborhood with wraparound on both axes.
func step(grid model.Grid, rule Rule) model.Grid {
	side := grid.Side
	next := model.NewGrid(side)
	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			live, countA, countB := neighborhood(grid, row, col)
			current := grid.At(row, col)
			switch {
			case current != model.Background:
				if rule.Survives(live) {
					next.Set(row, col, current)
				}
			case rule.Born(live):
				next.Set(row, col, bornState(rule, countA, countB))
			}
		}
	}
	return next
}

func neighborhood(grid model.Grid, row, col int) (live, countA, countB int) {
	side := grid.Side
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r := (row + dr + side) % side
			c := (col + dc + side) % side
			switch grid.At(r, c) {
			case model.ColorA:
				live++
				countA++
			case model.ColorB:
				live++
				countB++
			}
		}
	}
	return live, countA, countB
}

// bornState picks the state of a newborn cell. Two-state rules only have one
// live state. Under Immigration a birth requires exactly three live parents,
// so one colour always holds a strict majority.
func bornState(rule Rule, countA, countB int) model.CellState {
	if rule.Alphabet == model.TwoState {
		return model.ColorA
	}
	if countA > countB {
		return model.ColorA
	}
	return model.ColorB
}
