package evo

import (
	"errors"
	"math/rand"

	"morphogen/internal/model"
)

// Mutator perturbs a seed grid cell by cell, returning a new grid. A cell is
// selected for mutation with probability Prob; what happens then depends on
// the alphabet:
//
//   - three-state: the cell switches to one of the two other states, 50/50,
//     so a selected cell always changes;
//   - two-state: the cell flips with probability 0.5 and otherwise keeps its
//     value, so a selected cell may stay the same.
//
// The per-cell draw order is: selection coin, then one choice coin for
// selected cells.
type Mutator struct {
	Rand     *rand.Rand
	Alphabet model.Alphabet
	Prob     float64
}

func (m *Mutator) Mutate(seed model.Grid) (model.Grid, error) {
	if m == nil || m.Rand == nil {
		return model.Grid{}, errors.New("random source is required")
	}
	if err := seed.Validate(); err != nil {
		return model.Grid{}, err
	}

	mutated := model.NewGrid(seed.Side)
	for i, current := range seed.Cells {
		if m.Rand.Float64() >= m.Prob {
			mutated.Cells[i] = current
			continue
		}
		if m.Alphabet == model.ThreeState {
			mutated.Cells[i] = switchThreeState(current, m.Rand.Float64() < 0.5)
		} else {
			mutated.Cells[i] = flipTwoState(current, m.Rand.Float64() < 0.5)
		}
	}
	return mutated, nil
}

// switchThreeState maps a cell to one of the two states it does not currently
// hold. The coin picks between them.
func switchThreeState(current model.CellState, coin bool) model.CellState {
	switch current {
	case model.ColorA:
		if coin {
			return model.ColorB
		}
		return model.Background
	case model.ColorB:
		if coin {
			return model.ColorA
		}
		return model.Background
	default:
		if coin {
			return model.ColorA
		}
		return model.ColorB
	}
}

// flipTwoState flips the cell only when the coin lands true; a selected cell
// keeps its value half the time.
func flipTwoState(current model.CellState, coin bool) model.CellState {
	if !coin {
		return current
	}
	if current == model.Background {
		return model.ColorA
	}
	return model.Background
}
