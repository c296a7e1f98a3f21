package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"morphogen/internal/model"
)

// SeedFactory generates random seed grids. Each cell consumes a fixed draw
// sequence from the shared random source: colour-A coin, colour-B coin, then a
// tie-break coin only when both colours win. The two-state alphabet uses a
// single live coin per cell.
type SeedFactory struct {
	Rand     *rand.Rand
	Alphabet model.Alphabet
	ProbA    float64
	ProbB    float64
	Size     int
}

func (f *SeedFactory) MakeSeed() (model.Grid, error) {
	if f == nil || f.Rand == nil {
		return model.Grid{}, errors.New("random source is required")
	}
	if f.Size <= 0 {
		return model.Grid{}, fmt.Errorf("seed size must be positive: %d", f.Size)
	}

	seed := model.NewGrid(f.Size)
	for i := range seed.Cells {
		if f.Alphabet == model.ThreeState {
			seed.Cells[i] = f.drawThreeState()
		} else if f.Rand.Float64() < f.ProbA {
			seed.Cells[i] = model.ColorA
		}
	}
	return seed, nil
}

func (f *SeedFactory) drawThreeState() model.CellState {
	winA := f.Rand.Float64() < f.ProbA
	winB := f.Rand.Float64() < f.ProbB
	if winA && winB {
		// Both colours won, break the tie with a fair coin.
		if f.Rand.Float64() < 0.5 {
			winA = false
		} else {
			winB = false
		}
	}
	switch {
	case winA:
		return model.ColorA
	case winB:
		return model.ColorB
	default:
		return model.Background
	}
}
