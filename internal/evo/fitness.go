package evo

import (
	"errors"
	"fmt"

	"morphogen/internal/model"
)

var ErrDimensionMismatch = errors.New("grid is not 60x60")

// Evaluator scores an adult grid against a target grid.
//
// Three-state mode rewards agreement on live colours and penalizes
// disagreement; any cell pair touching background scores zero. Two-state mode
// counts only cells where the adult is live: live-on-live earns a point,
// live-on-background loses one, and background adult cells contribute nothing
// regardless of the target. True negatives are deliberately not rewarded.
type Evaluator struct {
	Alphabet model.Alphabet
}

func (e Evaluator) Score(adult, target model.Grid) (model.FitnessResult, error) {
	if err := checkAdultGrid(adult); err != nil {
		return model.FitnessResult{}, fmt.Errorf("adult: %w", err)
	}
	if err := checkAdultGrid(target); err != nil {
		return model.FitnessResult{}, fmt.Errorf("target: %w", err)
	}

	var result model.FitnessResult
	if e.Alphabet == model.ThreeState {
		for i, got := range adult.Cells {
			want := target.Cells[i]
			switch {
			case got == model.ColorA && want == model.ColorA:
				result.Fitness++
				result.TrueA++
			case got == model.ColorB && want == model.ColorB:
				result.Fitness++
				result.TrueB++
			case got == model.ColorA && want == model.ColorB:
				result.Fitness--
				result.FalseA--
			case got == model.ColorB && want == model.ColorA:
				result.Fitness--
				result.FalseB--
			}
		}
		return result, nil
	}

	for i, got := range adult.Cells {
		if got != model.ColorA {
			continue
		}
		if target.Cells[i] == model.ColorA {
			result.Fitness++
			result.TrueA++
		} else {
			result.Fitness--
			result.FalseA--
		}
	}
	return result, nil
}

func checkAdultGrid(grid model.Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	if grid.Side != model.AdultSize {
		return fmt.Errorf("%w: side %d", ErrDimensionMismatch, grid.Side)
	}
	return nil
}
