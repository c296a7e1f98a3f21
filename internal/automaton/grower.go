package automaton

import (
	"context"
	"errors"
	"fmt"

	"morphogen/internal/model"
)

var ErrNotConfigured = errors.New("grower has no rule configured")

// Grower realizes seeds as adults: it places a seed at the center of the
// 60x60 torus and advances the configured rule for a fixed number of steps.
// It is deterministic and never modifies the seed.
type Grower struct {
	rule       Rule
	configured bool
}

func NewGrower() *Grower {
	return &Grower{}
}

// Configure parses and installs the rule identifier for subsequent Grow calls.
func (g *Grower) Configure(ruleID string) error {
	rule, err := ParseRule(ruleID)
	if err != nil {
		return err
	}
	g.rule = rule
	g.configured = true
	return nil
}

// Rule returns the configured rule. Only valid after Configure.
func (g *Grower) Rule() Rule {
	return g.rule
}

// Grow runs the automaton for exactly steps transitions and returns the
// resulting 60x60 grid.
func (g *Grower) Grow(ctx context.Context, seed model.Grid, steps int) (model.Grid, error) {
	if !g.configured {
		return model.Grid{}, ErrNotConfigured
	}
	if err := seed.Validate(); err != nil {
		return model.Grid{}, fmt.Errorf("seed: %w", err)
	}
	if seed.Side > model.AdultSize {
		return model.Grid{}, fmt.Errorf("seed side %d exceeds adult size %d", seed.Side, model.AdultSize)
	}
	if steps < 0 {
		return model.Grid{}, fmt.Errorf("steps must be non-negative: %d", steps)
	}
	for _, cell := range seed.Cells {
		if int(cell) >= g.rule.Alphabet.States() {
			return model.Grid{}, fmt.Errorf("seed state %d outside %s alphabet", cell, g.rule.Alphabet)
		}
	}

	grid := placeCentered(seed)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return model.Grid{}, err
		}
		grid = step(grid, g.rule)
	}
	return grid, nil
}

// placeCentered writes the seed onto an empty torus with its top-left corner
// offset by floor(side/2) from the grid center on both axes.
func placeCentered(seed model.Grid) model.Grid {
	grid := model.NewGrid(model.AdultSize)
	origin := model.AdultSize/2 - seed.Side/2
	for row := 0; row < seed.Side; row++ {
		for col := 0; col < seed.Side; col++ {
			grid.Set(origin+row, origin+col, seed.At(row, col))
		}
	}
	return grid
}
