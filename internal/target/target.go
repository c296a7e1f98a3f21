// Package target builds the five fixed 60x60 patterns a run evolves toward.
// The generators are pure and deterministic; fitness is measured against
// their output, so the exact geometry matters.
package target

import (
	"fmt"

	"morphogen/internal/model"
)

// Generate returns target pattern 1..5 for the given alphabet. The two-state
// patterns reuse the three-state geometry with the second colour replaced by
// background; the two alphabets deliberately disagree on the three- and
// four-band splits.
func Generate(alphabet model.Alphabet, number int) (model.Grid, error) {
	if alphabet == model.ThreeState {
		switch number {
		case 1:
			return quadrants(model.ColorA, model.ColorB, model.ColorB, model.ColorA), nil
		case 2:
			return stripes(band{30, model.ColorA}, band{30, model.ColorB}), nil
		case 3:
			return stripes(band{20, model.ColorA}, band{20, model.ColorB}, band{20, model.ColorA}), nil
		case 4:
			return stripes(band{15, model.ColorA}, band{15, model.ColorB}, band{15, model.ColorA}, band{15, model.ColorB}), nil
		case 5:
			return bowtie(model.ColorB, model.ColorA), nil
		}
	} else {
		switch number {
		case 1:
			return quadrants(model.ColorA, model.Background, model.Background, model.ColorA), nil
		case 2:
			return stripes(band{30, model.ColorA}, band{30, model.Background}), nil
		case 3:
			return stripes(band{20, model.Background}, band{20, model.ColorA}, band{20, model.Background}), nil
		case 4:
			return stripes(band{10, model.Background}, band{15, model.ColorA}, band{10, model.Background}, band{15, model.ColorA}, band{10, model.Background}), nil
		case 5:
			return bowtie(model.ColorA, model.Background), nil
		}
	}
	return model.Grid{}, fmt.Errorf("unknown target number: %d", number)
}

// Label is the run-log name of a target, e.g. "target_3".
func Label(number int) string {
	return fmt.Sprintf("target_%d", number)
}

type band struct {
	width int
	state model.CellState
}

// quadrants fills the four 30x30 quadrants with fixed states.
func quadrants(tl, tr, bl, br model.CellState) model.Grid {
	grid := model.NewGrid(model.AdultSize)
	for row := 0; row < model.AdultSize; row++ {
		for col := 0; col < model.AdultSize; col++ {
			switch {
			case row < 30 && col < 30:
				grid.Set(row, col, tl)
			case row < 30:
				grid.Set(row, col, tr)
			case col < 30:
				grid.Set(row, col, bl)
			default:
				grid.Set(row, col, br)
			}
		}
	}
	return grid
}

// stripes fills vertical bands left to right. Band widths must sum to 60.
func stripes(bands ...band) model.Grid {
	grid := model.NewGrid(model.AdultSize)
	col := 0
	for _, b := range bands {
		for c := col; c < col+b.width; c++ {
			for row := 0; row < model.AdultSize; row++ {
				grid.Set(row, c, b.state)
			}
		}
		col += b.width
	}
	return grid
}

// bowtie splits each 30x30 quadrant along its diagonal: the top quadrants put
// inner on and below the diagonal, the bottom quadrants mirror the
// assignment, producing the hourglass shape.
func bowtie(inner, outer model.CellState) model.Grid {
	grid := model.NewGrid(model.AdultSize)
	for i := 0; i < 30; i++ {
		for j := 0; j < 30; j++ {
			top := outer
			if i >= j {
				top = inner
			}
			grid.Set(i, 29-j, top)
			grid.Set(i, 30+j, top)

			bottom := inner
			if i > j {
				bottom = outer
			}
			grid.Set(30+i, 29-j, bottom)
			grid.Set(30+i, 30+j, bottom)
		}
	}
	return grid
}
