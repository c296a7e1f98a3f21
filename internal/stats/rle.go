package stats

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"morphogen/internal/model"
)

// rleLineWidth is the conventional maximum data line length in RLE files.
const rleLineWidth = 70

// EncodeRLE renders a grid as a Golly run-length-encoded pattern. Two-state
// grids use the b/o alphabet; three-state grids use the multi-state ./A/B
// alphabet so both live colors survive the round trip through Golly.
func EncodeRLE(grid model.Grid, rule string, alphabet model.Alphabet) (string, error) {
	if err := grid.Validate(); err != nil {
		return "", err
	}

	multiState := alphabet == model.ThreeState

	var tokens []string
	pendingRows := 0
	for row := 0; row < grid.Side; row++ {
		runs := rowRuns(grid, row, multiState)
		if len(runs) == 0 {
			pendingRows++
			continue
		}
		if pendingRows > 0 {
			tokens = append(tokens, runToken(pendingRows, "$"))
			pendingRows = 0
		}
		tokens = append(tokens, runs...)
		pendingRows = 1
	}
	tokens = append(tokens, "!")

	var out strings.Builder
	fmt.Fprintf(&out, "x = %d, y = %d, rule = %s\n", grid.Side, grid.Side, rule)
	lineLen := 0
	for _, token := range tokens {
		if lineLen+len(token) > rleLineWidth {
			out.WriteByte('\n')
			lineLen = 0
		}
		out.WriteString(token)
		lineLen += len(token)
	}
	out.WriteByte('\n')
	return out.String(), nil
}

// WriteRLE writes a grid to path in Golly RLE format.
func WriteRLE(path string, grid model.Grid, rule string, alphabet model.Alphabet) error {
	encoded, err := EncodeRLE(grid, rule, alphabet)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(encoded), 0o644)
}

// rowRuns encodes one row as run tokens with the trailing background run
// dropped, per RLE convention. An all-background row yields no tokens.
func rowRuns(grid model.Grid, row int, multiState bool) []string {
	var runs []string
	current := grid.At(row, 0)
	count := 1
	flush := func() {
		runs = append(runs, runToken(count, cellSymbol(current, multiState)))
	}
	for col := 1; col < grid.Side; col++ {
		state := grid.At(row, col)
		if state == current {
			count++
			continue
		}
		flush()
		current = state
		count = 1
	}
	if current != model.Background {
		flush()
	} else if len(runs) == 0 {
		return nil
	}
	return runs
}

func runToken(count int, symbol string) string {
	if count == 1 {
		return symbol
	}
	return strconv.Itoa(count) + symbol
}

func cellSymbol(state model.CellState, multiState bool) string {
	if multiState {
		switch state {
		case model.ColorA:
			return "A"
		case model.ColorB:
			return "B"
		default:
			return "."
		}
	}
	if state == model.Background {
		return "b"
	}
	return "o"
}
