package model

import "fmt"

// AdultSize is the fixed side length of adult and target grids. The automaton
// runs on a torus of this size and fitness is only defined at this size.
const AdultSize = 60

// CellState is the shared cell alphabet. Exactly one alphabet is active per
// run: {Background, ColorA, ColorB} for the three-state immigration rule or
// {Background, ColorA} for two-state Life-like rules.
type CellState uint8

const (
	Background CellState = 0
	ColorA     CellState = 1
	ColorB     CellState = 2
)

// Alphabet names the closed cell-state set a run operates over.
type Alphabet int

const (
	TwoState Alphabet = iota
	ThreeState
)

func (a Alphabet) States() int {
	if a == ThreeState {
		return 3
	}
	return 2
}

func (a Alphabet) String() string {
	if a == ThreeState {
		return "three_state"
	}
	return "two_state"
}

// Grid is a square grid of cell states in row-major order. Grids are treated
// as values: every transformation allocates a new grid.
type Grid struct {
	Side  int         `json:"side"`
	Cells []CellState `json:"cells"`
}

func NewGrid(side int) Grid {
	return Grid{Side: side, Cells: make([]CellState, side*side)}
}

func (g Grid) At(row, col int) CellState {
	return g.Cells[row*g.Side+col]
}

func (g *Grid) Set(row, col int, state CellState) {
	g.Cells[row*g.Side+col] = state
}

func (g Grid) Clone() Grid {
	out := Grid{Side: g.Side, Cells: make([]CellState, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// Validate checks the cell buffer matches the declared side length.
func (g Grid) Validate() error {
	if g.Side <= 0 {
		return fmt.Errorf("grid side must be positive: %d", g.Side)
	}
	if len(g.Cells) != g.Side*g.Side {
		return fmt.Errorf("grid has %d cells, want %d", len(g.Cells), g.Side*g.Side)
	}
	return nil
}

// Count returns the number of cells holding the given state.
func (g Grid) Count(state CellState) int {
	n := 0
	for _, cell := range g.Cells {
		if cell == state {
			n++
		}
	}
	return n
}

// FitnessResult is the score of one adult grid against a target grid. The
// false counts are stored non-positive so that
// Fitness == TrueA + TrueB + FalseA + FalseB always holds. Two-state scoring
// uses TrueA (live on live) and FalseA (negated live on background) only.
type FitnessResult struct {
	Fitness int `json:"fitness"`
	TrueA   int `json:"true_a"`
	TrueB   int `json:"true_b"`
	FalseA  int `json:"false_a"`
	FalseB  int `json:"false_b"`
}

// Member is one population slot: a seed, the adult grown from it, and the
// adult's fitness against the run target. Replacement is whole-record except
// for the engine's documented seed-only overwrite during mutate-and-select.
type Member struct {
	Seed    Grid `json:"seed"`
	Adult   Grid `json:"adult"`
	Fitness int  `json:"fitness"`
}

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted configuration and outcome of one search run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Rule           string  `json:"rule"`
	TargetNumber   int     `json:"target_number"`
	PopulationSize int     `json:"population_size"`
	SampleSize     int     `json:"sample_size"`
	MaxBirths      int     `json:"max_births"`
	Steps          int     `json:"steps"`
	SeedSize       int     `json:"seed_size"`
	ProbA          float64 `json:"prob_a"`
	ProbB          float64 `json:"prob_b"`
	ProbMutation   float64 `json:"prob_mutation"`
	RandSeed       int64   `json:"rand_seed"`
	BestFitness    int     `json:"best_fitness"`
}

// BestMemberRecord is the persisted best seed/adult pair of a finished run.
type BestMemberRecord struct {
	VersionedRecord
	RunID  string        `json:"run_id"`
	Seed   Grid          `json:"seed"`
	Adult  Grid          `json:"adult"`
	Result FitnessResult `json:"result"`
}
