package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"morphogen/internal/model"
)

// RunLog writes the append-only text log of a run and exports grid snapshots
// into the run directory. It implements the engine's reporter hooks; write
// failures are sticky and surfaced through Err after the run.
type RunLog struct {
	dir      string
	alphabet model.Alphabet
	target   int
	rule     string

	file *os.File
	w    io.Writer
	err  error
}

func NewRunLog(runDir string, alphabet model.Alphabet, targetNumber int, rule string) (*RunLog, error) {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("log_file%d.txt", targetNumber)
	file, err := os.OpenFile(filepath.Join(runDir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &RunLog{
		dir:      runDir,
		alphabet: alphabet,
		target:   targetNumber,
		rule:     rule,
		file:     file,
		w:        file,
	}, nil
}

func (l *RunLog) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Err reports the first write failure, if any.
func (l *RunLog) Err() error {
	return l.err
}

// WriteSettings records the run parameters in the log's settings block.
func (l *RunLog) WriteSettings(cfg RunConfig) {
	l.printf("\n")
	l.printf("rule_name        = %s\n", cfg.Rule)
	l.printf("target_number    = %d\n", cfg.TargetNumber)
	l.printf("population_size  = %d\n", cfg.PopulationSize)
	l.printf("sample_size      = %d\n", cfg.SampleSize)
	l.printf("max_births       = %d\n", cfg.MaxBirths)
	l.printf("num_steps        = %d\n", cfg.Steps)
	l.printf("prob_a           = %v\n", cfg.ProbA)
	if l.alphabet == model.ThreeState {
		l.printf("prob_b           = %v\n", cfg.ProbB)
	}
	l.printf("prob_mutation    = %v\n", cfg.ProbMutation)
	l.printf("seed_size        = %d\n", cfg.SeedSize)
	l.printf("adult_size       = %d\n", model.AdultSize)
	l.printf("rand_seed        = %d\n", cfg.Seed)
}

// WriteTarget records which target the run evolves toward.
func (l *RunLog) WriteTarget(label string) {
	l.printf("\ntarget = %s\n\n", label)
}

func (l *RunLog) Progress(birth, bestFitness int) {
	l.printf("birth %d best_fitness %d\n", birth, bestFitness)
}

func (l *RunLog) Improvement(slot int, result model.FitnessResult) {
	l.printf("%d fitness %d\n", slot, result.Fitness)
	l.printf("%d true_a %d\n", slot, result.TrueA)
	if l.alphabet == model.ThreeState {
		l.printf("%d true_b %d\n", slot, result.TrueB)
	}
	l.printf("%d false_a %d\n", slot, result.FalseA)
	if l.alphabet == model.ThreeState {
		l.printf("%d false_b %d\n", slot, result.FalseB)
	}
}

// EmitGrid exports a labeled grid as a Golly RLE pattern plus a PNG render.
func (l *RunLog) EmitGrid(label string, grid model.Grid) {
	base := fmt.Sprintf("photo_%s%d", label, l.target)
	if err := WriteRLE(filepath.Join(l.dir, base+".rle"), grid, l.rule, l.alphabet); err != nil {
		l.fail(err)
		return
	}
	if err := RenderPNG(filepath.Join(l.dir, base+".png"), grid, l.alphabet); err != nil {
		l.fail(err)
	}
}

func (l *RunLog) printf(format string, args ...any) {
	if l.err != nil {
		return
	}
	if _, err := fmt.Fprintf(l.w, format, args...); err != nil {
		l.err = err
	}
}

func (l *RunLog) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}
