package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"morphogen/internal/model"
	"morphogen/internal/target"
)

// centerOracle is a deterministic stand-in for the automaton: it places the
// seed at the center of an otherwise empty 60x60 grid.
type centerOracle struct {
	grown []model.Grid
}

func (o *centerOracle) Grow(_ context.Context, seed model.Grid, _ int) (model.Grid, error) {
	adult := model.NewGrid(model.AdultSize)
	origin := model.AdultSize/2 - seed.Side/2
	for row := 0; row < seed.Side; row++ {
		for col := 0; col < seed.Side; col++ {
			adult.Set(origin+row, origin+col, seed.At(row, col))
		}
	}
	o.grown = append(o.grown, seed.Clone())
	return adult, nil
}

// blankOracle ignores the seed and returns an all-background adult, pinning
// every fitness at zero.
type blankOracle struct {
	grown []model.Grid
}

func (o *blankOracle) Grow(_ context.Context, seed model.Grid, _ int) (model.Grid, error) {
	o.grown = append(o.grown, seed.Clone())
	return model.NewGrid(model.AdultSize), nil
}

type failingOracle struct{}

func (failingOracle) Grow(context.Context, model.Grid, int) (model.Grid, error) {
	return model.Grid{}, errors.New("simulation host unavailable")
}

type recordingReporter struct {
	progress     []int
	improvements []int
	emitted      []string
}

func (r *recordingReporter) Progress(birth, _ int) {
	r.progress = append(r.progress, birth)
}

func (r *recordingReporter) Improvement(slot int, _ model.FitnessResult) {
	r.improvements = append(r.improvements, slot)
}

func (r *recordingReporter) EmitGrid(label string, _ model.Grid) {
	r.emitted = append(r.emitted, label)
}

func testConfig() Config {
	return Config{
		PopulationSize: 12,
		SampleSize:     4,
		MaxBirths:      30,
		Steps:          0,
		SeedSize:       20,
		ProbA:          0.3,
		ProbB:          0.3,
		ProbMutation:   0.1,
	}
}

func mustTarget(t *testing.T, alphabet model.Alphabet, number int) model.Grid {
	t.Helper()
	grid, err := target.Generate(alphabet, number)
	if err != nil {
		t.Fatal(err)
	}
	return grid
}

func newTestEngine(t *testing.T, cfg Config, seed int64, reporter Reporter) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, model.ThreeState, mustTarget(t, model.ThreeState, 2), &centerOracle{}, rand.New(rand.NewSource(seed)), reporter)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"zero population", func(c *Config) { c.PopulationSize = 0 }, false},
		{"negative sample", func(c *Config) { c.SampleSize = -1 }, false},
		{"sample exceeds population", func(c *Config) { c.SampleSize = c.PopulationSize + 1 }, false},
		{"negative births", func(c *Config) { c.MaxBirths = -1 }, false},
		{"negative steps", func(c *Config) { c.Steps = -1 }, false},
		{"zero seed size", func(c *Config) { c.SeedSize = 0 }, false},
		{"oversized seed", func(c *Config) { c.SeedSize = model.AdultSize + 1 }, false},
		{"bad probability", func(c *Config) { c.ProbMutation = 1.5 }, false},
		{"sample may equal population", func(c *Config) { c.SampleSize = c.PopulationSize }, true},
	}
	for _, tc := range cases {
		cfg := testConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNewEngineRejectsBadTarget(t *testing.T) {
	_, err := NewEngine(testConfig(), model.ThreeState, model.NewGrid(30), &centerOracle{}, rand.New(rand.NewSource(1)), nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
}

func TestBootstrapFillsEverySlot(t *testing.T) {
	engine := newTestEngine(t, testConfig(), 1, nil)
	if err := engine.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	pop := engine.Population()
	if pop.Len() != 12 {
		t.Fatalf("population length = %d, want 12", pop.Len())
	}
	for i := 0; i < pop.Len(); i++ {
		member := pop.Member(i)
		if member.Seed.Side != 20 {
			t.Fatalf("slot %d seed side = %d", i, member.Seed.Side)
		}
		if member.Adult.Side != model.AdultSize {
			t.Fatalf("slot %d adult side = %d", i, member.Adult.Side)
		}
	}
}

func TestBootstrapTiesKeepLastCandidate(t *testing.T) {
	// The blank oracle scores every candidate at zero, so the surviving seed
	// must be the last of the sample, matching the ascending stable sort.
	cfg := testConfig()
	cfg.PopulationSize = 1
	cfg.SampleSize = 3
	oracle := &blankOracle{}
	engine, err := NewEngine(cfg, model.ThreeState, mustTarget(t, model.ThreeState, 2), oracle, rand.New(rand.NewSource(4)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(oracle.grown) != 3 {
		t.Fatalf("grew %d candidates, want 3", len(oracle.grown))
	}
	kept := engine.Population().Member(0).Seed
	last := oracle.grown[2]
	for i := range kept.Cells {
		if kept.Cells[i] != last.Cells[i] {
			t.Fatal("tie did not keep the last-drawn candidate")
		}
	}
}

func TestBootstrapRequiresSample(t *testing.T) {
	cfg := testConfig()
	cfg.SampleSize = 0
	engine := newTestEngine(t, cfg, 1, nil)
	if err := engine.Bootstrap(context.Background()); err == nil {
		t.Fatal("sample size 0 should fail bootstrap")
	}
}

func TestStepRequiresBootstrap(t *testing.T) {
	engine := newTestEngine(t, testConfig(), 1, nil)
	if err := engine.Step(context.Background()); !errors.Is(err, ErrNotBootstrapped) {
		t.Fatalf("want ErrNotBootstrapped, got %v", err)
	}
}

func TestPopulationLengthInvariantAcrossBirths(t *testing.T) {
	engine := newTestEngine(t, testConfig(), 2, nil)
	if err := engine.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	for birth := 0; birth < 30; birth++ {
		if err := engine.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
		if engine.Population().Len() != 12 {
			t.Fatalf("birth %d: population length = %d", birth, engine.Population().Len())
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() (Result, []model.Member) {
		engine := newTestEngine(t, testConfig(), 99, nil)
		result, err := engine.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		pop := engine.Population()
		members := make([]model.Member, pop.Len())
		for i := range members {
			members[i] = pop.Member(i)
		}
		return result, members
	}

	resultA, popA := run()
	resultB, popB := run()
	if resultA.BestFitness != resultB.BestFitness || resultA.BestSlot != resultB.BestSlot {
		t.Fatalf("results diverged: %+v vs %+v", resultA, resultB)
	}
	for i := range popA {
		if popA[i].Fitness != popB[i].Fitness {
			t.Fatalf("slot %d fitness diverged", i)
		}
		for j := range popA[i].Seed.Cells {
			if popA[i].Seed.Cells[j] != popB[i].Seed.Cells[j] {
				t.Fatalf("slot %d seed diverged", i)
			}
		}
		for j := range popA[i].Adult.Cells {
			if popA[i].Adult.Cells[j] != popB[i].Adult.Cells[j] {
				t.Fatalf("slot %d adult diverged", i)
			}
		}
	}
}

func TestRunCannotBeRepeated(t *testing.T) {
	engine := newTestEngine(t, testConfig(), 3, nil)
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("want ErrAlreadyRun, got %v", err)
	}
}

func TestRunReportsProgressAndEmitsGrids(t *testing.T) {
	reporter := &recordingReporter{}
	cfg := testConfig()
	cfg.ReportEvery = 10
	engine := newTestEngine(t, cfg, 6, reporter)
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	wantProgress := []int{10, 20, 30}
	if len(reporter.progress) != len(wantProgress) {
		t.Fatalf("progress calls = %v, want %v", reporter.progress, wantProgress)
	}
	for i, birth := range wantProgress {
		if reporter.progress[i] != birth {
			t.Fatalf("progress calls = %v, want %v", reporter.progress, wantProgress)
		}
	}
	if !result.Found {
		t.Fatal("striped target with centered seeds should produce a positive best")
	}
	if len(reporter.emitted) != 3 || reporter.emitted[0] != "target" || reporter.emitted[1] != "seed" || reporter.emitted[2] != "adult" {
		t.Fatalf("emitted = %v, want [target seed adult]", reporter.emitted)
	}
	if len(reporter.improvements) == 0 {
		t.Fatal("finalization should report at least one improvement")
	}
}

func TestFinalizeWithoutPositiveFitness(t *testing.T) {
	reporter := &recordingReporter{}
	cfg := testConfig()
	cfg.MaxBirths = 5
	engine, err := NewEngine(cfg, model.ThreeState, mustTarget(t, model.ThreeState, 2), &blankOracle{}, rand.New(rand.NewSource(8)), reporter)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Found {
		t.Fatal("all-zero fitness must not report a best member")
	}
	if len(reporter.emitted) != 1 || reporter.emitted[0] != "target" {
		t.Fatalf("emitted = %v, want only the target", reporter.emitted)
	}
	if len(reporter.improvements) != 0 {
		t.Fatalf("improvements = %v, want none", reporter.improvements)
	}
}

func TestGrowthFailureIsFatal(t *testing.T) {
	engine, err := NewEngine(testConfig(), model.ThreeState, mustTarget(t, model.ThreeState, 2), failingOracle{}, rand.New(rand.NewSource(1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Bootstrap(context.Background()); err == nil {
		t.Fatal("oracle failure must abort the run")
	}
}
