package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"morphogen/internal/model"
)

// Oracle is the external growth collaborator: it realizes a seed as a 60x60
// adult grid by running the configured automaton rule for a fixed number of
// steps. Implementations are deterministic and must not modify the seed.
// Growth failures are fatal to the run; the engine never retries.
type Oracle interface {
	Grow(ctx context.Context, seed model.Grid, steps int) (model.Grid, error)
}

// Reporter receives run-report events. All methods are presentation hooks;
// the engine does not depend on their behavior.
type Reporter interface {
	// Progress is called every ReportEvery births with the current best
	// stored fitness.
	Progress(birth, bestFitness int)
	// Improvement is called during finalization for every slot that raises
	// best-fitness-so-far.
	Improvement(slot int, result model.FitnessResult)
	// EmitGrid exports a labeled grid snapshot (target, seed, adult).
	EmitGrid(label string, grid model.Grid)
}

// Config carries the run parameters of the evolutionary search.
type Config struct {
	PopulationSize int
	SampleSize     int
	MaxBirths      int
	Steps          int
	SeedSize       int
	ProbA          float64
	ProbB          float64
	ProbMutation   float64
	ReportEvery    int
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be positive: %d", c.PopulationSize)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample size must be non-negative: %d", c.SampleSize)
	}
	if c.SampleSize > c.PopulationSize {
		return fmt.Errorf("sample size %d exceeds population size %d", c.SampleSize, c.PopulationSize)
	}
	if c.MaxBirths < 0 {
		return fmt.Errorf("max births must be non-negative: %d", c.MaxBirths)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative: %d", c.Steps)
	}
	if c.SeedSize <= 0 || c.SeedSize > model.AdultSize {
		return fmt.Errorf("seed size must be in 1..%d: %d", model.AdultSize, c.SeedSize)
	}
	for _, p := range []float64{c.ProbA, c.ProbB, c.ProbMutation} {
		if p < 0 || p > 1 {
			return fmt.Errorf("probability out of range: %v", p)
		}
	}
	return nil
}

type engineState int

const (
	stateUninitialized engineState = iota
	stateBootstrapping
	stateSteady
	stateFinalized
)

var (
	ErrAlreadyRun      = errors.New("engine has already run")
	ErrNotBootstrapped = errors.New("population is not bootstrapped")
)

// Engine orchestrates the steady-state search: bootstrap, MaxBirths
// birth/death iterations, then a finalization scan. It is single-threaded and
// owns the only random source; the strict per-iteration draw order is the
// reproducibility contract.
type Engine struct {
	cfg      Config
	alphabet model.Alphabet
	target   model.Grid
	oracle   Oracle
	reporter Reporter
	rng      *rand.Rand

	factory *SeedFactory
	mutator *Mutator
	eval    Evaluator

	state engineState
	pop   *Population
}

func NewEngine(cfg Config, alphabet model.Alphabet, target model.Grid, oracle Oracle, rng *rand.Rand, reporter Reporter) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, errors.New("growth oracle is required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := checkAdultGrid(target); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		alphabet: alphabet,
		target:   target,
		oracle:   oracle,
		reporter: reporter,
		rng:      rng,
		factory: &SeedFactory{
			Rand:     rng,
			Alphabet: alphabet,
			ProbA:    cfg.ProbA,
			ProbB:    cfg.ProbB,
			Size:     cfg.SeedSize,
		},
		mutator: &Mutator{
			Rand:     rng,
			Alphabet: alphabet,
			Prob:     cfg.ProbMutation,
		},
		eval: Evaluator{Alphabet: alphabet},
	}, nil
}

// Population exposes the engine's population for inspection. Nil before
// bootstrap.
func (e *Engine) Population() *Population {
	return e.pop
}

// Result is the outcome of the finalization scan. Found is false when no
// member's fitness exceeds zero: the scan starts best-fitness-so-far at zero,
// so a fully non-positive population reports no best member.
type Result struct {
	Found       bool
	BestSlot    int
	Best        model.Member
	BestResult  model.FitnessResult
	BestFitness int
}

// Run performs the complete lifecycle: bootstrap, steady state, finalization.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if err := e.Bootstrap(ctx); err != nil {
		return Result{}, err
	}
	for birth := 0; birth < e.cfg.MaxBirths; birth++ {
		if err := e.Step(ctx); err != nil {
			return Result{}, fmt.Errorf("birth %d: %w", birth, err)
		}
		if e.reporter != nil && e.cfg.ReportEvery > 0 && (birth+1)%e.cfg.ReportEvery == 0 {
			_, best := e.pop.Best()
			e.reporter.Progress(birth+1, best.Fitness)
		}
	}
	return e.Finalize()
}

// Bootstrap builds generation zero: for each slot it draws SampleSize fresh
// seeds, grows and scores each, and keeps the best. Ties go to the last-drawn
// candidate, matching a stable ascending sort where the final element wins.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e.state != stateUninitialized {
		return ErrAlreadyRun
	}
	if e.cfg.SampleSize < 1 {
		return errors.New("bootstrap requires a sample size of at least 1")
	}
	e.state = stateBootstrapping

	members := make([]model.Member, 0, e.cfg.PopulationSize)
	for slot := 0; slot < e.cfg.PopulationSize; slot++ {
		var best model.Member
		for sample := 0; sample < e.cfg.SampleSize; sample++ {
			candidate, err := e.realize(ctx, nil)
			if err != nil {
				return fmt.Errorf("slot %d sample %d: %w", slot, sample, err)
			}
			if sample == 0 || candidate.Fitness >= best.Fitness {
				best = candidate
			}
		}
		members = append(members, best)
	}
	e.pop = NewPopulation(members)
	e.state = stateSteady
	return nil
}

// Step runs one steady-state birth/death iteration.
func (e *Engine) Step(ctx context.Context) error {
	if e.state != stateSteady {
		return ErrNotBootstrapped
	}

	// Two uniform draws decide the comparison loser. The comparison is
	// strict, so on a fitness tie the first-drawn slot loses.
	pos1 := e.rng.Intn(e.pop.Len())
	pos2 := e.rng.Intn(e.pop.Len())
	loser := pos1
	if e.pop.Fitness(pos1) > e.pop.Fitness(pos2) {
		loser = pos2
	}

	seed, err := e.mutateAndSelect()
	if err != nil {
		return err
	}
	child, err := e.realize(ctx, &seed)
	if err != nil {
		return err
	}
	return e.pop.Replace(loser, child)
}

// mutateAndSelect samples the whole population independently of the caller's
// draws: two initial positions plus SampleSize more locate a globally sampled
// most-fit seed and least-fit slot. The most-fit seed is copied over the
// least-fit slot's seed in place (that slot's adult and fitness go stale) and
// a mutated copy is returned.
func (e *Engine) mutateAndSelect() (model.Grid, error) {
	leastPos := e.rng.Intn(e.pop.Len())
	leastVal := e.pop.Fitness(leastPos)
	mostPos := e.rng.Intn(e.pop.Len())
	mostVal := e.pop.Fitness(mostPos)
	for i := 0; i < e.cfg.SampleSize; i++ {
		pos := e.rng.Intn(e.pop.Len())
		val := e.pop.Fitness(pos)
		if val < leastVal {
			leastVal, leastPos = val, pos
		}
		if val > mostVal {
			mostVal, mostPos = val, pos
		}
	}

	e.pop.SetSeed(leastPos, e.pop.Member(mostPos).Seed)
	return e.mutator.Mutate(e.pop.Member(leastPos).Seed)
}

// realize turns a seed into a scored member. A nil seed means a fresh random
// seed from the factory.
func (e *Engine) realize(ctx context.Context, seed *model.Grid) (model.Member, error) {
	var s model.Grid
	if seed == nil {
		fresh, err := e.factory.MakeSeed()
		if err != nil {
			return model.Member{}, err
		}
		s = fresh
	} else {
		s = *seed
	}

	adult, err := e.oracle.Grow(ctx, s, e.cfg.Steps)
	if err != nil {
		return model.Member{}, fmt.Errorf("grow: %w", err)
	}
	result, err := e.eval.Score(adult, e.target)
	if err != nil {
		return model.Member{}, fmt.Errorf("score: %w", err)
	}
	return model.Member{Seed: s, Adult: adult, Fitness: result.Fitness}, nil
}

// Finalize scans the population once, re-scoring every member for report
// fidelity, and tracks the maximum with strict greater-than so ties keep the
// first-seen slot. The best seed and adult are emitted through the reporter
// together with the run target.
func (e *Engine) Finalize() (Result, error) {
	if e.state != stateSteady {
		return Result{}, ErrNotBootstrapped
	}
	e.state = stateFinalized

	result := Result{}
	for k := 0; k < e.pop.Len(); k++ {
		member := e.pop.Member(k)
		scored, err := e.eval.Score(member.Adult, e.target)
		if err != nil {
			return Result{}, fmt.Errorf("slot %d: %w", k, err)
		}
		if scored.Fitness > result.BestFitness {
			result.Found = true
			result.BestSlot = k
			result.Best = member
			result.BestResult = scored
			result.BestFitness = scored.Fitness
			if e.reporter != nil {
				e.reporter.Improvement(k, scored)
			}
		}
	}

	if e.reporter != nil {
		e.reporter.EmitGrid("target", e.target)
		if result.Found {
			e.reporter.EmitGrid("seed", result.Best.Seed)
			e.reporter.EmitGrid("adult", result.Best.Adult)
		}
	}
	return result, nil
}
