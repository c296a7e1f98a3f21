package evo

import (
	"math"
	"math/rand"
	"testing"

	"morphogen/internal/model"
)

func TestMutateRequiresRand(t *testing.T) {
	m := &Mutator{Alphabet: model.ThreeState, Prob: 0.1}
	if _, err := m.Mutate(model.NewGrid(5)); err == nil {
		t.Fatal("nil random source should fail")
	}
}

func TestMutateNeverTouchesInput(t *testing.T) {
	m := &Mutator{Rand: rand.New(rand.NewSource(1)), Alphabet: model.ThreeState, Prob: 1.0}
	seed := model.NewGrid(10)
	for i := range seed.Cells {
		seed.Cells[i] = model.ColorA
	}
	if _, err := m.Mutate(seed); err != nil {
		t.Fatal(err)
	}
	if seed.Count(model.ColorA) != 100 {
		t.Fatal("input grid was modified")
	}
}

func TestMutateZeroProbabilityCopiesThrough(t *testing.T) {
	m := &Mutator{Rand: rand.New(rand.NewSource(2)), Alphabet: model.TwoState, Prob: 0}
	seed := model.NewGrid(8)
	seed.Set(3, 4, model.ColorA)
	out, err := m.Mutate(seed)
	if err != nil {
		t.Fatal(err)
	}
	for i := range seed.Cells {
		if out.Cells[i] != seed.Cells[i] {
			t.Fatal("prob_mutation=0 must copy the seed unchanged")
		}
	}
}

func TestMutateThreeStateAlwaysChanges(t *testing.T) {
	// A selected three-state cell must move to one of the two other states,
	// so an all-background seed at prob 1.0 produces no background cells and
	// a roughly even colour split.
	m := &Mutator{Rand: rand.New(rand.NewSource(5)), Alphabet: model.ThreeState, Prob: 1.0}
	var countA, countB int
	const trials = 50
	for i := 0; i < trials; i++ {
		out, err := m.Mutate(model.NewGrid(20))
		if err != nil {
			t.Fatal(err)
		}
		if out.Count(model.Background) != 0 {
			t.Fatal("mutated all-background seed still contains background")
		}
		countA += out.Count(model.ColorA)
		countB += out.Count(model.ColorB)
	}
	got := float64(countA) / float64(countA+countB)
	if math.Abs(got-0.5) > 0.03 {
		t.Fatalf("colorA share = %.4f, want 0.5 +/- 0.03", got)
	}
}

func TestMutateTwoStateAsymmetry(t *testing.T) {
	// A selected two-state cell flips only half the time: an all-live seed at
	// prob 1.0 keeps roughly half its live cells, unlike the three-state rule
	// where every selected cell changes.
	m := &Mutator{Rand: rand.New(rand.NewSource(9)), Alphabet: model.TwoState, Prob: 1.0}
	live, total := 0, 0
	const trials = 50
	for i := 0; i < trials; i++ {
		seed := model.NewGrid(20)
		for j := range seed.Cells {
			seed.Cells[j] = model.ColorA
		}
		out, err := m.Mutate(seed)
		if err != nil {
			t.Fatal(err)
		}
		live += out.Count(model.ColorA)
		total += len(out.Cells)
	}
	got := float64(live) / float64(total)
	if math.Abs(got-0.5) > 0.03 {
		t.Fatalf("surviving live share = %.4f, want 0.5 +/- 0.03", got)
	}
}

func TestMutateTwoStateBackgroundGainsLive(t *testing.T) {
	m := &Mutator{Rand: rand.New(rand.NewSource(13)), Alphabet: model.TwoState, Prob: 1.0}
	out, err := m.Mutate(model.NewGrid(30))
	if err != nil {
		t.Fatal(err)
	}
	got := float64(out.Count(model.ColorA)) / float64(len(out.Cells))
	if math.Abs(got-0.5) > 0.05 {
		t.Fatalf("flipped-to-live share = %.4f, want 0.5 +/- 0.05", got)
	}
}

func TestSwitchThreeStateTable(t *testing.T) {
	cases := []struct {
		current model.CellState
		coin    bool
		want    model.CellState
	}{
		{model.ColorA, true, model.ColorB},
		{model.ColorA, false, model.Background},
		{model.ColorB, true, model.ColorA},
		{model.ColorB, false, model.Background},
		{model.Background, true, model.ColorA},
		{model.Background, false, model.ColorB},
	}
	for _, tc := range cases {
		if got := switchThreeState(tc.current, tc.coin); got != tc.want {
			t.Fatalf("switchThreeState(%v, %v) = %v, want %v", tc.current, tc.coin, got, tc.want)
		}
	}
}
