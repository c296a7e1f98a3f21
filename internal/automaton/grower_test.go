package automaton

import (
	"context"
	"testing"

	"morphogen/internal/model"
)

func mustGrower(t *testing.T, ruleID string) *Grower {
	t.Helper()
	g := NewGrower()
	if err := g.Configure(ruleID); err != nil {
		t.Fatalf("Configure(%q): %v", ruleID, err)
	}
	return g
}

func TestGrowRequiresConfigure(t *testing.T) {
	g := NewGrower()
	if _, err := g.Grow(context.Background(), model.NewGrid(10), 1); err != ErrNotConfigured {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestGrowZeroStepsPlacesSeedCentered(t *testing.T) {
	g := mustGrower(t, "B3/S23")
	seed := model.NewGrid(20)
	seed.Set(0, 0, model.ColorA)
	seed.Set(19, 19, model.ColorA)

	adult, err := g.Grow(context.Background(), seed, 0)
	if err != nil {
		t.Fatal(err)
	}
	if adult.Side != model.AdultSize {
		t.Fatalf("adult side = %d, want %d", adult.Side, model.AdultSize)
	}
	// 20x20 seed: top-left corner lands at 30-10=20.
	if adult.At(20, 20) != model.ColorA {
		t.Fatal("seed top-left corner not at (20,20)")
	}
	if adult.At(39, 39) != model.ColorA {
		t.Fatal("seed bottom-right corner not at (39,39)")
	}
	if got := adult.Count(model.ColorA); got != 2 {
		t.Fatalf("adult live count = %d, want 2", got)
	}
}

func TestGrowBlockIsStillLife(t *testing.T) {
	g := mustGrower(t, "B3/S23:T60,60")
	seed := model.NewGrid(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			seed.Set(i, j, model.ColorA)
		}
	}
	adult, err := g.Grow(context.Background(), seed, 25)
	if err != nil {
		t.Fatal(err)
	}
	if got := adult.Count(model.ColorA); got != 4 {
		t.Fatalf("block decayed: live count = %d, want 4", got)
	}
	// The 2x2 seed is placed with its top-left at 29.
	for _, rc := range [][2]int{{29, 29}, {29, 30}, {30, 29}, {30, 30}} {
		if adult.At(rc[0], rc[1]) != model.ColorA {
			t.Fatalf("block cell (%d,%d) not live", rc[0], rc[1])
		}
	}
}

func TestGrowBlinkerOscillates(t *testing.T) {
	g := mustGrower(t, "B3/S23")
	seed := model.NewGrid(3)
	seed.Set(1, 0, model.ColorA)
	seed.Set(1, 1, model.ColorA)
	seed.Set(1, 2, model.ColorA)

	odd, err := g.Grow(context.Background(), seed, 1)
	if err != nil {
		t.Fatal(err)
	}
	even, err := g.Grow(context.Background(), seed, 2)
	if err != nil {
		t.Fatal(err)
	}
	if odd.Count(model.ColorA) != 3 || even.Count(model.ColorA) != 3 {
		t.Fatal("blinker lost cells")
	}
	// After one step the horizontal blinker is vertical, after two it is back.
	start, _ := g.Grow(context.Background(), seed, 0)
	for i := range even.Cells {
		if even.Cells[i] != start.Cells[i] {
			t.Fatal("period-2 oscillator did not return to the start state")
		}
	}
	same := true
	for i := range odd.Cells {
		if odd.Cells[i] != start.Cells[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("blinker did not change after one step")
	}
}

func TestGrowImmigrationBirthTakesMajorityColor(t *testing.T) {
	g := mustGrower(t, "Immigration:T60,60")
	// Two ColorA parents and one ColorB parent in an L shape around (30,30):
	// the corner cell is born with three live neighbors, majority ColorA.
	seed := model.NewGrid(3)
	seed.Set(0, 0, model.ColorA)
	seed.Set(0, 1, model.ColorA)
	seed.Set(1, 0, model.ColorB)

	adult, err := g.Grow(context.Background(), seed, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Seed top-left lands at 30-1=29, so the corner closing the square is (30,30).
	if got := adult.At(30, 30); got != model.ColorA {
		t.Fatalf("born cell = %v, want ColorA", got)
	}
}

func TestStepWrapsAroundTorus(t *testing.T) {
	rule, err := ParseRule("B3/S23")
	if err != nil {
		t.Fatal(err)
	}
	// A 2x2 block straddling all four corners is a still life only if
	// neighbor counting wraps on both axes.
	grid := model.NewGrid(model.AdultSize)
	last := model.AdultSize - 1
	for _, rc := range [][2]int{{0, 0}, {0, last}, {last, 0}, {last, last}} {
		grid.Set(rc[0], rc[1], model.ColorA)
	}
	next := step(grid, rule)
	for i := range grid.Cells {
		if next.Cells[i] != grid.Cells[i] {
			t.Fatal("corner block is not stable, torus wrap is broken")
		}
	}
}

func TestGrowRejectsBadSeeds(t *testing.T) {
	g := mustGrower(t, "B3/S23")
	if _, err := g.Grow(context.Background(), model.Grid{Side: 3, Cells: make([]model.CellState, 4)}, 1); err == nil {
		t.Fatal("mismatched cell buffer should fail")
	}
	if _, err := g.Grow(context.Background(), model.NewGrid(61), 1); err == nil {
		t.Fatal("oversized seed should fail")
	}
	bad := model.NewGrid(4)
	bad.Set(0, 0, model.ColorB)
	if _, err := g.Grow(context.Background(), bad, 1); err == nil {
		t.Fatal("ColorB seed under a two-state rule should fail")
	}
	if _, err := g.Grow(context.Background(), model.NewGrid(4), -1); err == nil {
		t.Fatal("negative steps should fail")
	}
}

func TestGrowHonorsContextCancellation(t *testing.T) {
	g := mustGrower(t, "B3/S23")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Grow(ctx, model.NewGrid(10), 5); err == nil {
		t.Fatal("cancelled context should abort growth")
	}
}

func TestGrowIsDeterministic(t *testing.T) {
	g := mustGrower(t, "Immigration")
	seed := model.NewGrid(10)
	states := []model.CellState{model.Background, model.ColorA, model.ColorB}
	for i := range seed.Cells {
		seed.Cells[i] = states[(i*7)%3]
	}
	a, err := g.Grow(context.Background(), seed, 40)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Grow(context.Background(), seed, 40)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Cells {
		if a.Cells[i] != b.Cells[i] {
			t.Fatal("two growths of the same seed diverged")
		}
	}
}
