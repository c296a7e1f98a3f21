package evo

import (
	"fmt"

	"morphogen/internal/model"
)

// Population is a fixed-length indexed collection of members. Its length is
// set at bootstrap and never changes. Updates are whole-record replacements,
// with one deliberate exception: SetSeed overwrites only the seed field during
// mutate-and-select, leaving that slot's adult and fitness stale until the
// slot is next replaced.
type Population struct {
	members []model.Member
}

func NewPopulation(members []model.Member) *Population {
	owned := make([]model.Member, len(members))
	copy(owned, members)
	return &Population{members: owned}
}

func (p *Population) Len() int {
	return len(p.members)
}

// Member returns the record at slot i. Grids are shared, not copied; callers
// treat them as immutable values.
func (p *Population) Member(i int) model.Member {
	return p.members[i]
}

func (p *Population) Fitness(i int) int {
	return p.members[i].Fitness
}

// Replace commits a whole-record replacement at slot i.
func (p *Population) Replace(i int, member model.Member) error {
	if err := member.Seed.Validate(); err != nil {
		return fmt.Errorf("slot %d seed: %w", i, err)
	}
	if err := checkAdultGrid(member.Adult); err != nil {
		return fmt.Errorf("slot %d adult: %w", i, err)
	}
	p.members[i] = member
	return nil
}

// SetSeed overwrites only the seed at slot i. The slot's adult and fitness
// become stale relative to the new seed; they are repaired only if the slot
// is later replaced.
func (p *Population) SetSeed(i int, seed model.Grid) {
	p.members[i].Seed = seed.Clone()
}

// Best scans for the most fit member using strict greater-than, so exact ties
// keep the first-seen slot.
func (p *Population) Best() (int, model.Member) {
	bestIdx := 0
	for i := 1; i < len(p.members); i++ {
		if p.members[i].Fitness > p.members[bestIdx].Fitness {
			bestIdx = i
		}
	}
	return bestIdx, p.members[bestIdx]
}
