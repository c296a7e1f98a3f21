package automaton

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"morphogen/internal/model"
)

var (
	ErrUnknownRule = errors.New("unknown rule")
	ErrBadTopology = errors.New("unsupported topology")
)

// Rule is a parsed automaton transition rule. Two families are supported:
// the named three-state "Immigration" rule and two-state outer-totalistic
// Life-like rules in B.../S... notation ("B3/S23", "B3/S45678", ...).
// An optional ":T<w>,<h>" suffix names the torus dimensions; it must match
// the fixed adult grid.
type Rule struct {
	Name     string
	Alphabet model.Alphabet

	birth    [9]bool
	survival [9]bool
}

// ParseRule parses a rule identifier such as "Immigration:T60,60" or
// "B3/S45678".
func ParseRule(id string) (Rule, error) {
	base := id
	if idx := strings.Index(id, ":"); idx >= 0 {
		base = id[:idx]
		if err := checkTopology(id[idx+1:]); err != nil {
			return Rule{}, err
		}
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return Rule{}, fmt.Errorf("%w: empty identifier", ErrUnknownRule)
	}

	if strings.EqualFold(base, "Immigration") {
		// The immigration game keeps Conway's counts; births take the
		// majority colour of the three parents.
		rule := Rule{Name: "Immigration", Alphabet: model.ThreeState}
		rule.birth[3] = true
		rule.survival[2] = true
		rule.survival[3] = true
		return rule, nil
	}

	birth, survival, err := parseLifeLike(base)
	if err != nil {
		return Rule{}, err
	}
	return Rule{
		Name:     base,
		Alphabet: model.TwoState,
		birth:    birth,
		survival: survival,
	}, nil
}

// ID returns the canonical identifier including the torus suffix.
func (r Rule) ID() string {
	return fmt.Sprintf("%s:T%d,%d", r.Name, model.AdultSize, model.AdultSize)
}

func (r Rule) Born(liveNeighbors int) bool {
	return liveNeighbors >= 0 && liveNeighbors <= 8 && r.birth[liveNeighbors]
}

func (r Rule) Survives(liveNeighbors int) bool {
	return liveNeighbors >= 0 && liveNeighbors <= 8 && r.survival[liveNeighbors]
}

func parseLifeLike(base string) (birth, survival [9]bool, err error) {
	parts := strings.Split(base, "/")
	if len(parts) != 2 {
		return birth, survival, fmt.Errorf("%w: %s", ErrUnknownRule, base)
	}
	bPart, sPart := parts[0], parts[1]
	if !strings.HasPrefix(bPart, "B") || !strings.HasPrefix(sPart, "S") {
		return birth, survival, fmt.Errorf("%w: %s", ErrUnknownRule, base)
	}
	if birth, err = parseCounts(bPart[1:]); err != nil {
		return birth, survival, fmt.Errorf("rule %s: %w", base, err)
	}
	if survival, err = parseCounts(sPart[1:]); err != nil {
		return birth, survival, fmt.Errorf("rule %s: %w", base, err)
	}
	return birth, survival, nil
}

func parseCounts(digits string) ([9]bool, error) {
	var set [9]bool
	for _, ch := range digits {
		n, err := strconv.Atoi(string(ch))
		if err != nil || n > 8 {
			return set, fmt.Errorf("invalid neighbor count %q", string(ch))
		}
		set[n] = true
	}
	return set, nil
}

func checkTopology(suffix string) error {
	want := fmt.Sprintf("T%d,%d", model.AdultSize, model.AdultSize)
	if suffix != want {
		return fmt.Errorf("%w: %q, want %q", ErrBadTopology, suffix, want)
	}
	return nil
}
