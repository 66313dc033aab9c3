package automaton

import (
	"fmt"
	"strings"
)

// Policy selects how the probability gained by a rewarded action is taken
// from the other two actions. The two policies are not numerically
// equivalent and produce different trajectories.
type Policy int

const (
	// Proportional scales every non-rewarded probability by (1 - step).
	// It cannot produce a negative probability.
	Proportional Policy = iota
	// EqualSplit takes half of the gain from each non-rewarded action. An
	// action that would go negative is left untouched and the other one
	// pays the full gain instead.
	EqualSplit
)

func (p Policy) String() string {
	switch p {
	case Proportional:
		return "proportional"
	case EqualSplit:
		return "equal-split"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config value to a Policy. The empty string selects Proportional.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "proportional", "b":
		return Proportional, nil
	case "equal-split", "equal_split", "a":
		return EqualSplit, nil
	default:
		return 0, fmt.Errorf("unknown update policy %q", s)
	}
}
