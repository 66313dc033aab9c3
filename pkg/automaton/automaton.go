package automaton

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/boristopalov/automata/pkg/core"
)

// ErrInvariantViolation is returned when an update would leave the
// probabilities outside a valid distribution.
var ErrInvariantViolation = errors.New("probability invariant violated")

// LearningAutomaton is a linear reward-inaction automaton over three actions
type LearningAutomaton struct {
	probs    core.Probabilities
	stepSize float64
	policy   Policy
}

type Params struct {
	Policy        Policy
	Probabilities core.Probabilities
}

type Option func(*Params)

func WithPolicy(p Policy) Option {
	return func(params *Params) {
		params.Policy = p
	}
}

// WithInitialProbabilities replaces the equal priors
func WithInitialProbabilities(p core.Probabilities) Option {
	return func(params *Params) {
		params.Probabilities = p
	}
}

func defaultParams() *Params {
	return &Params{
		Policy:        Proportional,
		Probabilities: core.Uniform(),
	}
}

// NewLearningAutomaton creates an automaton with the given step size
func NewLearningAutomaton(stepSize float64, opts ...Option) (*LearningAutomaton, error) {
	if !(stepSize > 0 && stepSize < 1) {
		return nil, fmt.Errorf("step size must be in (0,1), got %v", stepSize)
	}

	params := defaultParams()
	for _, opt := range opts {
		opt(params)
	}

	if err := params.Probabilities.Check(); err != nil {
		return nil, fmt.Errorf("invalid initial probabilities: %w", err)
	}
	if params.Policy != Proportional && params.Policy != EqualSplit {
		return nil, fmt.Errorf("unknown update policy %v", params.Policy)
	}

	return &LearningAutomaton{
		probs:    params.Probabilities,
		stepSize: stepSize,
		policy:   params.Policy,
	}, nil
}

func (a *LearningAutomaton) StepSize() float64 {
	return a.stepSize
}

func (a *LearningAutomaton) Policy() Policy {
	return a.policy
}

// Probabilities returns a copy of the current distribution
func (a *LearningAutomaton) Probabilities() core.Probabilities {
	return a.probs
}

// ChooseAction samples an action by inverse CDF: [0,1) is tiled by
// intervals whose boundaries are running sums of the probabilities in
// action order. A draw past the last boundary, possible only through
// floating point drift, selects the last action.
func (a *LearningAutomaton) ChooseAction(r *rand.Rand) core.ActionIndex {
	u := r.Float64()
	cumulative := 0.0
	for i := 0; i < core.ActionCount-1; i++ {
		cumulative += a.probs[i]
		if u < cumulative {
			return core.ActionIndex(i)
		}
	}
	return core.ActionIndex(core.ActionCount - 1)
}

// AdjustProbabilities applies p[k] += step*(1-p[k]) to the rewarded action
// and removes the same mass from the other two according to the policy.
// It must only be called after a reward; penalties leave the state alone.
func (a *LearningAutomaton) AdjustProbabilities(rewarded core.ActionIndex) error {
	if !rewarded.Valid() {
		return fmt.Errorf("invalid action %d", rewarded)
	}

	var next core.Probabilities
	var err error
	switch a.policy {
	case EqualSplit:
		next, err = equalSplit(a.probs, rewarded, a.stepSize)
	default:
		next = proportional(a.probs, rewarded, a.stepSize)
	}
	if err != nil {
		return err
	}

	a.probs = next
	return nil
}

func proportional(p core.Probabilities, k core.ActionIndex, step float64) core.Probabilities {
	next := p
	for i := range next {
		if core.ActionIndex(i) == k {
			next[i] = p[i] + step*(1-p[i])
		} else {
			next[i] = p[i] * (1 - step)
		}
	}
	return next
}

func equalSplit(p core.Probabilities, k core.ActionIndex, step float64) (core.Probabilities, error) {
	gain := step * (1 - p[k])
	half := gain / 2

	others := make([]int, 0, core.ActionCount-1)
	for i := range p {
		if core.ActionIndex(i) != k {
			others = append(others, i)
		}
	}

	next := p
	next[k] = p[k] + gain

	x, y := others[0], others[1]
	xNeg, yNeg := p[x]-half < 0, p[y]-half < 0
	switch {
	case xNeg && yNeg:
		return p, fmt.Errorf("%w: neither action %d nor %d can give up %v", ErrInvariantViolation, x, y, half)
	case xNeg:
		next[y] = p[y] - gain
	case yNeg:
		next[x] = p[x] - gain
	default:
		next[x] = p[x] - half
		next[y] = p[y] - half
	}

	if err := next.Check(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return next, nil
}
