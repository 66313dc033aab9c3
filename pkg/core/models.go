package core

import (
	"fmt"
	"math"
)

// ActionCount is fixed: the automaton always chooses among three actions.
const ActionCount = 3

// SumTolerance is the allowed drift of a probability vector's sum from 1.
const SumTolerance = 1e-9

// ActionIndex identifies an action by its position in the ActionSet.
type ActionIndex int

// CorrectAction is the designated correct action used for accuracy scoring.
const CorrectAction ActionIndex = 0

// Valid reports whether i addresses one of the three actions.
func (i ActionIndex) Valid() bool {
	return i >= 0 && i < ActionCount
}

// Feedback is the binary environment response to an action.
type Feedback int

const (
	Penalty Feedback = 0
	Reward  Feedback = 1
)

func (f Feedback) String() string {
	if f == Reward {
		return "reward"
	}
	return "penalty"
}

// ActionSet holds the labels of the three actions, in order.
type ActionSet [ActionCount]string

// Label returns the label for the action, or "?" for an invalid index.
func (s ActionSet) Label(i ActionIndex) string {
	if !i.Valid() {
		return "?"
	}
	return s[i]
}

// Probabilities is a categorical distribution over the three actions.
type Probabilities [ActionCount]float64

// Uniform returns equal priors over all actions.
func Uniform() Probabilities {
	var p Probabilities
	for i := range p {
		p[i] = 1.0 / ActionCount
	}
	return p
}

// Sum returns the total probability mass.
func (p Probabilities) Sum() float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s
}

// Max returns the largest probability and the first index attaining it.
func (p Probabilities) Max() (float64, ActionIndex) {
	best, idx := p[0], ActionIndex(0)
	for i := 1; i < ActionCount; i++ {
		if p[i] > best {
			best, idx = p[i], ActionIndex(i)
		}
	}
	return best, idx
}

// Check returns an error if any entry is negative or the vector does not sum to 1.
func (p Probabilities) Check() error {
	for i, v := range p {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("probability of action %d is %v", i, v)
		}
	}
	if s := p.Sum(); math.Abs(s-1) > SumTolerance {
		return fmt.Errorf("probabilities sum to %v", s)
	}
	return nil
}

// TrialResult is the outcome of one convergence trial.
type TrialResult struct {
	ConvergedAction ActionIndex
	Iterations      int
	// Converged is false when the iteration cap ended the trial first.
	Converged bool
	Seed      int64
	// History holds one snapshot per iteration when recording is enabled.
	History []Probabilities
}

// Correct reports whether the trial converged to the designated correct action.
func (r TrialResult) Correct() bool {
	return r.Converged && r.ConvergedAction == CorrectAction
}

// ExperimentResult aggregates all trials run with a single step size.
type ExperimentResult struct {
	StepSize          float64
	Accuracy          float64
	AverageIterations float64
	Trials            int
	Unconverged       int
	// Trajectory is the per-iteration mean probability vector across trials.
	Trajectory []Probabilities
}
