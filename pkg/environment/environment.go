package environment

import (
	"fmt"
	"math/rand"

	"github.com/boristopalov/automata/pkg/core"
)

// Environment is a stationary stochastic environment: each action is
// rewarded with a fixed probability. It holds no mutable state, so a single
// instance can be shared by any number of concurrent trials.
type Environment struct {
	rewardProbs [core.ActionCount]float64
}

// NewEnvironment creates an environment from exactly three reward probabilities
func NewEnvironment(rewardProbs []float64) (*Environment, error) {
	if len(rewardProbs) != core.ActionCount {
		return nil, fmt.Errorf("need %d reward probabilities, got %d", core.ActionCount, len(rewardProbs))
	}

	e := &Environment{}
	for i, p := range rewardProbs {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("reward probability %d out of [0,1]: %v", i, p)
		}
		e.rewardProbs[i] = p
	}
	return e, nil
}

// GiveFeedback rewards action when a uniform draw from r falls below its
// reward probability. Invalid actions are always penalized.
func (e *Environment) GiveFeedback(r *rand.Rand, action core.ActionIndex) core.Feedback {
	roll := r.Float64()
	if !action.Valid() {
		return core.Penalty
	}
	if roll < e.rewardProbs[action] {
		return core.Reward
	}
	return core.Penalty
}

// RewardProbabilities returns a copy of the reward table
func (e *Environment) RewardProbabilities() [core.ActionCount]float64 {
	return e.rewardProbs
}

// BestAction returns the action with the highest reward probability
func (e *Environment) BestAction() core.ActionIndex {
	_, idx := core.Probabilities(e.rewardProbs).Max()
	return idx
}
