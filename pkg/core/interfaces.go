package core

import (
	"math/rand"
)

// Environment answers an action with a reward or a penalty
type Environment interface {
	// GiveFeedback draws the response to action from r
	GiveFeedback(r *rand.Rand, action ActionIndex) Feedback
}

// Automaton is a learner that picks actions and reacts to rewards
type Automaton interface {
	// ChooseAction samples an action from the current distribution
	ChooseAction(r *rand.Rand) ActionIndex
	// AdjustProbabilities shifts probability mass towards a rewarded action
	AdjustProbabilities(rewarded ActionIndex) error
	// Probabilities returns a copy of the current distribution
	Probabilities() Probabilities
}
