package automaton

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/automata/pkg/core"
)

func TestNewLearningAutomaton(t *testing.T) {
	a, err := NewLearningAutomaton(0.1)
	require.NoError(t, err)
	assert.Equal(t, core.Uniform(), a.Probabilities())
	assert.Equal(t, Proportional, a.Policy())
	assert.Equal(t, 0.1, a.StepSize())

	for _, step := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
		_, err := NewLearningAutomaton(step)
		assert.Error(t, err, "step %v", step)
	}

	_, err = NewLearningAutomaton(0.1, WithInitialProbabilities(core.Probabilities{0.5, 0.5, 0.5}))
	assert.Error(t, err)
	_, err = NewLearningAutomaton(0.1, WithInitialProbabilities(core.Probabilities{1.2, -0.1, -0.1}))
	assert.Error(t, err)
	_, err = NewLearningAutomaton(0.1, WithPolicy(Policy(7)))
	assert.Error(t, err)
}

func TestChooseActionFrequency(t *testing.T) {
	a, err := NewLearningAutomaton(0.1, WithInitialProbabilities(core.Probabilities{0.8, 0.1, 0.1}))
	require.NoError(t, err)

	r := rand.New(rand.NewSource(7))
	const draws = 100_000
	counts := make([]int, core.ActionCount)
	for i := 0; i < draws; i++ {
		counts[a.ChooseAction(r)]++
	}

	assert.InDelta(t, 0.8, float64(counts[0])/draws, 0.01)
	assert.InDelta(t, 0.1, float64(counts[1])/draws, 0.01)
	assert.InDelta(t, 0.1, float64(counts[2])/draws, 0.01)
}

func TestChooseActionTilesUnitInterval(t *testing.T) {
	// mass drifted below 1: draws past the last boundary still land on the last action
	a := &LearningAutomaton{probs: core.Probabilities{0.0, 0.0, 0.5}, stepSize: 0.1}
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		if got := a.ChooseAction(r); got != 2 {
			t.Fatalf("ChooseAction() = %d, want 2", got)
		}
	}

	a = &LearningAutomaton{probs: core.Probabilities{1, 0, 0}, stepSize: 0.1}
	for i := 0; i < 1000; i++ {
		if got := a.ChooseAction(r); got != 0 {
			t.Fatalf("ChooseAction() = %d, want 0", got)
		}
	}
}

func TestProportionalUpdate(t *testing.T) {
	a, err := NewLearningAutomaton(0.1)
	require.NoError(t, err)
	require.NoError(t, a.AdjustProbabilities(0))

	p := a.Probabilities()
	third := 1.0 / 3
	assert.InDelta(t, third+0.1*(1-third), p[0], 1e-12)
	assert.InDelta(t, third*0.9, p[1], 1e-12)
	assert.InDelta(t, third*0.9, p[2], 1e-12)
	assert.InDelta(t, 1, p.Sum(), core.SumTolerance)
}

func TestEqualSplitUpdate(t *testing.T) {
	t.Run("splits the gain evenly", func(t *testing.T) {
		a, err := NewLearningAutomaton(0.1, WithPolicy(EqualSplit))
		require.NoError(t, err)
		require.NoError(t, a.AdjustProbabilities(0))

		p := a.Probabilities()
		assert.InDelta(t, 0.4, p[0], 1e-12)
		assert.InDelta(t, 0.3, p[1], 1e-12)
		assert.InDelta(t, 0.3, p[2], 1e-12)
	})

	t.Run("guard moves the whole gain to the other action", func(t *testing.T) {
		a, err := NewLearningAutomaton(0.5,
			WithPolicy(EqualSplit),
			WithInitialProbabilities(core.Probabilities{0.5, 0.49, 0.01}),
		)
		require.NoError(t, err)
		require.NoError(t, a.AdjustProbabilities(0))

		p := a.Probabilities()
		assert.InDelta(t, 0.75, p[0], 1e-12)
		assert.InDelta(t, 0.24, p[1], 1e-12)
		assert.InDelta(t, 0.01, p[2], 1e-12)
		assert.InDelta(t, 1, p.Sum(), core.SumTolerance)
	})

	t.Run("guard failure is reported and not committed", func(t *testing.T) {
		start := core.Probabilities{0.94, 0.01, 0.05}
		a, err := NewLearningAutomaton(0.9,
			WithPolicy(EqualSplit),
			WithInitialProbabilities(start),
		)
		require.NoError(t, err)

		err = a.AdjustProbabilities(0)
		assert.True(t, errors.Is(err, ErrInvariantViolation), "got %v", err)
		assert.Equal(t, start, a.Probabilities())
	})
}

func TestUpdateInvariants(t *testing.T) {
	for _, policy := range []Policy{Proportional, EqualSplit} {
		for _, step := range []float64{0.01, 0.05, 0.1, 0.2, 0.5} {
			a, err := NewLearningAutomaton(step, WithPolicy(policy))
			require.NoError(t, err)

			r := rand.New(rand.NewSource(int64(step * 1000)))
			for i := 0; i < 5000; i++ {
				k := core.ActionIndex(r.Intn(core.ActionCount))
				before := a.Probabilities()
				require.NoError(t, a.AdjustProbabilities(k), "%v step %v", policy, step)
				after := a.Probabilities()

				if before[k] < 1 && after[k] <= before[k] {
					t.Fatalf("%v step %v: rewarded action %d did not increase: %v -> %v", policy, step, k, before[k], after[k])
				}
				if err := after.Check(); err != nil {
					t.Fatalf("%v step %v: %v after %d updates", policy, step, err, i+1)
				}
			}
		}
	}
}

func TestAdjustInvalidAction(t *testing.T) {
	a, err := NewLearningAutomaton(0.1)
	require.NoError(t, err)
	assert.Error(t, a.AdjustProbabilities(3))
	assert.Error(t, a.AdjustProbabilities(-1))
	assert.Equal(t, core.Uniform(), a.Probabilities())
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]Policy{
		"":             Proportional,
		"proportional": Proportional,
		"B":            Proportional,
		"equal-split":  EqualSplit,
		"Equal_Split":  EqualSplit,
		"a":            EqualSplit,
	}
	for in, want := range tests {
		got, err := ParsePolicy(in)
		if err != nil {
			t.Errorf("ParsePolicy(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParsePolicy("softmax"); err == nil {
		t.Error("Expected error for unknown policy, got nil")
	}
}
