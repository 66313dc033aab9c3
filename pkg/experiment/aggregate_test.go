package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boristopalov/automata/pkg/core"
)

func TestAggregate(t *testing.T) {
	trials := []core.TrialResult{
		{ConvergedAction: 0, Iterations: 10, Converged: true},
		{ConvergedAction: 1, Iterations: 20, Converged: true},
		{ConvergedAction: 0, Iterations: 30, Converged: false},
		{ConvergedAction: 0, Iterations: 40, Converged: true},
	}

	res := Aggregate(0.2, trials)
	assert.Equal(t, 0.2, res.StepSize)
	assert.Equal(t, 4, res.Trials)
	// the capped trial leads on action 0 but is not a terminal outcome
	assert.Equal(t, 0.5, res.Accuracy)
	assert.Equal(t, 25.0, res.AverageIterations)
	assert.Equal(t, 1, res.Unconverged)
	assert.Nil(t, res.Trajectory)

	empty := Aggregate(0.1, nil)
	assert.Equal(t, 0, empty.Trials)
	assert.Equal(t, 0.0, empty.Accuracy)
}

func TestAverageTrajectory(t *testing.T) {
	trials := []core.TrialResult{
		{History: []core.Probabilities{{0.4, 0.3, 0.3}, {0.6, 0.2, 0.2}}},
		{History: []core.Probabilities{{0.2, 0.4, 0.4}}},
		{}, // converged immediately, no snapshots
	}

	got := AverageTrajectory(trials)
	want := []core.Probabilities{{0.3, 0.35, 0.35}, {0.4, 0.3, 0.3}}
	if assert.Len(t, got, len(want)) {
		for i := range want {
			for a := range want[i] {
				assert.InDelta(t, want[i][a], got[i][a], 1e-12, "iteration %d action %d", i, a)
			}
		}
	}

	assert.Nil(t, AverageTrajectory([]core.TrialResult{{}, {}}))
}

func TestDeriveSeed(t *testing.T) {
	seen := make(map[int64]bool)
	for step := 0; step < 5; step++ {
		for trial := 0; trial < 1000; trial++ {
			s := DeriveSeed(1, step, trial)
			if seen[s] {
				t.Fatalf("seed collision at step %d trial %d", step, trial)
			}
			seen[s] = true
			if s != DeriveSeed(1, step, trial) {
				t.Fatalf("DeriveSeed is not deterministic")
			}
		}
	}

	if DeriveSeed(1, 0, 0) == DeriveSeed(2, 0, 0) {
		t.Error("different base seeds produced the same trial seed")
	}
}
