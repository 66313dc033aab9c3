package experiment

import (
	"github.com/boristopalov/automata/pkg/core"
)

// Aggregate reduces the trials of one step size. Only terminal outcomes
// count towards accuracy: a trial is correct when it converged and the
// winning action is the designated one.
func Aggregate(stepSize float64, trials []core.TrialResult) core.ExperimentResult {
	res := core.ExperimentResult{
		StepSize: stepSize,
		Trials:   len(trials),
	}
	if len(trials) == 0 {
		return res
	}

	correct, total := 0, 0
	for _, t := range trials {
		if t.Correct() {
			correct++
		}
		if !t.Converged {
			res.Unconverged++
		}
		total += t.Iterations
	}

	n := float64(len(trials))
	res.Accuracy = float64(correct) / n
	res.AverageIterations = float64(total) / n
	res.Trajectory = AverageTrajectory(trials)
	return res
}

// AverageTrajectory returns the mean probability vector at each iteration.
// A trial that finished early keeps contributing its final snapshot.
// Trials without history are ignored; nil is returned if none have any.
func AverageTrajectory(trials []core.TrialResult) []core.Probabilities {
	longest, counted := 0, 0
	for _, t := range trials {
		if len(t.History) == 0 {
			continue
		}
		counted++
		longest = max(longest, len(t.History))
	}
	if counted == 0 {
		return nil
	}

	out := make([]core.Probabilities, longest)
	for _, t := range trials {
		if len(t.History) == 0 {
			continue
		}
		last := t.History[len(t.History)-1]
		for i := range out {
			p := last
			if i < len(t.History) {
				p = t.History[i]
			}
			for a := range p {
				out[i][a] += p[a]
			}
		}
	}
	for i := range out {
		for a := range out[i] {
			out[i][a] /= float64(counted)
		}
	}
	return out
}
