package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/boristopalov/automata/pkg/core"
	"github.com/boristopalov/automata/pkg/history"
)

// cancelCheckInterval is how many iterations pass between context checks
const cancelCheckInterval = 1024

// Runner drives a single trial until one action's probability reaches the
// threshold, or until MaxIterations is hit.
type Runner struct {
	Threshold float64
	// MaxIterations ends a trial unconverged; 0 means no cap
	MaxIterations int
	RecordHistory bool
	// HistoryLimit bounds the snapshots kept per trial; 0 keeps all
	HistoryLimit int
}

// RunTrial runs the choose/feedback/update loop. A vector that already
// meets the threshold finishes with zero iterations.
func (r Runner) RunTrial(ctx context.Context, a core.Automaton, env core.Environment, rng *rand.Rand) (core.TrialResult, error) {
	var rec *history.Recorder
	if r.RecordHistory {
		rec = history.NewRecorder(r.HistoryLimit)
	}

	largest, best := a.Probabilities().Max()
	iterations := 0
	for largest < r.Threshold {
		if r.MaxIterations > 0 && iterations >= r.MaxIterations {
			return finish(best, iterations, false, rec), nil
		}
		if iterations%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return core.TrialResult{}, ctx.Err()
			default:
			}
		}

		action := a.ChooseAction(rng)
		if env.GiveFeedback(rng, action) == core.Reward {
			if err := a.AdjustProbabilities(action); err != nil {
				return core.TrialResult{}, fmt.Errorf("iteration %d: %w", iterations+1, err)
			}
		}

		p := a.Probabilities()
		largest, best = p.Max()
		iterations++
		if rec != nil {
			rec.Store(p)
		}
	}

	return finish(best, iterations, true, rec), nil
}

func finish(best core.ActionIndex, iterations int, converged bool, rec *history.Recorder) core.TrialResult {
	res := core.TrialResult{
		ConvergedAction: best,
		Iterations:      iterations,
		Converged:       converged,
	}
	if rec != nil {
		res.History = rec.Snapshots()
	}
	return res
}
