package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/logrusorgru/aurora"

	"github.com/boristopalov/automata/pkg/core"
)

// WriteTable prints one row per step size. With color enabled, accuracy is
// green at or above 0.9, yellow at or above 0.7 and red below, and rows
// with unconverged trials are flagged.
func WriteTable(w io.Writer, results []core.ExperimentResult, color bool) error {
	au := aurora.NewAurora(color)

	header := fmt.Sprintf("%-10s %-10s %-16s %-8s %-12s", "step", "accuracy", "avg iterations", "trials", "unconverged")
	if _, err := fmt.Fprintln(w, au.Bold(header).String()); err != nil {
		return err
	}

	for _, r := range results {
		acc := fmt.Sprintf("%-10.2f", r.Accuracy)
		var accCell aurora.Value
		switch {
		case r.Accuracy >= 0.9:
			accCell = au.Green(acc)
		case r.Accuracy >= 0.7:
			accCell = au.Yellow(acc)
		default:
			accCell = au.Red(acc)
		}

		unconverged := fmt.Sprintf("%-12d", r.Unconverged)
		if r.Unconverged > 0 {
			unconverged = au.Magenta(unconverged).String()
		}

		_, err := fmt.Fprintf(w, "%-10s %s %-16.2f %-8d %s\n",
			strconv.FormatFloat(r.StepSize, 'g', -1, 64),
			accCell.String(),
			r.AverageIterations,
			r.Trials,
			unconverged,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTrajectory prints every n-th snapshot of a single trial's history
func WriteTrajectory(w io.Writer, labels core.ActionSet, history []core.Probabilities, every int) error {
	if every < 1 {
		every = 1
	}
	if _, err := fmt.Fprintf(w, "%-10s %-10s %-10s %-10s\n", "iteration", labels[0], labels[1], labels[2]); err != nil {
		return err
	}
	for i, p := range history {
		if (i+1)%every != 0 && i != len(history)-1 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-10d %-10.4f %-10.4f %-10.4f\n", i+1, p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
