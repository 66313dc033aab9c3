package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/boristopalov/automata/pkg/core"
)

var csvHeader = []string{"step_size", "accuracy", "average_iterations", "trials", "unconverged"}

// WriteCSV writes the sweep results with a header row
func WriteCSV(w io.Writer, results []core.ExperimentResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			strconv.FormatFloat(r.StepSize, 'g', -1, 64),
			strconv.FormatFloat(r.Accuracy, 'f', 4, 64),
			strconv.FormatFloat(r.AverageIterations, 'f', 2, 64),
			strconv.Itoa(r.Trials),
			strconv.Itoa(r.Unconverged),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
