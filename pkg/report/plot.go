package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/boristopalov/automata/pkg/core"
)

// maxPlotPoints bounds the points drawn per trajectory series
const maxPlotPoints = 500

// RenderPlots writes an HTML page with the sweep chart followed by one
// averaged-trajectory chart per step size that has trajectory data.
func RenderPlots(w io.Writer, labels core.ActionSet, results []core.ExperimentResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to plot")
	}

	page := components.NewPage()
	page.AddCharts(sweepChart(results))
	for _, r := range results {
		if len(r.Trajectory) == 0 {
			continue
		}
		page.AddCharts(trajectoryChart(labels, r))
	}
	return page.Render(w)
}

func sweepChart(results []core.ExperimentResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Accuracy and convergence speed by step size",
			Subtitle: fmt.Sprintf("%d trials per step size", results[0].Trials),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	steps := make([]string, 0, len(results))
	accuracy := make([]opts.LineData, 0, len(results))
	iterations := make([]opts.LineData, 0, len(results))
	for _, r := range results {
		steps = append(steps, strconv.FormatFloat(r.StepSize, 'g', -1, 64))
		accuracy = append(accuracy, opts.LineData{Value: r.Accuracy})
		iterations = append(iterations, opts.LineData{Value: r.AverageIterations})
	}

	line.SetXAxis(steps).
		AddSeries("accuracy", accuracy).
		AddSeries("average iterations", iterations)
	return line
}

func trajectoryChart(labels core.ActionSet, r core.ExperimentResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Mean action probabilities, step size %v", r.StepSize),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	stride := (len(r.Trajectory) + maxPlotPoints - 1) / maxPlotPoints
	var xs []string
	series := make([][]opts.LineData, core.ActionCount)
	for i := 0; i < len(r.Trajectory); i += stride {
		xs = append(xs, strconv.Itoa(i+1))
		for a := range series {
			series[a] = append(series[a], opts.LineData{Value: r.Trajectory[i][a]})
		}
	}

	line.SetXAxis(xs)
	for a, items := range series {
		line.AddSeries(labels[a], items)
	}
	return line
}
