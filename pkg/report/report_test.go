package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/automata/pkg/core"
)

var labels = core.ActionSet{"red", "green", "blue"}

func sampleResults() []core.ExperimentResult {
	return []core.ExperimentResult{
		{StepSize: 0.01, Accuracy: 1, AverageIterations: 612.4, Trials: 100},
		{StepSize: 0.5, Accuracy: 0.61, AverageIterations: 5.5, Trials: 100, Unconverged: 2,
			Trajectory: []core.Probabilities{{0.5, 0.25, 0.25}, {0.75, 0.125, 0.125}}},
	}
}

// MockCompleter records the prompt it was given
type MockCompleter struct {
	prompt string
	err    error
}

func (m *MockCompleter) Complete(ctx context.Context, model string, prompt string) (string, error) {
	m.prompt = prompt
	return "  mock summary\n", m.err
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleResults(), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "accuracy")
	assert.True(t, strings.HasPrefix(lines[1], "0.01 "))
	assert.Contains(t, lines[1], "1.00")
	assert.Contains(t, lines[1], "612.40")
	assert.Contains(t, lines[2], "0.61")
	assert.NotContains(t, buf.String(), "\x1b[", "no escape codes without color")

	buf.Reset()
	require.NoError(t, WriteTable(&buf, sampleResults(), true))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	want := "step_size,accuracy,average_iterations,trials,unconverged\n" +
		"0.01,1.0000,612.40,100,0\n" +
		"0.5,0.6100,5.50,100,2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTrajectory(t *testing.T) {
	history := []core.Probabilities{{0.4, 0.3, 0.3}, {0.5, 0.25, 0.25}, {0.6, 0.2, 0.2}}

	var buf bytes.Buffer
	require.NoError(t, WriteTrajectory(&buf, labels, history, 2))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header, iteration 2, and the final iteration
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "green")
	assert.True(t, strings.HasPrefix(lines[1], "2 "))
	assert.True(t, strings.HasPrefix(lines[2], "3 "))
}

func TestRenderPlots(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPlots(&buf, labels, sampleResults()))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "average iterations")
	assert.Contains(t, html, "blue")

	assert.Error(t, RenderPlots(&buf, labels, nil))
}

func TestSummarize(t *testing.T) {
	in := SummaryInput{
		Labels:              labels,
		RewardProbabilities: []float64{0.8, 0.4, 0.2},
		Threshold:           0.9,
		Results:             sampleResults(),
	}

	t.Run("builds prompt from the table", func(t *testing.T) {
		mock := &MockCompleter{}
		summary, err := Summarize(context.Background(), mock, "mock-model", in)
		require.NoError(t, err)
		assert.Equal(t, "mock summary", summary)
		assert.Contains(t, mock.prompt, "red, green, blue")
		assert.Contains(t, mock.prompt, "[0.8 0.4 0.2]")
		assert.Contains(t, mock.prompt, "612.40")
	})

	t.Run("propagates completer errors", func(t *testing.T) {
		boom := errors.New("rate limited")
		_, err := Summarize(context.Background(), &MockCompleter{err: boom}, "mock-model", in)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("rejects empty results", func(t *testing.T) {
		_, err := Summarize(context.Background(), &MockCompleter{}, "mock-model", SummaryInput{})
		assert.Error(t, err)
	})
}
