package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/boristopalov/automata/pkg/core"
)

const summaryPrompt = `You are reviewing a simulation of a linear reward-inaction learning automaton with three actions (%s).
The environment rewards each action with probabilities %v; the first action is the correct one.
Each row below aggregates %d independent trials run until one action probability reached %v.

%s
Write three or four sentences interpreting the table: how step size trades convergence speed against accuracy, and anything unusual such as unconverged trials.`

// Completer is any text completion backend
type Completer interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
}

// SummaryInput describes the experiment being summarized
type SummaryInput struct {
	Labels              core.ActionSet
	RewardProbabilities []float64
	Threshold           float64
	Results             []core.ExperimentResult
}

// Summarize asks the completer for a short reading of the results table
func Summarize(ctx context.Context, c Completer, model string, in SummaryInput) (string, error) {
	if len(in.Results) == 0 {
		return "", fmt.Errorf("no results to summarize")
	}

	var table bytes.Buffer
	if err := WriteTable(&table, in.Results, false); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(summaryPrompt,
		strings.Join(in.Labels[:], ", "),
		in.RewardProbabilities,
		in.Results[0].Trials,
		in.Threshold,
		table.String(),
	)

	response, err := c.Complete(ctx, model, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return strings.TrimSpace(response), nil
}
