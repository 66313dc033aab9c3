package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/boristopalov/automata/pkg/automaton"
)

// ErrInvalidConfig wraps every configuration problem found by Validate
var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultThreshold     = 0.9
	DefaultMaxIterations = 1_000_000
	DefaultTrials        = 100
)

type ExperimentConfig struct {
	Name                 string    `yaml:"name"`
	ActionLabels         []string  `yaml:"action_labels"`
	RewardProbabilities  []float64 `yaml:"reward_probabilities"`
	StepSizes            []float64 `yaml:"step_sizes"`
	TrialsPerStepSize    int       `yaml:"trials_per_step_size"`
	ConvergenceThreshold float64   `yaml:"convergence_threshold"`
	// MaxIterations caps a single trial; 0 means unbounded
	MaxIterations int          `yaml:"max_iterations"`
	Seed          int64        `yaml:"seed"`
	Workers       int          `yaml:"workers"`
	Policy        string       `yaml:"policy"`
	RecordHistory bool         `yaml:"record_history"`
	HistoryLimit  int          `yaml:"history_limit"`
	Logging       LogConfig    `yaml:"logging"`
	Output        OutputConfig `yaml:"output"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // "text" or "json"
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	CSV       bool   `yaml:"csv"`
	Plot      bool   `yaml:"plot"`
	Color     bool   `yaml:"color"`
	Summarize bool   `yaml:"summarize"`
	Provider  string `yaml:"provider"` // "openai" or "gemini"
	Model     string `yaml:"model"`
}

// Default returns the red/green/blue experiment with the classic step sweep
func Default() *ExperimentConfig {
	return &ExperimentConfig{
		Name:                 "lri_sweep",
		ActionLabels:         []string{"red", "green", "blue"},
		RewardProbabilities:  []float64{0.8, 0.4, 0.2},
		StepSizes:            []float64{0.01, 0.05, 0.1, 0.2, 0.5},
		TrialsPerStepSize:    DefaultTrials,
		ConvergenceThreshold: DefaultThreshold,
		MaxIterations:        DefaultMaxIterations,
		Seed:                 1,
		Workers:              1,
		Policy:               "proportional",
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Dir:      "results",
			Color:    true,
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults. Unknown keys are rejected.
func LoadConfig(path string) (*ExperimentConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the config as YAML
func (c *ExperimentConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyEnv overrides fields from AUTOMATA_* environment variables
func (c *ExperimentConfig) ApplyEnv() error {
	if v := os.Getenv("AUTOMATA_TRIALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTOMATA_TRIALS: %w", err)
		}
		c.TrialsPerStepSize = n
	}
	if v := os.Getenv("AUTOMATA_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AUTOMATA_SEED: %w", err)
		}
		c.Seed = n
	}
	if v := os.Getenv("AUTOMATA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTOMATA_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("AUTOMATA_POLICY"); v != "" {
		c.Policy = v
	}
	if v := os.Getenv("AUTOMATA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the config before any simulation starts
func (c *ExperimentConfig) Validate() error {
	if len(c.ActionLabels) != 3 {
		return invalid("action_labels: need 3 labels, got %d", len(c.ActionLabels))
	}
	seen := make(map[string]bool, len(c.ActionLabels))
	for _, l := range c.ActionLabels {
		l = strings.TrimSpace(l)
		if l == "" {
			return invalid("action_labels: empty label")
		}
		if seen[l] {
			return invalid("action_labels: duplicate label %q", l)
		}
		seen[l] = true
	}

	if len(c.RewardProbabilities) != 3 {
		return invalid("reward_probabilities: need 3 values, got %d", len(c.RewardProbabilities))
	}
	for i, p := range c.RewardProbabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return invalid("reward_probabilities[%d]: %v not in [0,1]", i, p)
		}
	}

	if len(c.StepSizes) == 0 {
		return invalid("step_sizes: empty")
	}
	for i, s := range c.StepSizes {
		if !(s > 0 && s < 1) {
			return invalid("step_sizes[%d]: %v not in (0,1)", i, s)
		}
	}

	if c.TrialsPerStepSize <= 0 {
		return invalid("trials_per_step_size: must be positive, got %d", c.TrialsPerStepSize)
	}
	if !(c.ConvergenceThreshold > 0 && c.ConvergenceThreshold <= 1) {
		return invalid("convergence_threshold: %v not in (0,1]", c.ConvergenceThreshold)
	}
	if c.MaxIterations < 0 {
		return invalid("max_iterations: must not be negative, got %d", c.MaxIterations)
	}
	if c.Workers < 0 {
		return invalid("workers: must not be negative, got %d", c.Workers)
	}
	if c.HistoryLimit < 0 {
		return invalid("history_limit: must not be negative, got %d", c.HistoryLimit)
	}
	if _, err := automaton.ParsePolicy(c.Policy); err != nil {
		return invalid("policy: %v", err)
	}
	switch c.Output.Provider {
	case "", "openai", "gemini":
	default:
		return invalid("output.provider: unknown provider %q", c.Output.Provider)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
