package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/boristopalov/automata/internal/logging"
	"github.com/boristopalov/automata/pkg/automaton"
	"github.com/boristopalov/automata/pkg/config"
	"github.com/boristopalov/automata/pkg/core"
	"github.com/boristopalov/automata/pkg/environment"
	"github.com/boristopalov/automata/pkg/messaging"
)

// Harness sweeps the configured step sizes, running many independent
// trials for each and aggregating accuracy and convergence speed.
type Harness struct {
	id        string
	name      string
	labels    core.ActionSet
	stepSizes []float64
	trials    int
	seed      int64
	workers   int
	policy    automaton.Policy
	env       *environment.Environment
	runner    Runner
	logger    logrus.FieldLogger
	broker    messaging.Broker

	mu     sync.RWMutex
	status Status
}

// Status reports whether a run is in progress and how far it got
type Status struct {
	Running         bool
	StartTime       time.Time
	EndTime         time.Time
	CompletedSweeps int
}

type HarnessParams struct {
	RunID  string
	Logger logrus.FieldLogger
	Broker messaging.Broker
}

type HarnessOption func(*HarnessParams)

func WithRunID(id string) HarnessOption {
	return func(p *HarnessParams) {
		p.RunID = id
	}
}

func WithLogger(l logrus.FieldLogger) HarnessOption {
	return func(p *HarnessParams) {
		p.Logger = l
	}
}

// WithBroker publishes progress events to b
func WithBroker(b messaging.Broker) HarnessOption {
	return func(p *HarnessParams) {
		p.Broker = b
	}
}

// NewHarness validates cfg and prepares a run. Configuration errors are
// reported here, never mid-simulation.
func NewHarness(cfg *config.ExperimentConfig, opts ...HarnessOption) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params := &HarnessParams{
		RunID:  uuid.New().String(),
		Logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(params)
	}

	env, err := environment.NewEnvironment(cfg.RewardProbabilities)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	policy, err := automaton.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	var labels core.ActionSet
	copy(labels[:], cfg.ActionLabels)

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Harness{
		id:        params.RunID,
		name:      cfg.Name,
		labels:    labels,
		stepSizes: append([]float64(nil), cfg.StepSizes...),
		trials:    cfg.TrialsPerStepSize,
		seed:      cfg.Seed,
		workers:   workers,
		policy:    policy,
		env:       env,
		runner: Runner{
			Threshold:     cfg.ConvergenceThreshold,
			MaxIterations: cfg.MaxIterations,
			RecordHistory: cfg.RecordHistory,
			HistoryLimit:  cfg.HistoryLimit,
		},
		logger: params.Logger.WithField("run_id", params.RunID),
		broker: params.Broker,
	}, nil
}

func (h *Harness) ID() string {
	return h.id
}

func (h *Harness) Labels() core.ActionSet {
	return h.labels
}

func (h *Harness) GetStatus() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Run executes every sweep in step size order and returns one result per step size
func (h *Harness) Run(ctx context.Context) ([]core.ExperimentResult, error) {
	h.mu.Lock()
	h.status = Status{Running: true, StartTime: time.Now()}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.status.Running = false
		h.status.EndTime = time.Now()
		h.mu.Unlock()
	}()

	h.logger.WithFields(logrus.Fields{
		"name":       h.name,
		"step_sizes": h.stepSizes,
		"trials":     h.trials,
		"policy":     h.policy.String(),
		"workers":    h.workers,
	}).Info("starting experiment")

	results := make([]core.ExperimentResult, 0, len(h.stepSizes))
	for i, step := range h.stepSizes {
		res, _, err := h.RunSweep(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to run step size %v: %w", step, err)
		}
		results = append(results, res)

		h.mu.Lock()
		h.status.CompletedSweeps++
		h.mu.Unlock()
	}

	h.publish(messaging.Event{Type: messaging.RunCompleted, StepIndex: -1})
	return results, nil
}

// RunSweep runs all trials for the step size at stepIndex. Trials are
// spread over the worker pool but stored by index, so the output does not
// depend on the number of workers.
func (h *Harness) RunSweep(ctx context.Context, stepIndex int) (core.ExperimentResult, []core.TrialResult, error) {
	if stepIndex < 0 || stepIndex >= len(h.stepSizes) {
		return core.ExperimentResult{}, nil, fmt.Errorf("step index %d out of range", stepIndex)
	}
	step := h.stepSizes[stepIndex]
	log := h.logger.WithField("step_size", step)

	trials := make([]core.TrialResult, h.trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for i := 0; i < h.trials; i++ {
		g.Go(func() error {
			res, err := h.RunTrial(gctx, stepIndex, i)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i] = res

			log.WithFields(logrus.Fields{
				"trial":      i,
				"action":     h.labels.Label(res.ConvergedAction),
				"iterations": res.Iterations,
				"converged":  res.Converged,
			}).Debug("trial finished")
			h.publish(messaging.Event{
				Type:      messaging.TrialCompleted,
				StepIndex: stepIndex,
				StepSize:  step,
				Trial:     i,
				Result:    &res,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.ExperimentResult{}, nil, err
	}

	res := Aggregate(step, trials)
	if res.Unconverged > 0 {
		log.WithField("unconverged", res.Unconverged).Warn("trials hit the iteration cap")
	}
	log.WithFields(logrus.Fields{
		"accuracy":       res.Accuracy,
		"avg_iterations": res.AverageIterations,
	}).Info("sweep finished")
	h.publish(messaging.Event{
		Type:      messaging.SweepCompleted,
		StepIndex: stepIndex,
		StepSize:  step,
		Summary:   &res,
	})
	return res, trials, nil
}

// RunTrial runs one trial with its own automaton and a generator seeded
// from (stepIndex, trial). Calling it twice with the same arguments
// returns the same result.
func (h *Harness) RunTrial(ctx context.Context, stepIndex, trial int) (core.TrialResult, error) {
	if stepIndex < 0 || stepIndex >= len(h.stepSizes) {
		return core.TrialResult{}, fmt.Errorf("step index %d out of range", stepIndex)
	}
	la, err := automaton.NewLearningAutomaton(h.stepSizes[stepIndex], automaton.WithPolicy(h.policy))
	if err != nil {
		return core.TrialResult{}, err
	}

	seed := DeriveSeed(h.seed, stepIndex, trial)
	rng := rand.New(rand.NewSource(seed))
	res, err := h.runner.RunTrial(ctx, la, h.env, rng)
	if err != nil {
		return core.TrialResult{}, err
	}
	res.Seed = seed
	return res, nil
}

func (h *Harness) publish(ev messaging.Event) {
	if h.broker == nil {
		return
	}
	ev.RunID = h.id
	ev.Timestamp = time.Now()
	if err := h.broker.Publish(ev); err != nil {
		h.logger.WithError(err).WithField("event", ev.Type).Warn("dropped progress event")
	}
}
