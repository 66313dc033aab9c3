package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boristopalov/automata/internal/logging"
	"github.com/boristopalov/automata/pkg/config"
	"github.com/boristopalov/automata/pkg/experiment"
	"github.com/boristopalov/automata/pkg/messaging"
	"github.com/boristopalov/automata/pkg/providers"
	"github.com/boristopalov/automata/pkg/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "automata",
		Short:        "Automata simulates a reward-inaction learning automaton against a stochastic environment and measures how step size affects convergence.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML experiment config")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64("seed", 0, "base seed for per-trial generators")
	rootCmd.PersistentFlags().String("policy", "", "update policy: proportional or equal-split")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the step size sweep and print accuracy and average iterations",
		RunE:  runExperiment,
	}
	runCmd.Flags().Int("trials", 0, "trials per step size")
	runCmd.Flags().Int("workers", 0, "concurrent trials (0 uses all CPUs)")
	runCmd.Flags().Float64Slice("steps", nil, "step sizes to sweep")
	runCmd.Flags().Bool("csv", false, "write results as CSV to the output dir")
	runCmd.Flags().Bool("plot", false, "write HTML charts to the output dir")
	runCmd.Flags().Bool("summarize", false, "ask an LLM to interpret the results")
	runCmd.Flags().Bool("no-color", false, "disable colored output")
	runCmd.Flags().String("out", "", "output directory")

	trialCmd := &cobra.Command{
		Use:   "trial",
		Short: "Replay a single trial and print its probability trajectory",
		RunE:  runTrial,
	}
	trialCmd.Flags().Int("step-index", 0, "index into the configured step sizes")
	trialCmd.Flags().Int("trial", 0, "trial index")
	trialCmd.Flags().Int("every", 10, "print every n-th iteration")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved experiment config as YAML",
		RunE:  printConfig,
	}

	for _, envFile := range []string{
		".env",
		"../../.env",
		"../../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd, trialCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the config file, AUTOMATA_* env vars and flags
func resolveConfig(cmd *cobra.Command) (*config.ExperimentConfig, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("policy") {
		cfg.Policy, _ = flags.GetString("policy")
	}
	if flags.Changed("trials") {
		cfg.TrialsPerStepSize, _ = flags.GetInt("trials")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("steps") {
		cfg.StepSizes, _ = flags.GetFloat64Slice("steps")
	}
	if flags.Changed("csv") {
		cfg.Output.CSV, _ = flags.GetBool("csv")
	}
	if flags.Changed("plot") {
		cfg.Output.Plot, _ = flags.GetBool("plot")
	}
	if flags.Changed("summarize") {
		cfg.Output.Summarize, _ = flags.GetBool("summarize")
	}
	if flags.Changed("no-color") {
		noColor, _ := flags.GetBool("no-color")
		cfg.Output.Color = !noColor
	}
	if flags.Changed("out") {
		cfg.Output.Dir, _ = flags.GetString("out")
	}

	// averaged trajectories are only available when trials keep their history
	if cfg.Output.Plot {
		cfg.RecordHistory = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signalContext()
	defer cancel()

	broker := messaging.NewBroker()
	defer broker.Reset()

	h, err := experiment.NewHarness(cfg, experiment.WithLogger(logger), experiment.WithBroker(broker))
	if err != nil {
		return fmt.Errorf("failed to create harness: %w", err)
	}

	progress := make(chan messaging.Event, 256)
	if err := broker.Subscribe("progress", progress); err != nil {
		return err
	}
	done := make(chan struct{})
	go logProgress(logger, cfg.TrialsPerStepSize, progress, done)

	results, err := h.Run(ctx)
	broker.Unsubscribe("progress")
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s\n", h.ID(), cfg.Name)
	if err := report.WriteTable(out, results, cfg.Output.Color); err != nil {
		return err
	}

	if cfg.Output.CSV || cfg.Output.Plot {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	base := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%s_%s", cfg.Name, h.ID()[:8]))

	if cfg.Output.CSV {
		path := base + ".csv"
		if err := writeFile(path, func(f *os.File) error { return report.WriteCSV(f, results) }); err != nil {
			return err
		}
		logger.WithField("path", path).Info("wrote results csv")
	}

	if cfg.Output.Plot {
		path := base + ".html"
		if err := writeFile(path, func(f *os.File) error { return report.RenderPlots(f, h.Labels(), results) }); err != nil {
			return err
		}
		logger.WithField("path", path).Info("wrote charts")
	}

	if cfg.Output.Summarize {
		client, err := providers.New(ctx, cfg.Output.Provider)
		if err != nil {
			return fmt.Errorf("failed to create provider: %w", err)
		}
		summary, err := report.Summarize(ctx, client, cfg.Output.Model, report.SummaryInput{
			Labels:              h.Labels(),
			RewardProbabilities: cfg.RewardProbabilities,
			Threshold:           cfg.ConvergenceThreshold,
			Results:             results,
		})
		if err != nil {
			// the table is already printed; a failed narration is not fatal
			logger.WithError(err).Warn("summary unavailable")
		} else {
			fmt.Fprintf(out, "\n%s\n", summary)
		}
	}

	return nil
}

func logProgress(logger logrus.FieldLogger, trials int, events <-chan messaging.Event, done chan<- struct{}) {
	defer close(done)
	completed := 0
	for ev := range events {
		switch ev.Type {
		case messaging.TrialCompleted:
			completed++
			if completed%max(trials/4, 1) == 0 {
				logger.WithFields(logrus.Fields{
					"step_size": ev.StepSize,
					"completed": completed,
					"trials":    trials,
				}).Debug("progress")
			}
		case messaging.SweepCompleted:
			completed = 0
		}
	}
}

func runTrial(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg.RecordHistory = true
	cfg.HistoryLimit = 0

	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signalContext()
	defer cancel()

	h, err := experiment.NewHarness(cfg, experiment.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create harness: %w", err)
	}

	stepIndex, _ := cmd.Flags().GetInt("step-index")
	trial, _ := cmd.Flags().GetInt("trial")
	every, _ := cmd.Flags().GetInt("every")

	res, err := h.RunTrial(ctx, stepIndex, trial)
	if err != nil {
		return fmt.Errorf("trial failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := report.WriteTrajectory(out, h.Labels(), res.History, every); err != nil {
		return err
	}
	status := "converged"
	if !res.Converged {
		status = "hit the iteration cap"
	}
	fmt.Fprintf(out, "\nstep size %v, seed %d: %s on %q after %d iterations\n",
		cfg.StepSizes[stepIndex], res.Seed, status, h.Labels().Label(res.ConvergedAction), res.Iterations)
	return nil
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
