package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/ledger"
	"github.com/roach88/changeoracle/internal/metrics"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/replay"
	"github.com/roach88/changeoracle/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	Scenario    string
	Concurrency int
	MetricsFile string

	// IDs allows overriding the run id generator (for testing).
	// If nil, the store defaults to UUIDv7.
	IDs store.IDGenerator
}

// RunSummary is one replayed path.
type RunSummary struct {
	RunID    string      `json:"run_id"`
	Scenario string      `json:"scenario"`
	Path     PathSummary `json:"path"`
	Pass     bool        `json:"pass"`
	Failure  string      `json:"failure,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// RunResult holds the complete run output.
type RunResult struct {
	Runs      []RunSummary    `json:"runs"`
	Scenarios []ScenarioPaths `json:"scenarios"`
	Passed    int             `json:"passed"`
	Failed    int             `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenarios.yaml>",
		Short: "Generate paths and replay them against the reference ledger",
		Long: `Generate every scenario's paths and replay each one against a fresh
in-memory ledger, checking reverts and emitted events against the model.

Every replay is stored in the SQLite database (created if it does not
exist) and can be inspected with the trace command.

Examples:
  changeoracle run --db ./runs.db ./scenarios.yaml
  changeoracle run --db ./runs.db ./scenarios.yaml --concurrency 4 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only run the named scenario")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "paths replayed in parallel (0 = unbounded)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write generation and replay metrics to this file")

	return cmd
}

func runScenarios(opts *RunOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	m := model.New()
	compiled, err := loadScenarios(m, file, opts.Scenario)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	var storeOpts []store.Option
	if opts.IDs != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
	}
	logger.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, stop := signalContext(cmd)
	defer stop()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	runner := replay.New(
		replay.WithLogger(logger),
		replay.WithMetrics(met),
		replay.WithConcurrency(opts.Concurrency),
	)

	result := RunResult{Runs: []RunSummary{}, Scenarios: []ScenarioPaths{}}
	for _, c := range compiled {
		sp, paths := generateScenario(m, c, logger, met)
		result.Scenarios = append(result.Scenarios, sp)
		if sp.Error != "" {
			result.Failed++
		}
		if len(paths) == 0 {
			continue
		}

		results, err := runner.RunAll(ctx, paths, func() replay.Collaborator {
			return ledger.New(ledger.WithLogger(logger))
		})
		if err != nil {
			logger.Warn("collaborator errors", "scenario", c.Scenario.Name, "error", err)
		}

		for i, res := range results {
			summary := summarize(paths[i], c.Dictionary)
			run, err := st.WriteRun(ctx, store.FromResult(c.Scenario.Name, summary.Description, *res))
			if err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to store run", err)
			}
			rs := RunSummary{
				RunID:    run.ID,
				Scenario: c.Scenario.Name,
				Path:     summary,
				Pass:     run.Pass,
				Failure:  run.Failure,
				Error:    run.Error,
			}
			if run.Pass {
				result.Passed++
			} else {
				result.Failed++
				if opts.Verbose && res.Failure != nil {
					fmt.Fprint(formatter.GetErrWriter(), res.Failure.Error())
				}
			}
			result.Runs = append(result.Runs, rs)
		}
	}

	if err := writeMetrics(opts.MetricsFile, reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeReplay, Message: fmt.Sprintf("%d failure(s)", result.Failed)}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		outputRunText(cmd.OutOrStdout(), result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d failure(s)", result.Failed))
	}
	return nil
}

// signalContext cancels on Ctrl-C or SIGTERM. Uses the command's context if
// set (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func outputRunText(w io.Writer, result RunResult) {
	for _, sp := range result.Scenarios {
		if sp.Error != "" {
			fmt.Fprintf(w, "✗ %s: Error [%s]: %s\n", sp.Name, sp.Code, sp.Error)
		}
	}
	for _, r := range result.Runs {
		status := "✓"
		if !r.Pass {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s [%s] %s\n", status, r.Scenario, canon.Short(r.Path.ID), r.Path.Description)
		if r.Failure != "" {
			fmt.Fprintf(w, "  Failure: %s\n", r.Failure)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", r.Error)
		}
	}
	fmt.Fprintln(w)
	if result.Failed == 0 {
		fmt.Fprintf(w, "✓ %d path(s) passed\n", result.Passed)
		return
	}
	fmt.Fprintf(w, "✗ %d passed, %d failed\n", result.Passed, result.Failed)
}
