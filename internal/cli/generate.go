package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/describe"
	"github.com/roach88/changeoracle/internal/metrics"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/pathgen"
	"github.com/roach88/changeoracle/internal/scenario"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Scenario    string // optional - only this scenario
	MetricsFile string // optional - write metrics in text exposition format
}

// PathSummary is one generated path as printed by generate and run.
type PathSummary struct {
	ID          string   `json:"id"`
	Events      []string `json:"events"`
	Label       string   `json:"label"`
	Actor       string   `json:"actor"`
	Description string   `json:"description"`
}

// ScenarioPaths is the generate result for one scenario.
type ScenarioPaths struct {
	Name  string        `json:"name"`
	Paths []PathSummary `json:"paths"`
	Error string        `json:"error,omitempty"`
	Code  string        `json:"code,omitempty"`
}

// GenerateResult holds the complete generate output.
type GenerateResult struct {
	Scenarios []ScenarioPaths `json:"scenarios"`
	Failed    int             `json:"failed"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <scenarios.yaml>",
		Short: "Generate test paths for scenarios",
		Long: `Generate the shortest event paths that reach each scenario's target.

One path is printed per distinct actor and stack configuration reached,
together with a compressed description of its events.

Examples:
  changeoracle generate ./scenarios.yaml
  changeoracle generate ./scenarios.yaml --scenario enact-header --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only generate the named scenario")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write generation metrics to this file")

	return cmd
}

func runGenerate(opts *GenerateOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	m := model.New()
	compiled, err := loadScenarios(m, file, opts.Scenario)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	result := GenerateResult{Scenarios: []ScenarioPaths{}}
	for _, c := range compiled {
		sp, _ := generateScenario(m, c, logger, met)
		if sp.Error != "" {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sp)
	}

	if err := writeMetrics(opts.MetricsFile, reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeGeneration, Message: fmt.Sprintf("%d scenario(s) failed", result.Failed)}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		outputGenerateText(cmd.OutOrStdout(), result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// generateScenario runs one scenario. The returned paths are nil when
// generation itself failed; a missed expectation still returns them.
func generateScenario(m *model.Machine, c *scenario.Compiled, logger *slog.Logger, met *metrics.Metrics) (ScenarioPaths, []pathgen.Path) {
	sp := ScenarioPaths{Name: c.Scenario.Name, Paths: []PathSummary{}}

	paths, err := c.Generate(m, pathgen.WithLogger(logger), pathgen.WithMetrics(met))
	for _, p := range paths {
		sp.Paths = append(sp.Paths, summarize(p, c.Dictionary))
	}
	if err != nil {
		sp.Error = err.Error()
		sp.Code = generationCode(err)
		logger.Warn("scenario failed", "scenario", c.Scenario.Name, "error", err)
		if !scenario.IsExpectationError(err) {
			return sp, nil
		}
	}
	return sp, paths
}

func generationCode(err error) string {
	switch {
	case scenario.IsExpectationError(err):
		return ErrCodeExpectation
	case model.IsRejected(err):
		return ErrCodeCompile
	}
	var ge *pathgen.GenerationError
	if errors.As(err, &ge) {
		return ErrCodeGeneration
	}
	return ErrCodeGeneric
}

func summarize(p pathgen.Path, dict describe.Dictionary) PathSummary {
	d := describe.Describe(p, dict)
	events := make([]string, 0, p.Len())
	for _, e := range p.Events() {
		events = append(events, string(e))
	}
	return PathSummary{
		ID:          p.ID,
		Events:      events,
		Label:       d.Label,
		Actor:       string(d.Actor),
		Description: d.String(),
	}
}

// loadScenarios reads and compiles a scenario file, optionally keeping only
// the named scenario.
func loadScenarios(m *model.Machine, file, only string) ([]*scenario.Compiled, error) {
	scenarios, err := scenario.Load(file)
	if err != nil {
		return nil, err
	}

	var out []*scenario.Compiled
	for _, s := range scenarios {
		if only != "" && s.Name != only {
			continue
		}
		c, err := scenario.Compile(m, s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario named %q in %s", only, file)
	}
	return out, nil
}

func reportLoadError(f *OutputFormatter, err error) error {
	code, message := ErrCodeLoadFailed, "failed to load scenarios"
	if scenario.IsCompileError(err) {
		code, message = ErrCodeCompile, "failed to compile scenario"
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, message, err)
}

func writeMetrics(file string, g prometheus.Gatherer) error {
	if file == "" {
		return nil
	}
	return prometheus.WriteToTextfile(file, g)
}

func outputGenerateText(w io.Writer, result GenerateResult) {
	for _, sp := range result.Scenarios {
		status := "✓"
		if sp.Error != "" {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d path(s)\n", status, sp.Name, len(sp.Paths))
		for _, p := range sp.Paths {
			fmt.Fprintf(w, "  [%s] %s\n", canon.Short(p.ID), p.Description)
		}
		if sp.Error != "" {
			fmt.Fprintf(w, "  Error [%s]: %s\n", sp.Code, sp.Error)
		}
	}
	fmt.Fprintln(w)
	if result.Failed == 0 {
		fmt.Fprintf(w, "✓ %d scenario(s) generated\n", len(result.Scenarios))
		return
	}
	fmt.Fprintf(w, "✗ %d of %d scenario(s) failed\n", result.Failed, len(result.Scenarios))
}
