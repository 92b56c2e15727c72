package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/changeoracle/internal/replay"
	"github.com/roach88/changeoracle/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run with its trace
	Scenario string // optional - filter the listing
}

// StoredRun is a run as printed by trace.
type StoredRun struct {
	ID          string              `json:"id"`
	Seq         int64               `json:"seq"`
	Scenario    string              `json:"scenario"`
	PathID      string              `json:"path_id"`
	Description string              `json:"description"`
	Events      []string            `json:"events"`
	Pass        bool                `json:"pass"`
	Failure     string              `json:"failure,omitempty"`
	Error       string              `json:"error,omitempty"`
	Steps       []replay.TraceEvent `json:"steps,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show stored replay runs",
		Long: `List the runs stored by the run command, or show one run with its
full replay trace: every operation sent, every outcome received and every
local or revert step, in order.

Examples:
  changeoracle trace --db ./runs.db
  changeoracle trace --db ./runs.db --scenario enact-header
  changeoracle trace --db ./runs.db --run 0192f0c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show with its trace")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		out := toStoredRun(run)
		if opts.Format == "json" {
			return formatter.Success(out)
		}
		outputRunTrace(cmd.OutOrStdout(), out)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Scenario)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	out := make([]StoredRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, toStoredRun(r))
	}
	if opts.Format == "json" {
		return formatter.Success(out)
	}
	outputRunList(cmd.OutOrStdout(), out)
	return nil
}

func toStoredRun(r store.Run) StoredRun {
	events := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		events = append(events, string(e))
	}
	return StoredRun{
		ID:          r.ID,
		Seq:         r.Seq,
		Scenario:    r.Scenario,
		PathID:      r.PathID,
		Description: r.Description,
		Events:      events,
		Pass:        r.Pass,
		Failure:     r.Failure,
		Error:       r.Error,
		Steps:       r.Steps,
	}
}

func outputRunList(w io.Writer, runs []StoredRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored")
		return
	}
	for _, r := range runs {
		status := "✓"
		if !r.Pass {
			status = "✗"
		}
		fmt.Fprintf(w, "%s [%d] %s %s: %s\n", status, r.Seq, r.ID, r.Scenario, r.Description)
	}
}

func outputRunTrace(w io.Writer, r StoredRun) {
	status := "passed"
	if !r.Pass {
		status = "failed"
	}
	fmt.Fprintf(w, "Run: %s (%s)\n", r.ID, status)
	fmt.Fprintf(w, "Scenario: %s\n", r.Scenario)
	fmt.Fprintf(w, "Path: %s\n", r.Description)
	if r.Failure != "" {
		fmt.Fprintf(w, "Failure: %s\n", r.Failure)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Timeline:")
	for _, ev := range r.Steps {
		switch ev.Type {
		case replay.TraceOutcome:
			if ev.Reason != "" {
				fmt.Fprintf(w, "  [%d] reverted: %s\n", ev.Seq, ev.Reason)
			} else {
				fmt.Fprintf(w, "  [%d] emitted %v\n", ev.Seq, ev.Emitted)
			}
		default:
			fmt.Fprintf(w, "  [%d] %s %s -> %d\n", ev.Seq, ev.Type, ev.Event, ev.Target)
		}
	}
}
