package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/portsched/internal/engine"
	"github.com/roach88/portsched/internal/harness"
	"github.com/roach88/portsched/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Scenario string
	Database string
}

// RunResult is the run command payload.
type RunResult struct {
	Scenario string               `json:"scenario"`
	RunID    string               `json:"run_id"`
	Pass     bool                 `json:"pass"`
	Journal  string               `json:"journal,omitempty"`
	Cycles   []harness.CycleTrace `json:"cycles"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a scenario against the scheduler",
		Long: `Execute a YAML scenario: fire its signals, turn the scheduler once per
cycle and check every drained batch against the scenario's expectations.

With --db, every cycle is journaled to a SQLite database (created if it
does not exist) and can be inspected later with "portsched trace". Each run
gets a fresh UUIDv7 id unless the scenario pins run_id; a pinned id that is
already in the journal is rejected.

Examples:
  portsched run --scenario ./scenarios/chain.yaml
  portsched run --scenario ./scenarios/chain.yaml --db ./trace.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "path to scenario YAML file (required)")
	_ = cmd.MarkFlagRequired("scenario")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (optional)")

	return cmd
}

func runScenarioCommand(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(opts.Scenario); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("scenario not found: %s", opts.Scenario), nil)
	}

	scenario, err := harness.LoadScenario(opts.Scenario)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenarioInvalid, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded scenario %s (%d cycles)", scenario.Name, len(scenario.Cycles))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := opts.Database
	if path == "" {
		path = ":memory:"
	}
	logger.Debug("opening journal", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	runOpts := []harness.RunOption{harness.WithLogger(logger)}
	if scenario.RunID == "" {
		runOpts = append(runOpts, harness.WithRunIDGenerator(engine.UUIDv7Generator{}))
	} else if _, err := st.ReadRun(ctx, scenario.RunID); err == nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal,
			fmt.Sprintf("run %s already journaled in %s", scenario.RunID, opts.Database), nil)
	} else if !errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	result, err := harness.RunWithJournal(ctx, scenario, st, runOpts...)
	if err != nil {
		return runFailure(formatter, err)
	}

	logger.Info("scenario finished",
		"scenario", scenario.Name,
		"run_id", result.RunID,
		"cycles", len(result.Cycles),
		"pass", result.Pass)

	return outputRunResult(formatter, RunResult{
		Scenario: scenario.Name,
		RunID:    result.RunID,
		Pass:     result.Pass,
		Journal:  opts.Database,
		Cycles:   result.Cycles,
		Errors:   result.Errors,
	})
}

func runFailure(formatter *OutputFormatter, err error) error {
	switch {
	case engine.IsJournalError(err):
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "interrupted", nil)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
	}
}

func outputRunResult(formatter *OutputFormatter, r RunResult) error {
	var exitErr error
	if !r.Pass {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("%s: scenario %s failed", ErrCodeScenarioFailed, r.Scenario))
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: r, RunID: r.RunID}
		if !r.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenarioFailed,
				Message: fmt.Sprintf("scenario %s failed", r.Scenario),
				Details: r.Errors,
			}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintf(w, "run %s\n", r.RunID)
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "  cycle %d: drained %d, queued %d", c.Seq, len(c.Drained), c.Queued)
		if len(c.Drained) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(c.Drained, " "))
		}
		if len(c.Dispatched) > 0 {
			fmt.Fprintf(w, " -> ready [%s]", strings.Join(c.Dispatched, " "))
		}
		fmt.Fprintln(w)
	}
	if r.Journal != "" {
		fmt.Fprintf(w, "  journal: %s\n", r.Journal)
	}

	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Scenario)
		return nil
	}
	fmt.Fprintf(w, "✗ %s\n", r.Scenario)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return exitErr
}

// newLogger builds the command logger. Logs go to w so JSON on stdout
// stays clean; --verbose lowers the level to debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
