package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/portsched/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // empty lists runs
}

// RunSummary describes one journaled run.
type RunSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Triggers int    `json:"triggers"`
}

// TraceTag is one drained tag. Source and Target are nil when the edge had
// been removed before the cycle was journaled.
type TraceTag struct {
	Position  int    `json:"position"`
	Edge      int    `json:"edge"`
	Direction string `json:"direction"`
	Source    *int   `json:"source,omitempty"`
	Target    *int   `json:"target,omitempty"`
}

// TraceCycle is one journaled cycle.
type TraceCycle struct {
	Seq      int64      `json:"seq"`
	Drained  int        `json:"drained"`
	Triggers int        `json:"triggers"`
	Queued   int        `json:"queued"`
	Tags     []TraceTag `json:"tags"`
}

// TraceResult holds the journal of one run.
type TraceResult struct {
	Run    RunSummary   `json:"run"`
	Cycles []TraceCycle `json:"cycles"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect a journaled run",
		Long: `Print the cycles a run journaled: how many tags each cycle drained,
the scheduler queue length after it, and every drained tag with the
nodes it resolved to.

Without --run, lists the runs in the journal.

Examples:
  portsched trace --db ./trace.db
  portsched trace --db ./trace.db --run chain-debounce
  portsched trace --db ./trace.db --run chain-debounce --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open creates missing files, so check first.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("journal not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeRunNotFound,
			fmt.Sprintf("run not found: %s", opts.RunID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	cycles, err := st.ReadCycles(ctx, opts.RunID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	result := TraceResult{
		Run:    summarizeRun(run),
		Cycles: make([]TraceCycle, len(cycles)),
	}
	for i, c := range cycles {
		result.Cycles[i] = toTraceCycle(c)
	}

	if formatter.JSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	printTrace(formatter, result)
	return nil
}

func listRuns(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = summarizeRun(r)
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, r := range summaries {
		fmt.Fprintf(w, "%s\t%s\n", r.ID, runHeadline(r))
	}
	return nil
}

func summarizeRun(r store.Run) RunSummary {
	return RunSummary{
		ID:       r.ID,
		Name:     r.Name,
		Nodes:    r.Nodes,
		Edges:    r.Edges,
		Triggers: r.Triggers,
	}
}

func toTraceCycle(c store.CycleRecord) TraceCycle {
	tc := TraceCycle{
		Seq:      c.Seq,
		Drained:  c.Drained,
		Triggers: c.Triggers,
		Queued:   c.Queued,
		Tags:     make([]TraceTag, len(c.Tags)),
	}
	for i, t := range c.Tags {
		tag := TraceTag{
			Position:  t.Position,
			Edge:      int(t.Tag.Edge),
			Direction: t.Tag.Direction.String(),
		}
		if t.Resolved {
			source, target := int(t.Source), int(t.Target)
			tag.Source = &source
			tag.Target = &target
		}
		tc.Tags[i] = tag
	}
	return tc
}

func runHeadline(r RunSummary) string {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s: %d nodes, %d edges, %d triggers", name, r.Nodes, r.Edges, r.Triggers)
}

func printTrace(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "run %s %s\n", result.Run.ID, runHeadline(result.Run))

	if len(result.Cycles) == 0 {
		fmt.Fprintln(w, "  no cycles journaled")
		return
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "  cycle %d: drained %d, queued %d\n", c.Seq, c.Drained, c.Queued)
		for _, t := range c.Tags {
			if t.Source == nil {
				fmt.Fprintf(w, "    %d. e%d:%s (removed)\n", t.Position, t.Edge, t.Direction)
				continue
			}
			fmt.Fprintf(w, "    %d. e%d:%s %d->%d\n", t.Position, t.Edge, t.Direction, *t.Source, *t.Target)
		}
	}
}
