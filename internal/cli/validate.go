package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/portsched/internal/topology"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Topology string
}

// ValidationResult is the validate command payload.
type ValidationResult struct {
	Valid       bool                    `json:"valid"`
	Name        string                  `json:"name,omitempty"`
	Nodes       int                     `json:"nodes"`
	Edges       int                     `json:"edges"`
	Fingerprint string                  `json:"fingerprint,omitempty"`
	Loops       []topology.FeedbackLoop `json:"loops,omitempty"`
	Errors      []ValidationIssue       `json:"errors,omitempty"`
}

// ValidationIssue is one compile error with its source position.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile a topology and report problems",
		Long: `Compile a CUE topology (a .cue file or a directory holding one CUE
package) and report its node and edge counts, its fingerprint and any feedback loops,
or the first compile error. Feedback loops are warnings, not errors.

Examples:
  portsched validate --topology ./pipeline.cue
  portsched validate --topology ./topology/ --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Topology, "topology", "", "path to .cue file or directory (required)")
	_ = cmd.MarkFlagRequired("topology")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(opts.Topology); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("topology not found: %s", opts.Topology), nil)
	}

	formatter.VerboseLog("Compiling topology %s", opts.Topology)

	top, err := topology.Load(opts.Topology)
	if err != nil {
		var ce *topology.CompileError
		if errors.As(err, &ce) {
			return outputValidationFailure(formatter, issueFromCompileError(ce))
		}
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
	}

	result := ValidationResult{
		Valid:       true,
		Name:        top.Name,
		Nodes:       top.Graph.NodeCount(),
		Edges:       top.Graph.EdgeCount(),
		Fingerprint: top.Fingerprint(),
		Loops:       topology.FeedbackLoops(top.Graph),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	name := result.Name
	if name == "" {
		name = opts.Topology
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %d nodes, %d edges\n", name, result.Nodes, result.Edges)
	fmt.Fprintf(formatter.Writer, "  fingerprint %s\n", result.Fingerprint)
	for _, loop := range result.Loops {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", loop.Message)
	}
	return nil
}

func issueFromCompileError(ce *topology.CompileError) ValidationIssue {
	issue := ValidationIssue{
		Code:    ErrCodeTopology,
		Field:   ce.Field,
		Message: ce.Message,
	}
	if ce.Pos.IsValid() {
		issue.File = ce.Pos.Filename()
		issue.Line = ce.Pos.Line()
	}
	return issue
}

func outputValidationFailure(formatter *OutputFormatter, issue ValidationIssue) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("%s: %s: %s", issue.Code, issue.Field, issue.Message))

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: []ValidationIssue{issue}},
			Error: &CLIError{
				Code:    issue.Code,
				Message: issue.Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	if issue.Line > 0 {
		fmt.Fprintf(formatter.Writer, "  %s:%d\n", issue.File, issue.Line)
	}
	fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", issue.Code, issue.Field, issue.Message)
	return exitErr
}
