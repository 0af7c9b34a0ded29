package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/metrics"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	Last    int
	Metrics bool
}

// EntryView is an audit entry as printed by the CLI.
type EntryView struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Args      []any  `json:"args"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
}

func entryViews(entries []audit.Entry) []EntryView {
	out := make([]EntryView, len(entries))
	for i, e := range entries {
		args := make([]any, len(e.Args))
		for j, a := range e.Args {
			args[j] = audit.Native(a)
		}
		out[i] = EntryView{
			Index:     e.Index,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			Action:    e.Action,
			Args:      args,
			PrevHash:  e.PrevHash,
			Hash:      e.Hash,
		}
	}
	return out
}

// AuditResult is the audit command's output.
type AuditResult struct {
	Total   int             `json:"total"`
	Head    string          `json:"head"`
	Valid   bool            `json:"valid"`
	Problem string          `json:"problem,omitempty"`
	Entries []EntryView     `json:"entries"`
	Metrics []metrics.Count `json:"metrics,omitempty"`
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit <seed-file>",
		Short: "Show the audit chain of a seeded space",
		Long: `Load a seed document and print the tail of its audit chain.

Each entry is linked to its predecessor by SHA-256 over the entry's
canonical JSON. The chain is re-verified from genesis; a broken link
exits with code 1.

Examples:
  axiom audit ./forest.yaml
  axiom audit ./forest.yaml --last 3 --metrics
  axiom audit ./forest.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Last, "last", "n", 10, "number of trailing entries to show (0 for all)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include per-action counters")

	return cmd
}

func runAudit(opts *AuditOptions, path string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd, path)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	chain := s.space.Chain()

	entries := chain.Entries()
	if opts.Last > 0 {
		entries = chain.Last(opts.Last)
	}
	result := AuditResult{
		Total:   chain.Len(),
		Head:    chain.Head(),
		Valid:   true,
		Entries: entryViews(entries),
	}
	if err := chain.Check(); err != nil {
		result.Valid = false
		result.Problem = err.Error()
	}
	if opts.Metrics {
		counts, err := s.metrics.Snapshot()
		if err != nil {
			return f.Fail(ExitCommandError, "failed to gather metrics", err)
		}
		result.Metrics = counts
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		printAudit(cmd, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "audit chain broken")
	}
	return nil
}

func printAudit(cmd *cobra.Command, r AuditResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Audit chain: %d entries, showing %d\n\n", r.Total, len(r.Entries))
	for _, e := range r.Entries {
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = fmt.Sprint(a)
		}
		fmt.Fprintf(w, "  [%3d] %s... %-8s %s\n", e.Index, shortHash(e.Hash), e.Action, strings.Join(args, " "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Head:  %s\n", r.Head)
	if r.Valid {
		fmt.Fprintln(w, "Valid: true")
	} else {
		fmt.Fprintf(w, "Valid: false (%s)\n", r.Problem)
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w)
		for _, c := range r.Metrics {
			fmt.Fprintf(w, "  %s{%s} %g\n", c.Metric, c.Label, c.Value)
		}
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
