package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/axiom/internal/seed"
	"github.com/roach88/axiom/internal/space"
)

// SeedResult is the seed command's output.
type SeedResult struct {
	File      string            `json:"file"`
	Nodes     []seed.NodeResult `json:"nodes"`
	Relations int               `json:"relations"`
	Forks     []seed.ForkResult `json:"forks"`
	Summary   space.Summary     `json:"summary"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a seed document and summarize the space",
		Long: `Load a seed document (.yaml, .yml or .cue) into a fresh space.

Nodes are allocated coordinates in document order, then relations and
forks are applied. The command prints where every key landed and the
resulting space statistics.

Examples:
  axiom seed ./forest.yaml
  axiom seed ./forest.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd, path)
	if err != nil {
		return err
	}

	result := SeedResult{
		File:      path,
		Nodes:     s.report.Nodes,
		Relations: s.report.Relations,
		Forks:     s.report.Forks,
		Summary:   s.space.Summary(),
	}
	if result.Forks == nil {
		result.Forks = []seed.ForkResult{}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Loaded %s\n\n", path)
	for _, n := range result.Nodes {
		note := ""
		if n.Skipped {
			note = "  (coordinate taken, existing node kept)"
		}
		fmt.Fprintf(w, "  %-16s %s%s\n", n.Key, n.Code, note)
	}
	for _, f := range result.Forks {
		fmt.Fprintf(w, "  fork %-11s %s -> %v\n", f.Node, f.Source, f.Branches)
	}
	fmt.Fprintln(w)
	printSummary(cmd, result.Summary)
	return nil
}

// printSummary writes space statistics as text.
func printSummary(cmd *cobra.Command, sum space.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Nodes:            %d\n", sum.Nodes)
	fmt.Fprintf(w, "Relations:        %d\n", sum.Relations)
	fmt.Fprintf(w, "Forks:            %d\n", sum.Forks)
	fmt.Fprintf(w, "Derivation ratio: %.2f\n", sum.DerivationRatio)
	fmt.Fprintf(w, "Audit entries:    %d\n", sum.AuditEntries)
	fmt.Fprintf(w, "Chain valid:      %t\n", sum.ChainValid)
}
