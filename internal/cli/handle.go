package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/axiom/internal/space"
	"github.com/roach88/axiom/internal/wrapper"
)

// HandleOptions holds flags for the handle command.
type HandleOptions struct {
	*RootOptions
	Strategy string // force a strategy instead of the default proposer
	Context  wrapper.Context
}

// DecisionView is a decision as printed by the CLI.
type DecisionView struct {
	ID         string `json:"id"`
	Strategy   string `json:"strategy"`
	Input      string `json:"input"`
	Result     string `json:"result"`
	AuditIndex int    `json:"audit_index"`
	AuditHash  string `json:"audit_hash"`
}

// HandleResult is the handle command's output.
type HandleResult struct {
	Decisions []DecisionView `json:"decisions"`
	Summary   space.Summary  `json:"summary"`
}

// NewHandleCommand creates the handle command.
func NewHandleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HandleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "handle <seed-file> <input>...",
		Short: "Push inputs through the strategy wrapper",
		Long: `Load a seed document, then hand each input to the wrapper in order.

By default the rule proposer picks the strategy from the space: an unknown
label creates a node, a unique label returns it, an ambiguous label forks
it. --strategy forces one strategy for every input; the context flags
supply what that strategy needs. Every decision is appended to the audit
chain as a DECISION entry.

Strategies:
  CREATE_NODE RETURN_EXISTING CREATE_FORK RESOLVE_FORK ADD_RELATION
  DERIVE_PATH DERIVE_SIBLINGS DERIVE_TENSION ESCALATE

Examples:
  axiom handle ./forest.yaml justice jaguar
  axiom handle ./forest.yaml ruin --major 1 --type 2 --subtype 3
  axiom handle ./forest.yaml feline --strategy ADD_RELATION --target canine --relation SIMILAR_TO
  axiom handle ./forest.yaml jaguar --strategy RESOLVE_FORK --chosen 01-01-02-0004`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandle(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "force a strategy (default: rule proposer)")
	cmd.Flags().IntVar(&opts.Context.Major, "major", 0, "CREATE_NODE major (default from config)")
	cmd.Flags().IntVar(&opts.Context.Type, "type", 0, "CREATE_NODE type (default from config)")
	cmd.Flags().IntVar(&opts.Context.Subtype, "subtype", 0, "CREATE_NODE subtype (default from config)")
	cmd.Flags().StringSliceVar(&opts.Context.BranchLabels, "branches", nil, "CREATE_FORK branch labels (default from config)")
	cmd.Flags().StringVar(&opts.Context.Chosen, "chosen", "", "RESOLVE_FORK branch code")
	cmd.Flags().StringVar(&opts.Context.Target, "target", "", "ADD_RELATION / DERIVE_PATH target label")
	cmd.Flags().StringVar(&opts.Context.Relation, "relation", "", "ADD_RELATION kind (default SIMILAR_TO)")

	return cmd
}

func runHandle(opts *HandleOptions, path string, inputs []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var extra []wrapper.Option
	if opts.Strategy != "" {
		strategy, err := wrapper.ParseStrategy(opts.Strategy)
		if err != nil {
			return f.Fail(ExitCommandError, "invalid strategy", err)
		}
		extra = append(extra, wrapper.WithProposer(wrapper.ProposerFunc(
			func(*space.Space, any, wrapper.Context) wrapper.Strategy { return strategy },
		)))
	}

	s, err := openSession(opts.RootOptions, cmd, path, extra...)
	if err != nil {
		return err
	}

	result := HandleResult{Decisions: make([]DecisionView, 0, len(inputs))}
	for _, input := range inputs {
		d, err := s.wrapper.Handle(input, opts.Context)
		if err != nil {
			return f.Fail(ExitCommandError, fmt.Sprintf("decision for %q failed", input), err)
		}
		result.Decisions = append(result.Decisions, DecisionView{
			ID:         d.ID,
			Strategy:   d.Strategy.String(),
			Input:      input,
			Result:     wrapper.Describe(d.Result),
			AuditIndex: d.AuditIndex,
			AuditHash:  d.AuditHash,
		})
	}
	result.Summary = s.space.Summary()

	if opts.Format == "json" {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, d := range result.Decisions {
		fmt.Fprintf(w, "%-16s %-12q %s\n", d.Strategy, d.Input, d.Result)
		f.VerboseLog("  decision %s audit[%d] %s", d.ID, d.AuditIndex, d.AuditHash)
	}
	fmt.Fprintln(w)
	printSummary(cmd, result.Summary)
	return nil
}
