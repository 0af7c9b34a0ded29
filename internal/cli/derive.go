package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/space"
)

// DeriveOps lists the derivations the derive command runs.
var DeriveOps = []string{"siblings", "cousins", "category", "path", "tension", "neighbors"}

var errUnknownDerive = errors.New("unknown derivation")

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	*RootOptions
	MaxDistance int // neighbors only; negative means the configured default
}

// NodeView is a node as printed by the CLI.
type NodeView struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Distance *int   `json:"distance,omitempty"`
}

func viewOf(n *space.Node) NodeView {
	return NodeView{Code: n.Code(), Label: n.Label}
}

func viewsOf(nodes []*space.Node) []NodeView {
	out := make([]NodeView, len(nodes))
	for i, n := range nodes {
		out[i] = viewOf(n)
	}
	return out
}

// DeriveResult is the derive command's output. Exactly one of Nodes,
// Path and Value is meaningful for a given Op.
type DeriveResult struct {
	Op     string     `json:"op"`
	Node   *NodeView  `json:"node,omitempty"`
	Target *NodeView  `json:"target,omitempty"`
	Major  int        `json:"major,omitempty"`
	Nodes  []NodeView `json:"nodes,omitempty"`
	Path   []string   `json:"path,omitempty"`
	Value  *float64   `json:"value,omitempty"`
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive <seed-file> <op> <label|major> [target]",
		Short: "Run one derivation over a seeded space",
		Long: `Load a seed document and run one derivation.

Operations:
  siblings  <label>           nodes sharing the node's major and type
  cousins   <label>           nodes sharing major, type and subtype
  category  <major>           every node in a major category (1-8)
  path      <label> <target>  first path found through relations, then siblings
  tension   <label>           (fork branches + 1) / (relations + 1)
  neighbors <label>           nodes within --max-distance, nearest first

A label may also be a coordinate code. Labels match case-insensitively;
the first node in insertion order wins.

Examples:
  axiom derive ./forest.yaml siblings feline
  axiom derive ./forest.yaml path feline animal
  axiom derive ./forest.yaml neighbors feline --max-distance 1
  axiom derive ./forest.yaml category 1 --format json`,
		Args:          cobra.RangeArgs(3, 4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDistance, "max-distance", -1, "neighbors: maximum tiered distance (0-4, default from config)")

	return cmd
}

func runDerive(opts *DeriveOptions, args []string, cmd *cobra.Command) error {
	path, op, subject := args[0], strings.ToLower(args[1]), args[2]
	f := opts.formatter(cmd)

	if !slices.Contains(DeriveOps, op) {
		return f.Fail(ExitCommandError, "invalid derivation",
			errors.Wrapf(errUnknownDerive, "%q (want one of %v)", op, DeriveOps))
	}
	if op == "path" && len(args) != 4 {
		return f.Fail(ExitCommandError, "invalid derivation", errors.Wrap(errUnknownDerive, "path needs a target label"))
	}

	s, err := openSession(opts.RootOptions, cmd, path)
	if err != nil {
		return err
	}

	result, err := derive(s, opts, op, subject, args[3:])
	if err != nil {
		return f.Fail(ExitCommandError, "derivation failed", err)
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	printDerive(cmd, result)
	return nil
}

func derive(s *session, opts *DeriveOptions, op, subject string, rest []string) (*DeriveResult, error) {
	result := &DeriveResult{Op: op}

	if op == "category" {
		major, err := strconv.Atoi(subject)
		if err != nil || major < coord.MinMajor || major > coord.MaxMajor {
			return nil, errors.Wrapf(coord.ErrRange, "major %q not in %d..%d", subject, coord.MinMajor, coord.MaxMajor)
		}
		result.Major = major
		result.Nodes = viewsOf(s.space.DeriveCategory(major))
		return result, nil
	}

	n, err := s.lookup(subject)
	if err != nil {
		return nil, err
	}
	v := viewOf(n)
	result.Node = &v

	switch op {
	case "siblings":
		result.Nodes = viewsOf(s.space.DeriveSiblings(n))
	case "cousins":
		result.Nodes = viewsOf(s.space.DeriveCousins(n))
	case "path":
		target, err := s.lookup(rest[0])
		if err != nil {
			return nil, err
		}
		tv := viewOf(target)
		result.Target = &tv
		result.Path = s.space.DerivePath(n, target).Labels()
	case "tension":
		t := s.space.DeriveTension(n)
		result.Value = &t
	case "neighbors":
		maxDistance := opts.MaxDistance
		if maxDistance < 0 {
			maxDistance = opts.Config.Space.NeighborDistance
		}
		for _, nb := range s.space.DeriveNeighbors(n, maxDistance) {
			view := viewOf(nb.Node)
			d := nb.Distance
			view.Distance = &d
			result.Nodes = append(result.Nodes, view)
		}
	}
	return result, nil
}

func printDerive(cmd *cobra.Command, r *DeriveResult) {
	w := cmd.OutOrStdout()
	switch {
	case r.Op == "category":
		fmt.Fprintf(w, "category %d (%s):\n", r.Major, coord.CategoryName(r.Major))
	case r.Target != nil:
		fmt.Fprintf(w, "%s %s (%s) -> %s (%s):\n", r.Op, r.Node.Label, r.Node.Code, r.Target.Label, r.Target.Code)
	default:
		fmt.Fprintf(w, "%s of %s (%s):\n", r.Op, r.Node.Label, r.Node.Code)
	}

	switch r.Op {
	case "path":
		if len(r.Path) == 0 {
			fmt.Fprintln(w, "  no path")
			return
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(r.Path, " -> "))
	case "tension":
		fmt.Fprintf(w, "  %.2f\n", *r.Value)
	default:
		if len(r.Nodes) == 0 {
			fmt.Fprintln(w, "  (none)")
			return
		}
		for _, n := range r.Nodes {
			if n.Distance != nil {
				fmt.Fprintf(w, "  %d  %s (%s)\n", *n.Distance, n.Label, n.Code)
			} else {
				fmt.Fprintf(w, "  %s (%s)\n", n.Label, n.Code)
			}
		}
	}
}
