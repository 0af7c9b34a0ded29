package cli

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/space"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Scale    int    // nodes in the scaling section; 0 skips it
	RandSeed uint64 // seed for the scaling section's coordinates
}

// DemoSeed is the first section: six planted concepts and what derives from them.
type DemoSeed struct {
	StoredNodes     int           `json:"stored_nodes"`
	StoredRelations int           `json:"stored_relations"`
	Siblings        []string      `json:"siblings"`
	Category        []string      `json:"category"`
	Path            []string      `json:"path"`
	Distance        int           `json:"distance"`
	Branches        []NodeView    `json:"branches"`
	Tension         float64       `json:"tension"`
	Neighbors       []NodeView    `json:"neighbors"`
	LastEntries     []EntryView   `json:"last_entries"`
	Summary         space.Summary `json:"summary"`
}

// DemoScale is the second section: many generated concepts.
type DemoScale struct {
	Nodes           int     `json:"nodes"`
	Relations       int     `json:"relations"`
	TestNode        string  `json:"test_node"`
	TestCategory    string  `json:"test_category"`
	Siblings        int     `json:"siblings"`
	CategoryMembers int     `json:"category_members"`
	DerivationRatio float64 `json:"derivation_ratio"`
}

// DemoResult is the demo command's output.
type DemoResult struct {
	Seed  DemoSeed   `json:"seed"`
	Scale *DemoScale `json:"scale,omitempty"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk from a six-node seed to a derived forest",
		Long: `Plant six concepts and three relations, then derive siblings, a
category, a path and a distance from their coordinates. Fork the ambiguous
"jaguar", measure its tension and list its neighbors. Finally generate
--scale random concepts to show how the derivable query space outgrows
what is stored.

Examples:
  axiom demo
  axiom demo --scale 0
  axiom demo --scale 5000 --rand-seed 7 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Scale, "scale", 1000, "concepts to generate in the scaling section (0 to skip)")
	cmd.Flags().Uint64Var(&opts.RandSeed, "rand-seed", 1, "random seed for generated coordinates")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Scale < 0 || opts.Scale > coord.MaxInstance {
		return f.Fail(ExitCommandError, "invalid --scale",
			errors.Wrapf(coord.ErrRange, "%d not in 0..%d", opts.Scale, coord.MaxInstance))
	}

	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	seedPart, err := demoSeed(s)
	if err != nil {
		return f.Fail(ExitFailure, "demo failed", err)
	}
	result := DemoResult{Seed: *seedPart}

	if opts.Scale > 0 {
		scaled, err := newSession(opts.RootOptions, cmd)
		if err != nil {
			return err
		}
		scalePart, err := demoScale(scaled, opts.Scale, opts.RandSeed)
		if err != nil {
			return f.Fail(ExitFailure, "demo failed", err)
		}
		result.Scale = scalePart
	}

	if opts.Format == "json" {
		return f.Success(result)
	}
	printDemo(cmd, result)
	return nil
}

func demoSeed(s *session) (*DemoSeed, error) {
	sp := s.space
	add := func(major, typ, subtype, instance int, label string) (*space.Node, error) {
		id, err := coord.New(major, typ, subtype, instance)
		if err != nil {
			return nil, err
		}
		return sp.Add(space.NewNode(id, label, nil))
	}

	planted := []struct {
		major, typ, subtype, instance int
		label                         string
	}{
		{1, 1, 1, 1, "animal"},
		{1, 1, 2, 1, "feline"},
		{1, 1, 3, 1, "canine"},
		{1, 2, 1, 1, "vehicle"},
		{1, 2, 2, 1, "car"},
		{1, 1, 2, 2, "jaguar"},
	}
	nodes := make(map[string]*space.Node, len(planted))
	for _, p := range planted {
		n, err := add(p.major, p.typ, p.subtype, p.instance, p.label)
		if err != nil {
			return nil, err
		}
		nodes[p.label] = n
	}
	for _, r := range [][2]string{{"feline", "animal"}, {"canine", "animal"}, {"car", "vehicle"}} {
		if err := sp.AddRelation(nodes[r[0]], space.IsA, nodes[r[1]]); err != nil {
			return nil, err
		}
	}

	out := &DemoSeed{
		StoredNodes:     sp.NodeCount(),
		StoredRelations: sp.RelationCount(),
		Siblings:        labelsOf(sp.DeriveSiblings(nodes["feline"])),
		Category:        labelsOf(sp.DeriveCategory(1)),
		Path:            sp.DerivePath(nodes["feline"], nodes["animal"]).Labels(),
		Distance:        nodes["feline"].ID.Distance(nodes["car"].ID),
	}

	_, branches, err := sp.CreateFork(nodes["jaguar"], []string{"animal", "car"})
	if err != nil {
		return nil, err
	}
	if err := sp.AddRelation(branches[0], space.IsA, nodes["feline"]); err != nil {
		return nil, err
	}
	if err := sp.AddRelation(branches[1], space.IsA, nodes["car"]); err != nil {
		return nil, err
	}
	out.Branches = viewsOf(branches)
	out.Tension = sp.DeriveTension(nodes["jaguar"])

	for _, nb := range sp.DeriveNeighbors(nodes["feline"], space.DefaultNeighborDistance) {
		view := viewOf(nb.Node)
		d := nb.Distance
		view.Distance = &d
		out.Neighbors = append(out.Neighbors, view)
	}

	out.LastEntries = entryViews(sp.Chain().Last(5))
	out.Summary = sp.Summary()
	return out, nil
}

func demoScale(s *session, count int, seed uint64) (*DemoScale, error) {
	sp := s.space
	rng := rand.New(rand.NewPCG(seed, seed))

	var stored []*space.Node
	for i := range count {
		id, err := coord.New(rng.IntN(coord.MaxMajor)+1, rng.IntN(16)+1, rng.IntN(16)+1, i+1)
		if err != nil {
			return nil, err
		}
		n := space.NewNode(id, fmt.Sprintf("concept_%d", i), nil)
		// Sparse relations, about one node in ten.
		if i > 0 && rng.Float64() < 0.1 {
			if _, err := n.AddRelation(space.SimilarTo, stored[rng.IntN(len(stored))]); err != nil {
				return nil, err
			}
		}
		if _, err := sp.Add(n); err != nil {
			return nil, err
		}
		stored = append(stored, n)
	}

	test := stored[rng.IntN(len(stored))]
	return &DemoScale{
		Nodes:           sp.NodeCount(),
		Relations:       sp.RelationCount(),
		TestNode:        fmt.Sprintf("%s (%s)", test.Label, test.Code()),
		TestCategory:    test.ID.CategoryName(),
		Siblings:        len(sp.DeriveSiblings(test)),
		CategoryMembers: len(sp.DeriveCategory(test.ID.Major())),
		DerivationRatio: sp.DerivationRatio(),
	}, nil
}

func labelsOf(nodes []*space.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

func printDemo(cmd *cobra.Command, r DemoResult) {
	w := cmd.OutOrStdout()
	sd := r.Seed

	fmt.Fprintln(w, "[1] Seed")
	fmt.Fprintf(w, "    stored nodes:     %d\n", sd.StoredNodes)
	fmt.Fprintf(w, "    stored relations: %d\n\n", sd.StoredRelations)

	fmt.Fprintln(w, "[2] Derivation")
	fmt.Fprintf(w, "    siblings of feline:  %s\n", strings.Join(sd.Siblings, ", "))
	fmt.Fprintf(w, "    category 1:          %s\n", strings.Join(sd.Category, ", "))
	fmt.Fprintf(w, "    feline -> animal:    %s\n", strings.Join(sd.Path, " -> "))
	fmt.Fprintf(w, "    distance feline/car: %d\n\n", sd.Distance)

	fmt.Fprintln(w, "[3] Fork")
	for _, b := range sd.Branches {
		fmt.Fprintf(w, "    %s (%s)\n", b.Label, b.Code)
	}
	fmt.Fprintf(w, "    tension at jaguar: %.2f\n", sd.Tension)
	fmt.Fprintln(w, "    neighbors of feline:")
	for _, n := range sd.Neighbors {
		fmt.Fprintf(w, "      %d  %s (%s)\n", *n.Distance, n.Label, n.Code)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[4] Audit")
	fmt.Fprintf(w, "    entries: %d, chain valid: %t\n", sd.Summary.AuditEntries, sd.Summary.ChainValid)
	for _, e := range sd.LastEntries {
		fmt.Fprintf(w, "      [%s...] %s %v\n", shortHash(e.Hash), e.Action, e.Args)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[5] Stored")
	fmt.Fprintf(w, "    %d nodes, %d relations, %d forks\n", sd.Summary.Nodes, sd.Summary.Relations, sd.Summary.Forks)

	if r.Scale == nil {
		return
	}
	sc := r.Scale
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[6] Scale")
	fmt.Fprintf(w, "    stored nodes:     %d\n", sc.Nodes)
	fmt.Fprintf(w, "    stored relations: %d\n", sc.Relations)
	fmt.Fprintf(w, "    test node:        %s, %s\n", sc.TestNode, sc.TestCategory)
	fmt.Fprintf(w, "    siblings:         %d\n", sc.Siblings)
	fmt.Fprintf(w, "    category members: %d\n", sc.CategoryMembers)
	fmt.Fprintf(w, "    derivation ratio: %.0fx more derivable pairs than stored facts\n", sc.DerivationRatio)
}
