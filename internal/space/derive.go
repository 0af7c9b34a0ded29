package space

import (
	"fmt"
	"sort"

	"github.com/roach88/axiom/internal/audit"
)

// ViaSibling marks a path step that crossed to a structural sibling rather
// than following a stored relation.
const ViaSibling = "(via sibling)"

// Step is one element of a derived path: either a node or a marker.
type Step struct {
	Node   *Node
	Marker string
}

// Path is a derived route between two nodes.
type Path []Step

// Nodes returns the node steps, markers dropped.
func (p Path) Nodes() []*Node {
	var out []*Node
	for _, st := range p {
		if st.Node != nil {
			out = append(out, st.Node)
		}
	}
	return out
}

// Labels renders each step: a node's label or the marker text.
func (p Path) Labels() []string {
	out := make([]string, len(p))
	for i, st := range p {
		if st.Node != nil {
			out[i] = st.Node.Label
		} else {
			out[i] = st.Marker
		}
	}
	return out
}

// Neighbor is a node and its distance from the query node.
type Neighbor struct {
	Node     *Node
	Distance int
}

// DeriveSiblings returns the nodes sharing n's major and type, excluding n.
func (s *Space) DeriveSiblings(n *Node) []*Node {
	s.chain.Append(ActionDerive, audit.S("siblings"), audit.S(n.Code()))
	var out []*Node
	for _, code := range s.order {
		other := s.nodes[code]
		if code != n.Code() && other.ID.SharesType(n.ID) {
			out = append(out, other)
		}
	}
	return out
}

// DeriveCousins returns the nodes sharing n's major, type and subtype, excluding n.
func (s *Space) DeriveCousins(n *Node) []*Node {
	s.chain.Append(ActionDerive, audit.S("cousins"), audit.S(n.Code()))
	var out []*Node
	for _, code := range s.order {
		other := s.nodes[code]
		if code != n.Code() && other.ID.SharesSubtype(n.ID) {
			out = append(out, other)
		}
	}
	return out
}

// DeriveCategory returns every node whose major equals major.
func (s *Space) DeriveCategory(major int) []*Node {
	s.chain.Append(ActionDerive, audit.S("category"), audit.I(major))
	var out []*Node
	for _, code := range s.order {
		if n := s.nodes[code]; n.ID.Major() == major {
			out = append(out, n)
		}
	}
	return out
}

// DerivePath searches for a route from start to end. Returns nil if none.
//
// Depth-first: every stored relation of start (kinds in insertion order,
// targets in insertion order) is tried first; a direct hit on end returns
// immediately, otherwise the target is recursed into. Only when no relation
// reaches end does the search detour through each unvisited structural
// sibling of start, inserting a ViaSibling marker.
//
// The result is the FIRST path found in that order, not the shortest.
// The sibling fallback re-derives siblings (and logs a DERIVE entry) at
// every level of the recursion, so on dense sibling sets it is roughly
// O(n^2) in node count and floods the audit chain.
func (s *Space) DerivePath(start, end *Node) Path {
	if stored, ok := s.nodes[start.Code()]; ok {
		start = stored
	}
	return s.derivePath(start, end, make(map[string]bool))
}

func (s *Space) derivePath(start, end *Node, visited map[string]bool) Path {
	if start.Code() == end.Code() {
		return Path{{Node: start}}
	}
	if visited[start.Code()] {
		return nil
	}
	visited[start.Code()] = true

	for _, kind := range start.kinds {
		for _, target := range start.relations[kind] {
			if target == end.Code() {
				s.chain.Append(ActionDerive, audit.S("path"), audit.S(start.Code()), audit.S("->"), audit.S(end.Code()))
				return Path{{Node: start}, {Node: end}}
			}
			next, ok := s.nodes[target]
			if !ok {
				continue
			}
			if sub := s.derivePath(next, end, visited); sub != nil {
				return append(Path{{Node: start}}, sub...)
			}
		}
	}

	for _, sibling := range s.DeriveSiblings(start) {
		if visited[sibling.Code()] {
			continue
		}
		if sub := s.derivePath(sibling, end, visited); sub != nil {
			return append(Path{{Node: start}, {Marker: ViaSibling}}, sub...)
		}
	}
	return nil
}

// DeriveTension is (fork branches + 1) / (relations + 1). A node split into
// many senses but poorly connected scores high; 1.0 means neither.
func (s *Space) DeriveTension(n *Node) float64 {
	if stored, ok := s.nodes[n.Code()]; ok {
		n = stored
	}
	branches := 0
	if f, ok := s.forks[n.Code()]; ok {
		branches = f.BranchCount()
	}
	tension := float64(branches+1) / float64(n.RelationCount()+1)
	s.chain.Append(ActionDerive, audit.S("tension"), audit.S(n.Code()), audit.S(fmt.Sprintf("%.2f", tension)))
	return tension
}

// DeriveNeighbors returns every other node within maxDistance of n,
// ascending by distance. Ties keep insertion order.
func (s *Space) DeriveNeighbors(n *Node, maxDistance int) []Neighbor {
	s.chain.Append(ActionDerive, audit.S("neighbors"), audit.S(n.Code()), audit.I(maxDistance))
	var out []Neighbor
	for _, code := range s.order {
		if code == n.Code() {
			continue
		}
		other := s.nodes[code]
		if d := n.ID.Distance(other.ID); d <= maxDistance {
			out = append(out, Neighbor{Node: other, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}
