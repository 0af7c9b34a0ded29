package space

// DefaultNeighborDistance is the conventional maxDistance for DeriveNeighbors.
const DefaultNeighborDistance = 2

// NodeCount is the number of stored nodes.
func (s *Space) NodeCount() int {
	return len(s.nodes)
}

// RelationCount sums stored relations over all nodes.
func (s *Space) RelationCount() int {
	total := 0
	for _, n := range s.nodes {
		total += n.RelationCount()
	}
	return total
}

// ForkCount is the number of registered forks (one per source, at most).
func (s *Space) ForkCount() int {
	return len(s.forks)
}

// DerivationRatio is nodes^2 / (nodes + relations), 0 for an empty store:
// a coarse measure of how many pairwise queries exist per stored fact.
func (s *Space) DerivationRatio() float64 {
	nodes := s.NodeCount()
	stored := nodes + s.RelationCount()
	if stored == 0 {
		return 0
	}
	return float64(nodes*nodes) / float64(stored)
}

// Summary is a point-in-time snapshot of store and chain statistics.
type Summary struct {
	Nodes           int     `json:"nodes"`
	Relations       int     `json:"relations"`
	Forks           int     `json:"forks"`
	DerivationRatio float64 `json:"derivation_ratio"`
	AuditEntries    int     `json:"audit_entries"`
	ChainValid      bool    `json:"chain_valid"`
}

// Summary collects statistics. It verifies the chain, O(n) in chain length.
func (s *Space) Summary() Summary {
	return Summary{
		Nodes:           s.NodeCount(),
		Relations:       s.RelationCount(),
		Forks:           s.ForkCount(),
		DerivationRatio: s.DerivationRatio(),
		AuditEntries:    s.chain.Len(),
		ChainValid:      s.chain.Verify(),
	}
}
