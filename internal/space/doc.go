// Package space stores positioned nodes and derives relationships from their
// coordinates and sparse relations.
//
// Stored: nodes (coordinate, label, metadata, typed relation targets) and
// forks (explicit ambiguity records). Derived on demand: siblings, cousins,
// category members, paths, tension and neighbors.
//
// Every mutation (ADD, RELATE, FORK, RESOLVE) and every derivation query
// (DERIVE) is appended to the Space's audit chain, so the chain is the full
// record of what was stored and what was asked.
//
// There is no delete. Relation targets and fork branches are coordinate codes
// looked up in the owning table, never pointers.
package space
