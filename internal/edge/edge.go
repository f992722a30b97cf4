// Package edge defines the core domain types for knowledge graph edges.
package edge

import (
	"errors"
)

// Edge connects two nodes. The stored relationship has a direction and a type
// (e.g. HAS_PROTEIN), but a rendered edge is identified by its unordered pair.
type Edge struct {
	SourceID         string `json:"source_id"`
	TargetID         string `json:"target_id"`
	RelationshipType string `json:"relationship_type,omitempty"`
}

// Validation errors.
var (
	ErrEmptySourceID = errors.New("source_id is required")
	ErrEmptyTargetID = errors.New("target_id is required")
	ErrSelfEdge      = errors.New("source_id and target_id cannot be the same")
)

// New returns an untyped edge between a and b.
func New(a, b string) Edge {
	return Edge{SourceID: a, TargetID: b}
}

// Validate checks that the edge has two distinct endpoints.
func (e *Edge) Validate() error {
	if e.SourceID == "" {
		return ErrEmptySourceID
	}
	if e.TargetID == "" {
		return ErrEmptyTargetID
	}
	if e.SourceID == e.TargetID {
		return ErrSelfEdge
	}
	return nil
}

// Key returns the unordered identity of this edge.
func (e Edge) Key() Pair {
	return MakePair(e.SourceID, e.TargetID)
}

// Pair is an unordered pair of node IDs, normalized so that A <= B.
type Pair struct {
	A string
	B string
}

// MakePair builds a normalized pair from two IDs in any order.
func MakePair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Edge returns an untyped edge for this pair.
func (p Pair) Edge() Edge {
	return Edge{SourceID: p.A, TargetID: p.B}
}

// Has reports whether id is one of the pair's endpoints.
func (p Pair) Has(id string) bool {
	return p.A == id || p.B == id
}

// OrphanedEdgeInfo describes an edge that names a node the graph lacks.
type OrphanedEdgeInfo struct {
	SourceID         string `json:"source_id"`
	TargetID         string `json:"target_id"`
	RelationshipType string `json:"relationship_type,omitempty"`
	Reason           string `json:"reason"` // missing_source, missing_target or missing_both
}

// DetectOrphanedEdges splits edges into those whose endpoints are both in
// known and those that are not, preserving input order in each.
func DetectOrphanedEdges(edges []Edge, known map[string]bool) (orphaned []OrphanedEdgeInfo, valid []Edge) {
	reasons := [2][2]string{
		{"missing_both", "missing_source"},
		{"missing_target", ""},
	}
	for _, e := range edges {
		var s, t int
		if known[e.SourceID] {
			s = 1
		}
		if known[e.TargetID] {
			t = 1
		}
		if reason := reasons[s][t]; reason != "" {
			orphaned = append(orphaned, OrphanedEdgeInfo{
				SourceID:         e.SourceID,
				TargetID:         e.TargetID,
				RelationshipType: e.RelationshipType,
				Reason:           reason,
			})
			continue
		}
		valid = append(valid, e)
	}
	return orphaned, valid
}

// FindDuplicateEdges counts edges per unordered pair and keeps only the
// pairs seen more than once.
func FindDuplicateEdges(edges []Edge) map[Pair]int {
	counts := make(map[Pair]int, len(edges))
	for _, e := range edges {
		counts[e.Key()]++
	}
	for p, n := range counts {
		if n < 2 {
			delete(counts, p)
		}
	}
	return counts
}
