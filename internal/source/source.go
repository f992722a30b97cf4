// Package source defines the contract between the neighborhood builder and
// the external knowledge graph it reads from.
package source

import (
	"context"

	"github.com/matsen/pdbkg/internal/node"
)

// DefaultMaxHops bounds path searches when the caller passes zero.
const DefaultMaxHops = 6

// DetailFetcher retrieves full node attributes.
type DetailFetcher interface {
	// FetchDetails fails with ErrNotFound if the ID no longer resolves.
	FetchDetails(ctx context.Context, ref node.Ref) (node.Node, error)
}

// PathResolver finds a connecting path between two nodes.
type PathResolver interface {
	// FetchPath returns the ordered nodes of a shortest path from start to
	// end, endpoints included. An empty slice means no path exists within
	// maxHops and is not an error.
	FetchPath(ctx context.Context, startID, endID string, maxHops int) ([]node.Node, error)
}

// NeighborLookup lists the one-hop neighbors of a node.
type NeighborLookup interface {
	FetchNeighbors(ctx context.Context, id string) ([]node.Node, error)
}

// Source is a complete knowledge graph backend.
type Source interface {
	DetailFetcher
	PathResolver
	NeighborLookup
}

// KindNeighborLookup is implemented by backends that can filter neighbors by
// kind without returning the rest.
type KindNeighborLookup interface {
	FetchNeighborsOfKind(ctx context.Context, id string, kind node.Kind) ([]node.Node, error)
}

// NeighborsOfKind returns the one-hop neighbors of id that have the given
// kind. An empty kind returns every neighbor.
func NeighborsOfKind(ctx context.Context, src NeighborLookup, id string, kind node.Kind) ([]node.Node, error) {
	if kind == "" {
		return src.FetchNeighbors(ctx, id)
	}
	if kl, ok := src.(KindNeighborLookup); ok {
		return kl.FetchNeighborsOfKind(ctx, id, kind)
	}
	nbrs, err := src.FetchNeighbors(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]node.Node, 0, len(nbrs))
	for _, n := range nbrs {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out, nil
}

// FetchAnnotated returns the proteins directly linked to an annotation node
// such as a GO term, EC number or pathway.
func FetchAnnotated(ctx context.Context, src NeighborLookup, annotationID string) ([]node.Node, error) {
	return NeighborsOfKind(ctx, src, annotationID, node.KindProtein)
}

// NormalizeHops returns maxHops, or DefaultMaxHops when maxHops <= 0.
func NormalizeHops(maxHops int) int {
	if maxHops <= 0 {
		return DefaultMaxHops
	}
	return maxHops
}

// Searcher finds nodes by free text. An empty kind matches every kind.
type Searcher interface {
	Search(ctx context.Context, query string, kind node.Kind, limit int) ([]node.Node, error)
}
