package storage

import (
	"context"

	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

// Source serves a local database through the source.Source contract.
type Source struct {
	db *DB
}

var (
	_ source.Source   = (*Source)(nil)
	_ source.Searcher = (*Source)(nil)
)

// NewSource wraps db.
func NewSource(db *DB) *Source {
	return &Source{db: db}
}

// FetchDetails implements source.DetailFetcher.
func (s *Source) FetchDetails(ctx context.Context, ref node.Ref) (node.Node, error) {
	if err := ctx.Err(); err != nil {
		return node.Node{}, err
	}
	n, err := s.db.GetNode(ref.ID)
	if err != nil {
		return node.Node{}, source.Transport(err)
	}
	if n == nil {
		return node.Node{}, source.NotFound(ref.ID)
	}
	return *n, nil
}

// FetchPath implements source.PathResolver.
func (s *Source) FetchPath(ctx context.Context, startID, endID string, maxHops int) ([]node.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, id := range []string{startID, endID} {
		n, err := s.db.GetNode(id)
		if err != nil {
			return nil, source.Transport(err)
		}
		if n == nil {
			return nil, source.NotFound(id)
		}
	}
	ids, err := s.db.ShortestPath(startID, endID, source.NormalizeHops(maxHops))
	if err != nil {
		return nil, source.Transport(err)
	}

	out := make([]node.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.db.GetNode(id)
		if err != nil {
			return nil, source.Transport(err)
		}
		if n == nil {
			return nil, source.NotFound(id)
		}
		out = append(out, node.Node{ID: n.ID, Kind: n.Kind})
	}
	return out, nil
}

// FetchNeighbors implements source.NeighborLookup.
func (s *Source) FetchNeighbors(ctx context.Context, id string) ([]node.Node, error) {
	return s.FetchNeighborsOfKind(ctx, id, "")
}

// FetchNeighborsOfKind implements source.KindNeighborLookup.
func (s *Source) FetchNeighborsOfKind(ctx context.Context, id string, kind node.Kind) ([]node.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.db.GetNode(id)
	if err != nil {
		return nil, source.Transport(err)
	}
	if n == nil {
		return nil, source.NotFound(id)
	}
	nbrs, err := s.db.NeighborsOfKind(id, kind)
	if err != nil {
		return nil, source.Transport(err)
	}
	return nbrs, nil
}

// Search implements source.Searcher.
func (s *Source) Search(ctx context.Context, query string, kind node.Kind, limit int) ([]node.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := s.db.Search(query, kind, limit)
	if err != nil {
		return nil, source.Transport(err)
	}
	return nodes, nil
}
