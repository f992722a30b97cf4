// Package neo4jgraph reads the protein knowledge graph from a Neo4j database.
package neo4jgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

// Config holds connection settings.
type Config struct {
	URL      string
	User     string
	Password string
	Database string // Empty selects the server default
}

// ErrNoURL is returned when Open is called without a connection URL.
var ErrNoURL = errors.New("neo4j URL is required")

// Graph is a read-only knowledge graph backed by Neo4j.
type Graph struct {
	driver   neo4j.DriverWithContext
	database string
}

var (
	_ source.Source   = (*Graph)(nil)
	_ source.Searcher = (*Graph)(nil)
)

// Open connects to Neo4j and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Graph, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URL, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, source.Transport(fmt.Errorf("connecting to %s: %w", cfg.URL, err))
	}
	return &Graph{driver: driver, database: cfg.Database}, nil
}

// Close releases the driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// read runs a read-only query and hands every record to fn.
func (g *Graph) read(ctx context.Context, query string, params map[string]any, fn func(*neo4j.Record) error) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return source.Transport(err)
	}
	for result.Next(ctx) {
		if err := fn(result.Record()); err != nil {
			return err
		}
	}
	if err := result.Err(); err != nil {
		return source.Transport(err)
	}
	return nil
}

func recordNode(record *neo4j.Record, key string) (node.Node, bool, error) {
	n, isNil, err := neo4j.GetRecordValue[neo4j.Node](record, key)
	if err != nil {
		return node.Node{}, false, fmt.Errorf("reading %s: %w", key, err)
	}
	if isNil {
		return node.Node{}, false, nil
	}
	out, err := nodeFromRecord(n.Labels, n.Props)
	if err != nil {
		return node.Node{}, false, err
	}
	return out, true, nil
}

// FetchDetails implements source.DetailFetcher.
func (g *Graph) FetchDetails(ctx context.Context, ref node.Ref) (node.Node, error) {
	query := fmt.Sprintf("MATCH (n%s {uuid: $id}) RETURN n LIMIT 1", labelClause(ref.Kind))

	var found *node.Node
	err := g.read(ctx, query, map[string]any{"id": ref.ID}, func(r *neo4j.Record) error {
		n, ok, err := recordNode(r, "n")
		if err != nil {
			return err
		}
		if ok {
			found = &n
		}
		return nil
	})
	if err != nil {
		return node.Node{}, err
	}
	if found == nil {
		return node.Node{}, source.NotFound(ref.ID)
	}
	return *found, nil
}

// neighborsQuery yields one null row for an isolated node and no rows for a
// missing one. The label restricts neighbors to one kind.
func neighborsQuery(label string) string {
	return fmt.Sprintf(`
	MATCH (n {uuid: $id})
	OPTIONAL MATCH (n)-[*1]-(c%s)
	RETURN DISTINCT c
	ORDER BY c.uuid`, label)
}

// FetchNeighbors implements source.NeighborLookup.
func (g *Graph) FetchNeighbors(ctx context.Context, id string) ([]node.Node, error) {
	return g.FetchNeighborsOfKind(ctx, id, "")
}

// FetchNeighborsOfKind implements source.KindNeighborLookup. Kinds without a
// label are filtered after the query.
func (g *Graph) FetchNeighborsOfKind(ctx context.Context, id string, kind node.Kind) ([]node.Node, error) {
	label := labelClause(kind)
	rows := 0
	var out []node.Node
	err := g.read(ctx, neighborsQuery(label), map[string]any{"id": id}, func(r *neo4j.Record) error {
		rows++
		n, ok, err := recordNode(r, "c")
		if err != nil {
			return err
		}
		if !ok || n.ID == id {
			return nil
		}
		if kind != "" && label == "" && n.Kind != kind {
			return nil
		}
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, source.NotFound(id)
	}
	return out, nil
}

// pathQuery bounds the variable-length pattern inline since Cypher does not
// accept parameters there.
func pathQuery(maxHops int) string {
	return fmt.Sprintf(`
	MATCH (a {uuid: $start}), (b {uuid: $end})
	OPTIONAL MATCH p = shortestPath((a)-[*..%d]-(b))
	RETURN a, p`, source.NormalizeHops(maxHops))
}

// FetchPath implements source.PathResolver.
func (g *Graph) FetchPath(ctx context.Context, startID, endID string, maxHops int) ([]node.Node, error) {
	if startID == endID {
		n, err := g.FetchDetails(ctx, node.Ref{ID: startID})
		if err != nil {
			return nil, err
		}
		return []node.Node{{ID: n.ID, Kind: n.Kind}}, nil
	}

	rows := 0
	var out []node.Node
	params := map[string]any{"start": startID, "end": endID}
	err := g.read(ctx, pathQuery(maxHops), params, func(r *neo4j.Record) error {
		rows++
		p, isNil, err := neo4j.GetRecordValue[neo4j.Path](r, "p")
		if err != nil {
			return fmt.Errorf("reading path: %w", err)
		}
		if isNil {
			return nil
		}
		for _, pn := range p.Nodes {
			n, err := nodeFromRecord(pn.Labels, pn.Props)
			if err != nil {
				return err
			}
			out = append(out, node.Node{ID: n.ID, Kind: n.Kind})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, g.missingEndpoint(ctx, startID, endID)
	}
	if out == nil {
		out = []node.Node{}
	}
	return out, nil
}

// missingEndpoint reports which of two IDs does not resolve.
func (g *Graph) missingEndpoint(ctx context.Context, startID, endID string) error {
	if _, err := g.FetchDetails(ctx, node.Ref{ID: startID}); err != nil {
		return err
	}
	return source.NotFound(endID)
}

// Search implements source.Searcher with a case-insensitive substring match
// on name and external identifiers.
func (g *Graph) Search(ctx context.Context, query string, kind node.Kind, limit int) ([]node.Node, error) {
	if limit <= 0 {
		limit = 50
	}
	cypher := fmt.Sprintf(`
	MATCH (n%s)
	WHERE toLower(coalesce(n.name, '')) CONTAINS toLower($q)
	   OR toLower(coalesce(n.id, '')) CONTAINS toLower($q)
	   OR n.uuid = $q
	RETURN n
	ORDER BY n.uuid
	LIMIT $limit`, labelClause(kind))

	var out []node.Node
	err := g.read(ctx, cypher, map[string]any{"q": query, "limit": int64(limit)}, func(r *neo4j.Record) error {
		n, ok, err := recordNode(r, "n")
		if err != nil {
			return err
		}
		if ok {
			out = append(out, n)
		}
		return nil
	})
	return out, err
}
