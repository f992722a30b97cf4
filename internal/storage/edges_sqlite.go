package storage

import (
	"database/sql"
	"fmt"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/node"
)

// InsertEdge inserts a single relationship. Both endpoints must exist.
func (d *DB) InsertEdge(e edge.Edge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, id := range []string{e.SourceID, e.TargetID} {
		n, err := d.GetNode(id)
		if err != nil {
			return fmt.Errorf("checking endpoint %s: %w", id, err)
		}
		if n == nil {
			return fmt.Errorf("%w: %s", ErrUnknownEndpoint, id)
		}
	}

	_, err := d.db.Exec(`
		INSERT OR IGNORE INTO relationships (source_id, target_id, relationship_type)
		VALUES (?, ?, ?)
	`, e.SourceID, e.TargetID, e.RelationshipType)
	if err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	d.invalidateTopology()
	return nil
}

// EdgesOf returns every relationship touching id, in either direction.
func (d *DB) EdgesOf(id string) ([]edge.Edge, error) {
	rows, err := d.db.Query(`
		SELECT source_id, target_id, relationship_type
		FROM relationships
		WHERE source_id = ? OR target_id = ?
		ORDER BY source_id, target_id, relationship_type
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying edges of %s: %w", id, err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// AllEdges returns all relationships in the database.
func (d *DB) AllEdges() ([]edge.Edge, error) {
	rows, err := d.db.Query(`
		SELECT source_id, target_id, relationship_type
		FROM relationships
		ORDER BY source_id, target_id, relationship_type
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// Neighbors returns the nodes one hop from id, ignoring direction and
// relationship type, ordered by ID.
func (d *DB) Neighbors(id string) ([]node.Node, error) {
	return d.neighbors(id, "")
}

// NeighborsOfKind is Neighbors restricted to nodes of one kind. An empty kind
// matches every kind.
func (d *DB) NeighborsOfKind(id string, kind node.Kind) ([]node.Node, error) {
	return d.neighbors(id, kind)
}

func (d *DB) neighbors(id string, kind node.Kind) ([]node.Node, error) {
	rows, err := d.db.Query(`
		SELECT `+selectNodeFields+`
		FROM nodes
		WHERE id IN (
			SELECT target_id FROM relationships WHERE source_id = ?1
			UNION
			SELECT source_id FROM relationships WHERE target_id = ?1
		) AND id != ?1 AND (?2 = '' OR kind = ?2)
		ORDER BY id
	`, id, string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying neighbors of %s: %w", id, err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// CountEdges returns the total number of relationships.
func (d *DB) CountEdges() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM relationships").Scan(&count)
	return count, err
}

// scanEdges scans rows into a slice of edges.
func scanEdges(rows *sql.Rows) ([]edge.Edge, error) {
	var edges []edge.Edge
	for rows.Next() {
		var e edge.Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.RelationshipType); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
