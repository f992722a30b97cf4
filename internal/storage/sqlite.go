package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/node"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB

	topoMu sync.Mutex
	topo   *topology // Built lazily for path queries; nil when stale
}

// selectNodeFields contains the standard field list for SELECT queries.
const selectNodeFields = `id, kind, external_id, entry_id, name, description,
	sequence, synonyms_json, extra_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			external_id TEXT,
			entry_id TEXT,
			name TEXT,
			description TEXT,
			sequence TEXT,
			synonyms_json TEXT,
			extra_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
		CREATE INDEX IF NOT EXISTS idx_nodes_external ON nodes(external_id) WHERE external_id IS NOT NULL;

		-- Relationships are undirected; endpoints are stored as written
		CREATE TABLE IF NOT EXISTS relationships (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			relationship_type TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (source_id, target_id, relationship_type)
		);

		CREATE INDEX IF NOT EXISTS idx_rel_source ON relationships(source_id);
		CREATE INDEX IF NOT EXISTS idx_rel_target ON relationships(target_id);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			id,
			external_id,
			name,
			description,
			synonyms_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildStats summarizes a rebuild.
type RebuildStats struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Orphans int `json:"orphans"`
	// DuplicatePairs counts node pairs joined by more than one stored
	// relationship. They render as a single edge.
	DuplicatePairs int `json:"duplicate_pairs"`
}

// RebuildFromJSONL clears the database and rebuilds it from the nodes and
// edges JSONL files. Edges whose endpoints are not among the nodes are
// skipped and reported in the orphan count.
func (d *DB) RebuildFromJSONL(nodesPath, edgesPath string) (RebuildStats, error) {
	var stats RebuildStats
	nodes, err := ReadAllNodes(nodesPath)
	if err != nil {
		return stats, fmt.Errorf("reading nodes JSONL: %w", err)
	}
	edges, err := ReadAllEdges(edgesPath)
	if err != nil {
		return stats, fmt.Errorf("reading edges JSONL: %w", err)
	}

	validIDs := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		validIDs[n.ID] = true
	}
	orphaned, valid := edge.DetectOrphanedEdges(edges, validIDs)

	tx, err := d.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "nodes_fts", "relationships"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return stats, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	for _, n := range nodes {
		if err := insertNode(tx, n); err != nil {
			return stats, err
		}
	}

	relStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO relationships (source_id, target_id, relationship_type)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return stats, fmt.Errorf("preparing relationships insert: %w", err)
	}
	defer relStmt.Close()

	for _, e := range valid {
		if _, err := relStmt.Exec(e.SourceID, e.TargetID, e.RelationshipType); err != nil {
			return stats, fmt.Errorf("inserting edge %s-%s: %w", e.SourceID, e.TargetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing rebuild: %w", err)
	}
	d.invalidateTopology()

	stats.Nodes = len(nodes)
	stats.Edges = len(valid)
	stats.Orphans = len(orphaned)
	stats.DuplicatePairs = len(edge.FindDuplicateEdges(valid))
	return stats, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// insertNode replaces a node row and its full-text entry.
func insertNode(x execer, n node.Node) error {
	var synonymsJSON, extraJSON []byte
	var err error
	if len(n.Synonyms) > 0 {
		if synonymsJSON, err = json.Marshal(n.Synonyms); err != nil {
			return fmt.Errorf("marshaling synonyms for %s: %w", n.ID, err)
		}
	}
	if len(n.Extra) > 0 {
		if extraJSON, err = json.Marshal(n.Extra); err != nil {
			return fmt.Errorf("marshaling extra fields for %s: %w", n.ID, err)
		}
	}

	_, err = x.Exec(`
		INSERT OR REPLACE INTO nodes (`+selectNodeFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind),
		nullableStringValue(n.ExternalID), nullableStringValue(n.EntryID),
		nullableStringValue(n.Name), nullableStringValue(n.Description),
		nullableStringValue(n.Sequence),
		nullableString(synonymsJSON), nullableString(extraJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting node %s: %w", n.ID, err)
	}

	if _, err := x.Exec("DELETE FROM nodes_fts WHERE id = ?", n.ID); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", n.ID, err)
	}
	_, err = x.Exec(`
		INSERT INTO nodes_fts (id, external_id, name, description, synonyms_text)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.ExternalID, n.Name, n.Description, strings.Join(n.Synonyms, " "),
	)
	if err != nil {
		return fmt.Errorf("inserting fts for %s: %w", n.ID, err)
	}
	return nil
}

// InsertNode inserts or replaces a single node.
func (d *DB) InsertNode(n node.Node) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if err := insertNode(d.db, n); err != nil {
		return err
	}
	d.invalidateTopology()
	return nil
}

// GetNode retrieves a node by ID. Returns nil, nil if it does not exist.
func (d *DB) GetNode(id string) (*node.Node, error) {
	row := d.db.QueryRow(`SELECT `+selectNodeFields+` FROM nodes WHERE id = ?`, id)
	return scanNode(row)
}

// Search performs a full-text search over node names, descriptions,
// synonyms and external IDs. An empty kind matches every kind.
func (d *DB) Search(query string, kind node.Kind, limit int) ([]node.Node, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	q := `SELECT ` + selectNodeFields + `
		FROM nodes
		WHERE id IN (SELECT id FROM nodes_fts WHERE nodes_fts MATCH ?)`
	args := []any{ftsQuery}
	if kind != "" {
		q += " AND kind = ?"
		args = append(args, string(kind))
	}
	q += " ORDER BY id"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// ListNodes returns nodes ordered by ID, optionally filtered by kind and limited.
func (d *DB) ListNodes(kind node.Kind, limit int) ([]node.Node, error) {
	q := `SELECT ` + selectNodeFields + ` FROM nodes`
	var args []any
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	q += " ORDER BY id"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// Count returns the total number of nodes.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (*node.Node, error) {
	var n node.Node
	var kind string
	var externalID, entryID, name, description, sequence sql.NullString
	var synonymsJSON, extraJSON sql.NullString

	err := s.Scan(
		&n.ID, &kind, &externalID, &entryID, &name, &description,
		&sequence, &synonymsJSON, &extraJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	n.Kind = node.Kind(kind)
	n.ExternalID = externalID.String
	n.EntryID = entryID.String
	n.Name = name.String
	n.Description = description.String
	n.Sequence = sequence.String

	if synonymsJSON.Valid && synonymsJSON.String != "" {
		if err := json.Unmarshal([]byte(synonymsJSON.String), &n.Synonyms); err != nil {
			return nil, fmt.Errorf("parsing synonyms JSON for %s: %w", n.ID, err)
		}
	}
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &n.Extra); err != nil {
			return nil, fmt.Errorf("parsing extra JSON for %s: %w", n.ID, err)
		}
	}

	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]node.Node, error) {
	var nodes []node.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, *n)
		}
	}
	return nodes, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~./") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
