package storage

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// ErrUnknownEndpoint is returned when an edge or path references a missing node.
var ErrUnknownEndpoint = errors.New("unknown node")

// topology is the relationship graph loaded into gonum for path queries.
type topology struct {
	g     *simple.UndirectedGraph
	index map[string]int64
	ids   []string
}

func (d *DB) invalidateTopology() {
	d.topoMu.Lock()
	d.topo = nil
	d.topoMu.Unlock()
}

// loadTopology returns the cached topology, building it from the
// relationships table if a write has invalidated it.
func (d *DB) loadTopology() (*topology, error) {
	d.topoMu.Lock()
	defer d.topoMu.Unlock()
	if d.topo != nil {
		return d.topo, nil
	}

	rows, err := d.db.Query("SELECT id FROM nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading node ids: %w", err)
	}
	t := &topology{g: simple.NewUndirectedGraph(), index: make(map[string]int64)}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		nid := int64(len(t.ids))
		t.index[id] = nid
		t.ids = append(t.ids, id)
		t.g.AddNode(simple.Node(nid))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	edges, err := d.AllEdges()
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		from, okFrom := t.index[e.SourceID]
		to, okTo := t.index[e.TargetID]
		if !okFrom || !okTo || from == to {
			continue
		}
		t.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	d.topo = t
	return t, nil
}

// ShortestPath returns the node IDs on a shortest path from start to end,
// endpoints included. It returns an empty slice when no path of at most
// maxHops edges exists. A node's path to itself is the node alone.
func (d *DB) ShortestPath(start, end string, maxHops int) ([]string, error) {
	t, err := d.loadTopology()
	if err != nil {
		return nil, fmt.Errorf("loading topology: %w", err)
	}

	from, ok := t.index[start]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, start)
	}
	to, ok := t.index[end]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, end)
	}
	if from == to {
		return []string{start}, nil
	}

	shortest := path.DijkstraFrom(t.g.Node(from), t.g)
	nodes, _ := shortest.To(to)
	if len(nodes) == 0 || len(nodes)-1 > maxHops {
		return []string{}, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = t.ids[n.ID()]
	}
	return ids, nil
}
