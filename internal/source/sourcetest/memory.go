// Package sourcetest provides an in-memory knowledge graph for tests.
package sourcetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

var (
	_ source.Source   = (*Memory)(nil)
	_ source.Searcher = (*Memory)(nil)
)

// Memory is a scriptable source.Source backed by maps.
// Paths are found by breadth-first search over sorted adjacency lists unless
// overridden with SetPath.
type Memory struct {
	mu        sync.Mutex
	nodes     map[string]node.Node
	adj       map[string]map[string]bool
	paths     map[[2]string][]string
	failures  map[string]error
	calls     map[string]int
	blockPath chan struct{}
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		nodes:    make(map[string]node.Node),
		adj:      make(map[string]map[string]bool),
		paths:    make(map[[2]string][]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AddNode registers a node.
func (m *Memory) AddNode(n node.Node) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID] = n
	return m
}

// AddNodes registers protein nodes with the given IDs.
func (m *Memory) AddNodes(ids ...string) *Memory {
	for _, id := range ids {
		m.AddNode(node.Node{ID: id, Kind: node.KindProtein, Name: "name-" + id})
	}
	return m
}

// Link registers an undirected relationship.
func (m *Memory) Link(a, b string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if m.adj[pair[0]] == nil {
			m.adj[pair[0]] = make(map[string]bool)
		}
		m.adj[pair[0]][pair[1]] = true
	}
	return m
}

// SetPath forces FetchPath(start, end) to return the given IDs.
// An empty ids slice forces "no path".
func (m *Memory) SetPath(start, end string, ids ...string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[[2]string{start, end}] = ids
	return m
}

// Fail makes every call touching id return err.
func (m *Memory) Fail(id string, err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = err
	return m
}

// BlockPaths makes FetchPath wait until the returned release func is called.
func (m *Memory) BlockPaths() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.blockPath = ch
	m.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns how many times the named method was invoked for id.
// Method is "details", "path" or "neighbors".
func (m *Memory) Calls(method, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method+":"+id]
}

// Edges returns every registered relationship as an untyped edge.
func (m *Memory) Edges() []edge.Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[edge.Pair]bool)
	var out []edge.Edge
	for a, nbrs := range m.adj {
		for b := range nbrs {
			p := edge.MakePair(a, b)
			if !seen[p] {
				seen[p] = true
				out = append(out, p.Edge())
			}
		}
	}
	return out
}

// FetchDetails implements source.DetailFetcher.
func (m *Memory) FetchDetails(ctx context.Context, ref node.Ref) (node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["details:"+ref.ID]++
	if err := m.failures[ref.ID]; err != nil {
		return node.Node{}, err
	}
	n, ok := m.nodes[ref.ID]
	if !ok {
		return node.Node{}, source.NotFound(ref.ID)
	}
	return n, nil
}

// FetchNeighbors implements source.NeighborLookup.
func (m *Memory) FetchNeighbors(ctx context.Context, id string) ([]node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["neighbors:"+id]++
	if err := m.failures[id]; err != nil {
		return nil, err
	}
	if _, ok := m.nodes[id]; !ok {
		return nil, source.NotFound(id)
	}
	var out []node.Node
	for _, nb := range m.sortedNeighbors(id) {
		out = append(out, m.stub(nb))
	}
	return out, nil
}

// FetchPath implements source.PathResolver.
func (m *Memory) FetchPath(ctx context.Context, startID, endID string, maxHops int) ([]node.Node, error) {
	m.mu.Lock()
	block := m.blockPath
	m.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["path:"+startID]++
	for _, id := range []string{startID, endID} {
		if err := m.failures[id]; err != nil {
			return nil, err
		}
		if _, ok := m.nodes[id]; !ok {
			return nil, source.NotFound(id)
		}
	}

	ids, forced := m.paths[[2]string{startID, endID}]
	if !forced {
		ids = m.bfs(startID, endID, source.NormalizeHops(maxHops))
	}
	out := make([]node.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.stub(id))
	}
	return out, nil
}

// Search implements source.Searcher with a case-insensitive substring match
// on ID and name.
func (m *Memory) Search(ctx context.Context, query string, kind node.Kind, limit int) ([]node.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var ids []string
	for id, n := range m.nodes {
		if kind != "" && n.Kind != kind {
			continue
		}
		if strings.Contains(strings.ToLower(id), q) || strings.Contains(strings.ToLower(n.Name), q) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]node.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.nodes[id])
	}
	return out, nil
}

// stub returns the lightweight form a path or neighbor query reports.
func (m *Memory) stub(id string) node.Node {
	n, ok := m.nodes[id]
	if !ok {
		return node.Node{ID: id, Kind: node.KindNone}
	}
	return node.Node{ID: n.ID, Kind: n.Kind}
}

func (m *Memory) sortedNeighbors(id string) []string {
	var out []string
	for nb := range m.adj[id] {
		out = append(out, nb)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) bfs(start, end string, maxHops int) []string {
	if start == end {
		return []string{start}
	}
	prev := map[string]string{start: ""}
	frontier := []string{start}
	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range m.sortedNeighbors(cur) {
				if _, seen := prev[nb]; seen {
					continue
				}
				prev[nb] = cur
				if nb == end {
					return unwind(prev, end)
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return nil
}

func unwind(prev map[string]string, end string) []string {
	var rev []string
	for cur := end; cur != ""; cur = prev[cur] {
		rev = append(rev, cur)
	}
	out := make([]string, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}
