// Package directory caches node attributes by ID for the lifetime of a session.
package directory

import (
	"sync"

	"github.com/matsen/pdbkg/internal/node"
)

// Directory maps node IDs to their last-fetched attributes.
// Writes are last-write-wins; it is safe for concurrent use.
type Directory struct {
	mu    sync.RWMutex
	nodes map[string]node.Node
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{nodes: make(map[string]node.Node)}
}

// Get returns the cached attributes for id.
func (d *Directory) Get(id string) (node.Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	return n, ok
}

// Put stores n, overwriting any previous entry with the same ID.
func (d *Directory) Put(n node.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[n.ID] = n
}

// Len returns the number of cached nodes.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}
