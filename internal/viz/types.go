// Package viz renders neighborhoods as Cytoscape.js elements and
// self-contained HTML pages.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a knowledge graph node prepared for display.
type Node struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	// Display
	Label    string `json:"label"`
	Color    string `json:"color"`
	Backbone bool   `json:"backbone"`

	// Tooltip fields
	Name        string   `json:"name,omitempty"`
	ExternalID  string   `json:"externalId,omitempty"`
	EntryID     string   `json:"entryId,omitempty"`
	Description string   `json:"description,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`

	// Sizing
	Degree int `json:"degree"`
}

// Edge is an undirected relationship prepared for display.
type Edge struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationshipType,omitempty"`
	Backbone         bool   `json:"backbone"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
