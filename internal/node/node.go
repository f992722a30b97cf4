// Package node defines the core domain types for knowledge graph nodes.
package node

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the label a node carries in the knowledge graph.
// It determines the rendering color and which detail lookup applies.
type Kind string

// Node kinds, matching the labels used by the PDB knowledge graph.
const (
	KindNone           Kind = "none"
	KindProtein        Kind = "protein"
	KindDrug           Kind = "drug"
	KindEntry          Kind = "entry"
	KindAnnotation     Kind = "annotation"
	KindDrugbankTarget Kind = "drugbank_target"
	KindDatabase       Kind = "database"
	KindHostOrganism   Kind = "host_organism"
	KindSourceOrganism Kind = "source_organism"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{
	KindNone,
	KindProtein,
	KindDrug,
	KindEntry,
	KindAnnotation,
	KindDrugbankTarget,
	KindDatabase,
	KindHostOrganism,
	KindSourceOrganism,
}

// kindColors maps each kind to its rendering color.
var kindColors = map[Kind]string{
	KindNone:           "#9e9e9e",
	KindProtein:        "#1f77b4",
	KindDrug:           "#d62728",
	KindEntry:          "#2ca02c",
	KindAnnotation:     "#ff7f0e",
	KindDrugbankTarget: "#e377c2",
	KindDatabase:       "#8c564b",
	KindHostOrganism:   "#17becf",
	KindSourceOrganism: "#bcbd22",
}

// Validation errors.
var (
	ErrEmptyID     = errors.New("id is required")
	ErrUnknownKind = errors.New("unknown node kind")
)

// ParseKind converts a kind name to a Kind. It accepts the lowercase form
// ("protein"), the graph database label form ("PROTEIN"), and the empty string
// (which maps to KindNone).
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindNone, nil
	}
	k := Kind(s)
	if _, ok := kindColors[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindColors[k]
	return ok
}

// Color returns the hex color used to render nodes of this kind.
func (k Kind) Color() string {
	if c, ok := kindColors[k]; ok {
		return c
	}
	return kindColors[KindNone]
}

// Label returns the graph database label for this kind (e.g. "PROTEIN").
// KindNone has no label.
func (k Kind) Label() string {
	if k == KindNone || k == "" {
		return ""
	}
	return strings.ToUpper(string(k))
}

// Ref identifies a node by ID and kind. Seeds and detail lookups use Refs.
type Ref struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// String formats the ref as "kind:id".
func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// ParseRef parses "kind:id" or a bare "id" (kind none). The text before the
// first colon is only taken as a kind when it names one, so IDs that contain
// colons, such as "GO:0004672", parse as bare IDs.
func ParseRef(s string) (Ref, error) {
	kindPart, id, found := strings.Cut(s, ":")
	if !found {
		id, kindPart = kindPart, ""
	} else if k, err := ParseKind(kindPart); err != nil || kindPart == "" {
		id, kindPart = s, ""
	} else {
		kindPart = string(k)
	}
	if id == "" {
		return Ref{}, ErrEmptyID
	}
	if kindPart == "" {
		return Ref{ID: id, Kind: KindNone}, nil
	}
	return Ref{ID: id, Kind: Kind(kindPart)}, nil
}

// Node is an entity in the knowledge graph.
type Node struct {
	// Identity
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Kind-specific payload, opaque to the graph layer
	ExternalID  string         `json:"external_id,omitempty"` // e.g. PDB entity ID, GO ID, DrugBank ID
	EntryID     string         `json:"entry_id,omitempty"`    // parent PDB entry (proteins)
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Sequence    string         `json:"sequence,omitempty"`
	Synonyms    []string       `json:"synonyms,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Ref returns the node's reference.
func (n Node) Ref() Ref {
	return Ref{ID: n.ID, Kind: n.Kind}
}

// DisplayLabel returns the human-readable text shown for this node.
// Proteins render as "{entry}/{external}"; other nodes use their external ID
// when present and fall back to the bare ID.
func (n Node) DisplayLabel() string {
	if n.Kind == KindProtein && n.EntryID != "" && n.ExternalID != "" {
		return n.EntryID + "/" + n.ExternalID
	}
	if n.ExternalID != "" {
		return n.ExternalID
	}
	return n.ID
}

// Validate checks the node's identity fields.
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrEmptyID
	}
	if n.Kind == "" {
		n.Kind = KindNone
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}
	return nil
}
