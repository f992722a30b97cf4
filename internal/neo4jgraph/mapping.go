package neo4jgraph

import (
	"fmt"
	"sort"

	"github.com/matsen/pdbkg/internal/node"
)

// Properties lifted into named node fields. Everything else lands in Extra.
var (
	externalIDProps  = []string{"id", "drugbank_id", "entry_id", "taxonomy_id"}
	nameProps        = []string{"name", "drugbank_name", "scientific_name"}
	synonymProps     = []string{"synonyms", "common_names"}
	reservedPropKeys = map[string]bool{"uuid": true, "label": true, "description": true, "sequence": true}
)

// kindFromLabels returns the first label that names a known kind.
func kindFromLabels(labels []string) node.Kind {
	for _, l := range labels {
		k, err := node.ParseKind(l)
		if err == nil && k != node.KindNone {
			return k
		}
	}
	return node.KindNone
}

// nodeFromRecord maps a stored node's labels and properties onto a Node.
func nodeFromRecord(labels []string, props map[string]any) (node.Node, error) {
	id, _ := props["uuid"].(string)
	if id == "" {
		return node.Node{}, fmt.Errorf("%w: node without uuid property", node.ErrEmptyID)
	}

	n := node.Node{ID: id, Kind: kindFromLabels(labels)}
	used := make(map[string]bool)

	// Proteins carry both their entity ID and their parent entry.
	if n.Kind == node.KindProtein {
		n.EntryID = stringProp(props, "entry_id")
		used["entry_id"] = true
	}
	for _, key := range externalIDProps {
		if used[key] {
			continue
		}
		if v := stringProp(props, key); v != "" {
			n.ExternalID = v
			used[key] = true
			break
		}
	}
	for _, key := range nameProps {
		if v := stringProp(props, key); v != "" {
			n.Name = v
			used[key] = true
			break
		}
	}
	for _, key := range synonymProps {
		if vs := stringsProp(props, key); len(vs) > 0 {
			n.Synonyms = vs
			used[key] = true
			break
		}
	}
	n.Description = stringProp(props, "description")
	n.Sequence = stringProp(props, "sequence")

	for k, v := range props {
		if used[k] || reservedPropKeys[k] {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]any)
		}
		n.Extra[k] = v
	}
	return n, nil
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

func stringsProp(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		if s, ok := props[key].(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// labelClause returns ":LABEL" for kinds with a label and "" otherwise.
// Labels come from the fixed kind set, never from user input.
func labelClause(k node.Kind) string {
	if !k.Valid() || k == node.KindNone {
		return ""
	}
	return ":" + k.Label()
}
