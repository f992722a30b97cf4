package session

import (
	"slices"

	"github.com/matsen/pdbkg/internal/node"
)

// EventType identifies a selection change.
type EventType string

// Selection events.
const (
	EventSelect   EventType = "select"
	EventDeselect EventType = "deselect"
	EventReplace  EventType = "replace"
	EventClear    EventType = "clear"
)

// Event is a request to change the selection.
type Event struct {
	Type EventType  `json:"type"`
	Refs []node.Ref `json:"refs,omitempty"`
	ID   string     `json:"id,omitempty"`
}

// Select appends ref to the selection unless its ID is already selected.
func Select(ref node.Ref) Event {
	return Event{Type: EventSelect, Refs: []node.Ref{ref}}
}

// Deselect removes the node with the given ID from the selection.
func Deselect(id string) Event {
	return Event{Type: EventDeselect, ID: id}
}

// Replace sets the selection to refs, dropping repeated IDs.
func Replace(refs []node.Ref) Event {
	return Event{Type: EventReplace, Refs: refs}
}

// Clear empties the selection.
func Clear() Event {
	return Event{Type: EventClear}
}

// State is the ordered seed selection. Seq increases every time the
// sequence of selected IDs changes.
type State struct {
	Selection []node.Ref `json:"selection"`
	Seq       uint64     `json:"seq"`
}

// IDs returns the selected node IDs in order.
func (s State) IDs() []string {
	ids := make([]string, len(s.Selection))
	for i, r := range s.Selection {
		ids[i] = r.ID
	}
	return ids
}

// Reduce returns the state that results from applying ev to s.
// It never mutates s.
func Reduce(s State, ev Event) State {
	var next []node.Ref
	switch ev.Type {
	case EventSelect:
		next = dedupe(append(slices.Clone(s.Selection), ev.Refs...))
	case EventDeselect:
		for _, r := range s.Selection {
			if r.ID != ev.ID {
				next = append(next, r)
			}
		}
	case EventReplace:
		next = dedupe(ev.Refs)
	case EventClear:
		next = nil
	default:
		return s
	}

	out := State{Selection: next, Seq: s.Seq}
	if out.Selection == nil {
		out.Selection = []node.Ref{}
	}
	if !slices.Equal(s.IDs(), out.IDs()) {
		out.Seq++
	}
	return out
}

// dedupe keeps the first occurrence of every ID and drops refs without one.
func dedupe(refs []node.Ref) []node.Ref {
	seen := make(map[string]bool, len(refs))
	out := make([]node.Ref, 0, len(refs))
	for _, r := range refs {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
