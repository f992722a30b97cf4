// Package apitypes defines the JSON bodies exchanged between the knowledge
// graph server and its clients.
package apitypes

import (
	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/reconcile"
	"github.com/matsen/pdbkg/internal/session"
	"github.com/matsen/pdbkg/internal/viz"
)

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"` // Node ID the error refers to, if any
}

// HealthResponse reports server status.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

// NodesResponse is a list of nodes, as returned by neighbor and search queries.
type NodesResponse struct {
	Nodes []node.Node `json:"nodes"`
	Count int         `json:"count"`
}

// PathResponse is the result of a shortest-path query. Nodes is empty when
// the endpoints are not connected within MaxHops.
type PathResponse struct {
	Start     string      `json:"start"`
	End       string      `json:"end"`
	MaxHops   int         `json:"max_hops"`
	Nodes     []node.Node `json:"nodes"`
	Connected bool        `json:"connected"`
}

// NeighborhoodRequest asks for the neighborhood of an ordered seed list.
type NeighborhoodRequest struct {
	Seeds   []node.Ref `json:"seeds"`
	MaxHops int        `json:"max_hops,omitempty"`
}

// NeighborhoodResponse is a built neighborhood.
type NeighborhoodResponse struct {
	Nodes     []node.Node            `json:"nodes"`
	Edges     []edge.Edge            `json:"edges"`
	Backbone  []string               `json:"backbone"`
	Segments  []neighborhood.Segment `json:"segments"`
	Connected bool                   `json:"connected"`
}

// FromResult converts a builder result to its wire form.
func FromResult(res *neighborhood.Result) NeighborhoodResponse {
	out := NeighborhoodResponse{
		Nodes:     res.Graph.Nodes(),
		Edges:     res.Graph.Edges(),
		Backbone:  res.Backbone,
		Segments:  res.Segments,
		Connected: res.Connected,
	}
	if out.Segments == nil {
		out.Segments = []neighborhood.Segment{}
	}
	return out
}

// CreateSessionResponse is returned by POST /api/sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// SelectionRequest replaces a session's seed selection.
type SelectionRequest struct {
	Seeds []node.Ref `json:"seeds"`
}

// SelectionResponse reports the edits applied for a selection change.
// Stale is set when a newer selection superseded this one before its
// neighborhood was built; Edits is then empty.
type SelectionResponse struct {
	Seq       uint64                 `json:"seq"`
	Edits     reconcile.Edits        `json:"edits"`
	Stale     bool                   `json:"stale"`
	Connected bool                   `json:"connected"`
	Segments  []neighborhood.Segment `json:"segments,omitempty"`
	Ops       []viz.Op               `json:"ops"` // Edits as ordered Cytoscape element operations
}

// FromUpdate converts an applied session update to its wire form.
func FromUpdate(u session.Update) SelectionResponse {
	return SelectionResponse{
		Seq:       u.State.Seq,
		Edits:     u.Edits,
		Connected: u.Connected,
		Segments:  u.Segments,
		Ops:       viz.EditsToCytoscape(u.Edits),
	}
}

// SessionStateResponse is the selection and displayed graph of a session.
type SessionStateResponse struct {
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Selection []node.Ref  `json:"selection"`
	Nodes     []node.Node `json:"nodes"`
	Edges     []edge.Edge `json:"edges"`
}
