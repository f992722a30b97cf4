package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/matsen/pdbkg/internal/node"
)

const (
	DefaultSearchLimit = 50

	listNameWidth = 50
	detailWidth   = 70
)

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints a human-readable error and hands back code so callers
// can return it.
func outputError(code int, format string, args ...any) int {
	fmt.Fprintln(os.Stderr, "error:", fmt.Sprintf(format, args...))
	return code
}

// exitWithError reports the message as JSON, or as plain text under --human,
// flushes the log file and exits with code.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		outputError(code, "%s", msg)
	} else {
		_ = outputJSON(ErrorResponse{Error: msg})
	}
	if logWriter != nil {
		_ = logWriter.Close()
	}
	os.Exit(code)
}

// exitOnError is a no-op for a nil err. Otherwise the exit code follows the
// error's class.
func exitOnError(err error, format string, args ...any) {
	if err != nil {
		exitWithError(exitCodeFor(err), "%s: %v", fmt.Sprintf(format, args...), err)
	}
}

// StatusResponse reports the outcome of init.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse reports a changed config key.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NodeListResponse wraps node lists printed by neighbors and search.
type NodeListResponse struct {
	Nodes []node.Node `json:"nodes"`
	Count int         `json:"count"`
}

func newNodeList(nodes []node.Node) NodeListResponse {
	if nodes == nil {
		nodes = []node.Node{}
	}
	return NodeListResponse{Nodes: nodes, Count: len(nodes)}
}

func printNodeList(nodes []node.Node) {
	if len(nodes) == 0 {
		fmt.Println("No nodes found")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Kind, n.ID, truncateString(n.Name, listNameWidth))
	}
	tw.Flush()
}

func printNodeDetail(n node.Node) {
	fmt.Printf("%s\n%s\n\n", n.ID, strings.Repeat("=", detailWidth))

	const labelWidth = len("External ID: ")
	indent := strings.Repeat(" ", labelWidth)
	fields := []struct{ label, value string }{
		{"Kind", string(n.Kind)},
		{"Name", n.Name},
		{"External ID", n.ExternalID},
		{"Entry ID", n.EntryID},
		{"Synonyms", strings.Join(n.Synonyms, ", ")},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Printf("%-*s%s\n", labelWidth, f.label+":", wrapText(f.value, detailWidth-labelWidth, indent))
	}

	if n.Description != "" {
		fmt.Printf("\n%s\n", wrapText(n.Description, detailWidth, ""))
	}
	if n.Sequence != "" {
		fmt.Printf("\nSequence (%d aa):\n%s\n", len(n.Sequence), chunk(n.Sequence, detailWidth))
	}
}

// truncateString shortens s to at most limit bytes, marking the cut with "...".
func truncateString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

// wrapText greedily fills lines of at most width bytes, prefixing every line
// after the first with indent. A word longer than width gets a line to itself.
func wrapText(text string, width int, indent string) string {
	var b strings.Builder
	lineLen := 0
	for _, w := range strings.Fields(text) {
		switch {
		case lineLen == 0:
		case lineLen+1+len(w) > width:
			b.WriteString("\n" + indent)
			lineLen = 0
		default:
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}

// chunk hard-wraps s every width bytes.
func chunk(s string, width int) string {
	lines := make([]string, 0, len(s)/width+1)
	for len(s) > width {
		lines = append(lines, s[:width])
		s = s[width:]
	}
	return strings.Join(append(lines, s), "\n")
}
