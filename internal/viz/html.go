package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

const cdnScript = `<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>`

// cytoscapeJS is the inlined library used for offline pages. It is empty
// unless a build vendors Cytoscape.js into it.
var cytoscapeJS string

// cytoscapeLayouts maps the layout names accepted on the command line to
// Cytoscape.js layout algorithms.
var cytoscapeLayouts = map[string]string{
	"":       "cose",
	"force":  "cose",
	"circle": "circle",
	"grid":   "grid",
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"force", "circle", "grid"}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout  string // "force", "circle", or "grid"
	Offline bool   // Whether to embed Cytoscape.js inline
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "force"}
}

type legendEntry struct {
	Kind  string
	Color string
	Count int
}

type pageData struct {
	Empty     bool
	Script    template.HTML
	Elements  template.JS
	Layout    string
	Legend    []legendEntry
	NodeCount int
	EdgeCount int
}

// GenerateHTML renders graph as a standalone page. A graph without nodes
// produces a placeholder page instead of an empty canvas.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	layout, ok := cytoscapeLayouts[opts.Layout]
	if !ok {
		return "", fmt.Errorf("invalid layout %q: must be one of %s", opts.Layout, strings.Join(ValidLayouts, ", "))
	}

	data := pageData{Empty: graph.IsEmpty()}
	if !data.Empty {
		elements, err := graph.ToCytoscapeJSON()
		if err != nil {
			return "", err
		}
		data.Script = template.HTML(cdnScript)
		if opts.Offline {
			data.Script = template.HTML("<script>" + cytoscapeJS + "</script>")
		}
		data.Elements = template.JS(elements)
		data.Layout = layout
		data.Legend = legend(graph.Nodes)
		data.NodeCount = len(graph.Nodes)
		data.EdgeCount = len(graph.Edges)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

// legend counts nodes per kind, ordered by kind name.
func legend(nodes []Node) []legendEntry {
	byKind := make(map[string]*legendEntry)
	for _, n := range nodes {
		e, ok := byKind[n.Kind]
		if !ok {
			e = &legendEntry{Kind: n.Kind, Color: n.Color}
			byKind[n.Kind] = e
		}
		e.Count++
	}
	out := make([]legendEntry, 0, len(byKind))
	for _, e := range byKind {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Protein Knowledge Graph{{if .Empty}} (empty){{end}}</title>
{{.Script}}
<style>
  html, body { margin: 0; height: 100%; font: 13px system-ui, sans-serif; color: #222; background: #fafafa; }
  .placeholder { display: grid; place-items: center; height: 100%; text-align: center; color: #555; }
  .placeholder kbd { background: #eee; border-radius: 3px; padding: 1px 5px; }
  #cy { position: absolute; inset: 0; background: #fff; }
  #legend { position: absolute; top: 10px; left: 10px; background: rgba(255,255,255,0.9); border: 1px solid #ddd; border-radius: 4px; padding: 6px 10px; }
  #legend li { list-style: none; margin: 2px 0; }
  #legend ul { margin: 0; padding: 0; }
  #legend .swatch { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 6px; }
  #info { position: absolute; display: none; max-width: 340px; padding: 6px 10px; background: #fff; border: 1px solid #bbb; border-radius: 4px; box-shadow: 0 1px 6px rgba(0,0,0,0.2); pointer-events: none; z-index: 10; }
  #info .kind { font-size: 10px; color: #888; text-transform: uppercase; }
  #info .title { font-weight: 600; }
  #info .line { color: #444; overflow-wrap: anywhere; }
</style>
</head>
<body>
{{if .Empty}}
<div class="placeholder">
  <div>
    <h2>No nodes selected</h2>
    <p>Pick one or more seed nodes, for example <kbd>kg viz protein:1ABC_1 drug:DB00619</kbd></p>
  </div>
</div>
{{else}}
<div id="cy"></div>
<div id="legend">
  <strong>{{.NodeCount}} nodes, {{.EdgeCount}} edges</strong>
  <ul>{{range .Legend}}
    <li><span class="swatch" style="background: {{.Color}}"></span>{{.Kind}} ({{.Count}})</li>{{end}}
  </ul>
</div>
<div id="info"></div>
<script>
(function () {
  const elements = {{.Elements}};
  const layout = "{{.Layout}}";
  const info = document.getElementById("info");

  const cy = cytoscape({
    container: document.getElementById("cy"),
    elements: elements,
    layout: { name: layout, animate: false, nodeRepulsion: 9000, idealEdgeLength: 90 },
    style: [
      { selector: "node", style: {
          "background-color": "data(color)", "label": "data(label)", "font-size": 10,
          "text-valign": "bottom", "text-margin-y": 4,
          "width": "mapData(degree, 0, 20, 18, 44)", "height": "mapData(degree, 0, 20, 18, 44)" } },
      { selector: "node[?backbone]", style: { "border-width": 3, "border-color": "#1f2d3d", "font-weight": "bold" } },
      { selector: "edge", style: { "line-color": "#c5ccd3", "width": 1.5, "curve-style": "bezier" } },
      { selector: "edge[?backbone]", style: { "line-color": "#1f2d3d", "width": 3 } },
      { selector: ".focus", style: { "border-width": 3, "border-color": "#e0483e" } },
      { selector: ".faded", style: { "opacity": 0.25 } }
    ]
  });

  function row(cls, text) {
    const div = document.createElement("div");
    div.className = cls;
    div.textContent = text;
    info.appendChild(div);
  }

  function describe(el) {
    const d = el.data();
    info.replaceChildren();
    if (el.isNode()) {
      row("kind", d.kind);
      row("title", d.label);
      if (d.name && d.name !== d.label) row("line", d.name);
      if (d.description) row("line", d.description);
      if (d.entryId) row("line", "Entry: " + d.entryId);
      if (d.externalId) row("line", "External: " + d.externalId);
      if (d.synonyms && d.synonyms.length) row("line", "Also: " + d.synonyms.join(", "));
      row("line", "ID: " + d.id);
    } else {
      if (d.relationshipType) row("kind", d.relationshipType);
      row("title", d.source + " - " + d.target);
    }
  }

  cy.on("mouseover", "node, edge", function (evt) {
    describe(evt.target);
    const p = evt.renderedPosition || evt.position;
    info.style.left = (p.x + 14) + "px";
    info.style.top = (p.y + 14) + "px";
    info.style.display = "block";
  });
  cy.on("mouseout", "node, edge", function () { info.style.display = "none"; });

  cy.on("tap", function (evt) {
    cy.elements().removeClass("focus faded");
    if (evt.target === cy || !evt.target.isNode()) return;
    const keep = evt.target.closedNeighborhood();
    keep.nodes().addClass("focus");
    cy.elements().difference(keep).addClass("faded");
  });
})();
</script>
{{end}}
</body>
</html>
`
