package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/storage"
	"github.com/matsen/pdbkg/internal/viz"
)

// pageFlags are shared by viz and neighborhood --html.
type pageFlags struct {
	layout  string
	offline bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.layout, "layout", "force", "Page layout: force, circle, or grid")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Inline Cytoscape.js instead of loading it from a CDN")
}

// writePage renders data and writes it to path, or to stdout when path is
// empty.
func (f *pageFlags) writePage(path string, data *viz.GraphData) error {
	html, err := viz.GenerateHTML(data, viz.HTMLOptions{Layout: f.layout, Offline: f.offline})
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Print(html)
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Debug("wrote visualization", "path", path, "nodes", len(data.Nodes), "edges", len(data.Edges))
	return nil
}

var (
	vizOutput string
	vizPage   pageFlags
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Write the page here instead of stdout")
	vizPage.register(vizCmd)
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render the whole local graph as an HTML page",
	Long: `Render every node and edge in the local SQLite index as one interactive
page, colored by node kind. Use 'kg neighborhood --html' to render only the
neighborhood of chosen seeds.

  kg viz > graph.html
  kg viz --layout circle -o graph.html
  kg viz --offline -o graph.html`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := mustOpenDatabase(mustFindRepository())
		defer db.Close()

		g, err := loadGraph(db)
		exitOnError(err, "loading graph")

		if err := vizPage.writePage(vizOutput, viz.FromGraph(g, nil)); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if vizOutput == "" {
			return nil
		}
		if humanOutput {
			fmt.Printf("Visualization written to %s\n", vizOutput)
			return nil
		}
		return outputJSON(map[string]string{"output": vizOutput})
	},
}

// loadGraph copies the whole SQLite index into memory.
func loadGraph(db *storage.DB) (*graph.Graph, error) {
	nodes, err := db.ListNodes("", 0)
	if err != nil {
		return nil, err
	}
	edges, err := db.AllEdges()
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("edge %s-%s: %w", e.SourceID, e.TargetID, err)
		}
	}
	return g, nil
}
