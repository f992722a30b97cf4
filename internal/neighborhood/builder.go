// Package neighborhood assembles the subgraph shown for a list of seed nodes:
// the backbone connecting consecutive seeds plus one hop of neighbors around
// every backbone node.
package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/pdbkg/internal/directory"
	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

// DefaultConcurrency limits simultaneous neighbor lookups.
const DefaultConcurrency = 8

// ErrNoSeeds is returned when Build is called without seeds.
var ErrNoSeeds = errors.New("at least one seed node is required")

// Segment is the part of the backbone between two consecutive seeds.
type Segment struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Path      []string `json:"path"`      // Node IDs, endpoints included; empty when disconnected
	Connected bool     `json:"connected"` // False when no path exists within the hop limit
}

// Result is a freshly built neighborhood, not yet diffed against anything shown.
type Result struct {
	Graph     *graph.Graph
	Backbone  []string
	Segments  []Segment
	Connected bool // True only if every segment found a path
}

// Builder computes neighborhoods against a knowledge graph source.
type Builder struct {
	src         source.Source
	dir         *directory.Directory
	maxHops     int
	concurrency int
	logger      *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithMaxHops sets the hop limit passed to the path resolver.
func WithMaxHops(n int) Option {
	return func(b *Builder) {
		b.maxHops = source.NormalizeHops(n)
	}
}

// WithConcurrency sets how many neighbor lookups may run at once.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder. A nil directory gets a fresh one.
func New(src source.Source, dir *directory.Directory, opts ...Option) *Builder {
	if dir == nil {
		dir = directory.New()
	}
	b := &Builder{
		src:         src,
		dir:         dir,
		maxHops:     source.DefaultMaxHops,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Directory returns the node directory the builder populates.
func (b *Builder) Directory() *directory.Directory {
	return b.dir
}

// Build computes the neighborhood for seeds. Any fetch failure fails the
// whole build; nothing partial is returned.
func (b *Builder) Build(ctx context.Context, seeds []node.Ref) (*Result, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	kinds := make(map[string]node.Kind, len(seeds))
	for _, s := range seeds {
		kinds[s.ID] = s.Kind
	}

	backbone, segments, err := b.resolveBackbone(ctx, seeds, kinds)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Graph:     graph.New(),
		Backbone:  backbone,
		Segments:  segments,
		Connected: true,
	}
	for _, seg := range segments {
		if !seg.Connected {
			res.Connected = false
		}
	}

	distinct := uniqueIDs(backbone)
	for _, id := range distinct {
		n, err := b.details(ctx, node.Ref{ID: id, Kind: kinds[id]})
		if err != nil {
			return nil, err
		}
		if err := res.Graph.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, seg := range segments {
		if !seg.Connected {
			continue
		}
		for i := 1; i < len(seg.Path); i++ {
			if err := addEdgeOnce(res.Graph, seg.Path[i-1], seg.Path[i]); err != nil {
				return nil, err
			}
		}
	}

	hoods, err := b.fetchNeighborhoods(ctx, distinct)
	if err != nil {
		return nil, err
	}
	// Merge in backbone order so the output does not depend on which lookup finished first.
	for i, id := range distinct {
		for _, nb := range hoods[i] {
			if !res.Graph.HasNode(nb.ID) {
				if err := res.Graph.AddNode(nb); err != nil {
					return nil, err
				}
			}
			if err := addEdgeOnce(res.Graph, id, nb.ID); err != nil {
				return nil, err
			}
		}
	}

	return res, nil
}

// resolveBackbone walks consecutive seed pairs in order and stitches their paths.
func (b *Builder) resolveBackbone(ctx context.Context, seeds []node.Ref, kinds map[string]node.Kind) ([]string, []Segment, error) {
	backbone := []string{seeds[0].ID}
	if len(seeds) == 1 {
		return backbone, nil, nil
	}

	segments := make([]Segment, 0, len(seeds)-1)
	for i := 0; i+1 < len(seeds); i++ {
		from, to := seeds[i].ID, seeds[i+1].ID

		path, err := b.src.FetchPath(ctx, from, to, b.maxHops)
		if err != nil {
			b.logTransport(err, "resolving path", "from", from, "to", to)
			return nil, nil, fmt.Errorf("resolving path %s -> %s: %w", from, to, err)
		}

		seg := Segment{From: from, To: to}
		if len(path) == 0 {
			seg.Path = []string{}
			backbone = appendTail(backbone, from, to)
		} else {
			seg.Connected = true
			for _, n := range path {
				if _, known := kinds[n.ID]; !known {
					kinds[n.ID] = n.Kind
				}
				seg.Path = append(seg.Path, n.ID)
			}
			backbone = appendTail(backbone, seg.Path...)
		}
		segments = append(segments, seg)
	}
	return backbone, segments, nil
}

// fetchNeighborhoods looks up the neighbors of every ID concurrently and
// resolves their details. Results are indexed like ids.
func (b *Builder) fetchNeighborhoods(ctx context.Context, ids []string) ([][]node.Node, error) {
	results := make([][]node.Node, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			nbrs, err := b.src.FetchNeighbors(ctx, id)
			if err != nil {
				b.logTransport(err, "fetching neighbors", "id", id)
				return fmt.Errorf("fetching neighbors of %s: %w", id, err)
			}
			resolved := make([]node.Node, 0, len(nbrs))
			for _, nb := range nbrs {
				if nb.ID == "" || nb.ID == id {
					continue
				}
				full, err := b.details(ctx, nb.Ref())
				if err != nil {
					return err
				}
				resolved = append(resolved, full)
			}
			results[i] = resolved
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// details returns the cached attributes for ref, fetching and caching them on a miss.
func (b *Builder) details(ctx context.Context, ref node.Ref) (node.Node, error) {
	if n, ok := b.dir.Get(ref.ID); ok {
		return n, nil
	}

	n, err := b.src.FetchDetails(ctx, ref)
	if err != nil {
		b.logTransport(err, "fetching details", "id", ref.ID)
		return node.Node{}, fmt.Errorf("fetching details for %s: %w", ref, err)
	}
	if n.ID == "" {
		n.ID = ref.ID
	}
	if n.Kind == "" {
		n.Kind = ref.Kind
	}
	b.dir.Put(n)
	return n, nil
}

func (b *Builder) logTransport(err error, msg string, args ...any) {
	if source.IsTransport(err) {
		b.logger.Warn(msg, append(args, "error", err)...)
	}
}

// appendTail appends ids to backbone, skipping the first one if it repeats the tail.
func appendTail(backbone []string, ids ...string) []string {
	for i, id := range ids {
		if i == 0 && len(backbone) > 0 && backbone[len(backbone)-1] == id {
			continue
		}
		backbone = append(backbone, id)
	}
	return backbone
}

func addEdgeOnce(g *graph.Graph, a, b string) error {
	if a == b || g.HasEdge(a, b) {
		return nil
	}
	return g.AddEdge(edge.New(a, b))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
