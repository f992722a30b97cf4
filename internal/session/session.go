// Package session owns the seed selection and keeps a displayed graph in
// step with it. Each selection change rebuilds the neighborhood and applies
// only the edits between what is shown and the new result.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/reconcile"
)

// ErrStale is returned when a build finishes after a newer selection change
// has started. Its result is discarded.
var ErrStale = errors.New("selection changed while building; result discarded")

// Builder computes neighborhoods. *neighborhood.Builder satisfies it.
type Builder interface {
	Build(ctx context.Context, seeds []node.Ref) (*neighborhood.Result, error)
}

// Update describes one applied change to the displayed graph.
type Update struct {
	State     State                  `json:"state"`
	Edits     reconcile.Edits        `json:"edits"`
	Connected bool                   `json:"connected"`
	Segments  []neighborhood.Segment `json:"segments,omitempty"`
}

// Session holds one selection and the graph currently displayed for it.
type Session struct {
	builder  Builder
	renderer reconcile.Renderer
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	displayed *graph.Graph
	listeners []func(Update)

	// applied is the selection the displayed graph was built from, with the
	// connectivity reported by that build.
	applied   []node.Ref
	connected bool
	segments  []neighborhood.Segment
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer mirrors every applied edit onto r in addition to the
// session's own copy of the displayed graph.
func WithRenderer(r reconcile.Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session with an empty selection and nothing displayed.
func New(b Builder, opts ...Option) *Session {
	s := &Session{
		builder:   b,
		logger:    slog.New(slog.DiscardHandler),
		state:     State{Selection: []node.Ref{}},
		displayed: graph.New(),
		applied:   []node.Ref{},
		connected: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnUpdate registers fn to be called after every applied update.
// Callbacks run synchronously on the dispatching goroutine.
func (s *Session) OnUpdate(fn func(Update)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns a copy of the current selection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Selection: slices.Clone(s.state.Selection), Seq: s.state.Seq}
}

// Displayed returns a copy of the graph currently shown.
func (s *Session) Displayed() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed.Clone()
}

// Dispatch applies ev to the selection, rebuilds the neighborhood and
// reconciles the display. When the resulting selection is the one already
// displayed, nothing is rebuilt and the last build's connectivity is
// returned with no edits. A failed build leaves the display untouched, so
// dispatching the same event again retries it. If another event is
// dispatched while this one is building, ErrStale is returned and the
// display is left to the newer run.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Update, error) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, ev)
	if next.Seq == prev.Seq && !slices.Equal(next.Selection, prev.Selection) {
		// Same IDs with different kinds still supersedes a running build.
		next.Seq++
	}
	if slices.Equal(next.Selection, s.applied) {
		// Any build still running for prev is now stale.
		s.state = next
		upd := Update{State: next, Connected: s.connected, Segments: slices.Clone(s.segments)}
		s.mu.Unlock()
		return upd, nil
	}
	if next.Seq == prev.Seq {
		// Unchanged request that is not what is displayed: a retry after a
		// failed build.
		next.Seq++
	}
	s.state = next
	s.mu.Unlock()

	seeds := slices.Clone(next.Selection)
	target := graph.New()
	upd := Update{State: next, Connected: true}

	if len(seeds) > 0 {
		res, err := s.builder.Build(ctx, seeds)
		if err != nil {
			s.logger.Warn("neighborhood build failed", "seq", next.Seq, "seeds", len(seeds), "error", err)
			return Update{}, fmt.Errorf("building neighborhood: %w", err)
		}
		target = res.Graph
		upd.Connected = res.Connected
		upd.Segments = res.Segments
	}

	s.mu.Lock()
	if s.state.Seq != next.Seq {
		latest := s.state.Seq
		s.mu.Unlock()
		s.logger.Debug("discarding stale build", "seq", next.Seq, "latest", latest)
		return Update{}, ErrStale
	}

	upd.Edits = reconcile.Diff(s.displayed, target)
	if err := reconcile.Apply(s.displayed, upd.Edits); err != nil {
		s.mu.Unlock()
		return Update{}, fmt.Errorf("updating displayed graph: %w", err)
	}
	s.applied = seeds
	s.connected = upd.Connected
	s.segments = upd.Segments
	if s.renderer != nil {
		if err := reconcile.Apply(s.renderer, upd.Edits); err != nil {
			s.mu.Unlock()
			return Update{}, fmt.Errorf("rendering edits: %w", err)
		}
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.logger.Debug("applied update", "seq", next.Seq, "edits", upd.Edits.Size())
	for _, fn := range listeners {
		fn(upd)
	}
	return upd, nil
}
