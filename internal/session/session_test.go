package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
	"github.com/matsen/pdbkg/internal/source/sourcetest"
)

func newSource() *sourcetest.Memory {
	return sourcetest.NewMemory().
		AddNodes("P1", "X", "P2", "A", "B").
		Link("P1", "X").Link("X", "P2").
		Link("P1", "A").Link("P2", "B")
}

func sortedIDs(g *graph.Graph) []string {
	ids := g.NodeIDs()
	slices.Sort(ids)
	return ids
}

func TestDispatch_SelectAndDeselect(t *testing.T) {
	src := newSource()
	rendered := graph.New()
	s := New(neighborhood.New(src, nil), WithRenderer(rendered))
	ctx := context.Background()

	upd, err := s.Dispatch(ctx, Select(ref("P1")))
	if err != nil {
		t.Fatalf("Dispatch(select P1) error = %v", err)
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"A", "P1", "X"}) {
		t.Errorf("displayed = %v, want [A P1 X]", got)
	}
	if len(upd.Edits.AddNodes) != 3 || len(upd.Edits.RemoveNodes) != 0 {
		t.Errorf("first edits = %+v", upd.Edits)
	}

	upd, err = s.Dispatch(ctx, Select(ref("P2")))
	if err != nil {
		t.Fatalf("Dispatch(select P2) error = %v", err)
	}
	if !upd.Connected {
		t.Error("P1 and P2 are connected through X")
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"A", "B", "P1", "P2", "X"}) {
		t.Errorf("displayed = %v", got)
	}
	// Only the new nodes are added.
	var added []string
	for _, n := range upd.Edits.AddNodes {
		added = append(added, n.ID)
	}
	slices.Sort(added)
	if !slices.Equal(added, []string{"B", "P2"}) {
		t.Errorf("added = %v, want [B P2]", added)
	}

	if _, err := s.Dispatch(ctx, Deselect("P1")); err != nil {
		t.Fatalf("Dispatch(deselect P1) error = %v", err)
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"B", "P2", "X"}) {
		t.Errorf("displayed = %v, want [B P2 X]", got)
	}

	if !rendered.SameShape(s.Displayed()) {
		t.Error("renderer out of step with the session")
	}
}

func TestDispatch_ClearEmptiesDisplay(t *testing.T) {
	s := New(neighborhood.New(newSource(), nil))
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, Select(ref("P1"))); err != nil {
		t.Fatal(err)
	}
	upd, err := s.Dispatch(ctx, Clear())
	if err != nil {
		t.Fatalf("Dispatch(clear) error = %v", err)
	}
	if !s.Displayed().IsEmpty() {
		t.Errorf("displayed = %v, want empty", s.Displayed().NodeIDs())
	}
	if len(upd.Edits.RemoveNodes) != 3 {
		t.Errorf("RemoveNodes = %v, want 3 removals", upd.Edits.RemoveNodes)
	}
}

func TestDispatch_NoChangeSkipsBuild(t *testing.T) {
	src := newSource()
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, Select(ref("P1"))); err != nil {
		t.Fatal(err)
	}
	upd, err := s.Dispatch(ctx, Select(ref("P1")))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !upd.Edits.Empty() {
		t.Errorf("edits = %+v, want none", upd.Edits)
	}
	if got := src.Calls("neighbors", "P1"); got != 1 {
		t.Errorf("neighbor lookups = %d, want 1", got)
	}
}

func TestDispatch_FailedBuildKeepsDisplay(t *testing.T) {
	src := newSource()
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, Select(ref("P1"))); err != nil {
		t.Fatal(err)
	}
	before := s.Displayed()

	src.Fail("P2", source.Transport(errors.New("timeout")))
	_, err := s.Dispatch(ctx, Select(ref("P2")))
	if !errors.Is(err, source.ErrTransport) {
		t.Fatalf("Dispatch() error = %v, want transport error", err)
	}
	if !s.Displayed().SameShape(before) {
		t.Error("failed build changed the display")
	}
	// The selection itself still moved on so a retry can be dispatched.
	if got := s.State().IDs(); !slices.Equal(got, []string{"P1", "P2"}) {
		t.Errorf("selection = %v", got)
	}

	src.Fail("P2", nil)
	upd, err := s.Dispatch(ctx, Select(ref("P2")))
	if err != nil {
		t.Fatalf("retry Dispatch() error = %v", err)
	}
	if upd.Edits.Empty() {
		t.Error("retry produced no edits")
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"A", "B", "P1", "P2", "X"}) {
		t.Errorf("displayed after retry = %v", got)
	}
}

func TestDispatch_RetryAfterFailedFirstBuild(t *testing.T) {
	src := newSource()
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	src.Fail("P1", source.Transport(errors.New("connection reset")))
	if _, err := s.Dispatch(ctx, Select(ref("P1"))); !errors.Is(err, source.ErrTransport) {
		t.Fatalf("Dispatch() error = %v, want transport error", err)
	}
	if !s.Displayed().IsEmpty() {
		t.Fatalf("displayed = %v, want empty", s.Displayed().NodeIDs())
	}

	src.Fail("P1", nil)
	upd, err := s.Dispatch(ctx, Select(ref("P1")))
	if err != nil {
		t.Fatalf("retry Dispatch() error = %v", err)
	}
	if len(upd.Edits.AddNodes) != 3 {
		t.Errorf("retry edits = %+v, want three node additions", upd.Edits)
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"A", "P1", "X"}) {
		t.Errorf("displayed = %v, want [A P1 X]", got)
	}
	if upd.State.Seq <= 1 {
		t.Errorf("retry seq = %d, want a fresh run number", upd.State.Seq)
	}
}

func TestDispatch_CanceledBuildRetried(t *testing.T) {
	src := newSource()
	release := src.BlockPaths()
	s := New(neighborhood.New(src, nil))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	seeds := []node.Ref{ref("P1"), ref("P2")}
	if _, err := s.Dispatch(canceled, Replace(seeds)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Dispatch() error = %v, want context.Canceled", err)
	}
	release()

	if _, err := s.Dispatch(context.Background(), Replace(seeds)); err != nil {
		t.Fatalf("retry Dispatch() error = %v", err)
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"A", "B", "P1", "P2", "X"}) {
		t.Errorf("displayed = %v", got)
	}
}

func TestDispatch_NoChangeReportsLastBuild(t *testing.T) {
	src := newSource().AddNodes("Z")
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	first, err := s.Dispatch(ctx, Replace([]node.Ref{ref("P1"), ref("Z")}))
	if err != nil {
		t.Fatal(err)
	}
	if first.Connected {
		t.Fatal("P1 and Z share no path")
	}

	again, err := s.Dispatch(ctx, Select(ref("Z")))
	if err != nil {
		t.Fatal(err)
	}
	if !again.Edits.Empty() {
		t.Errorf("edits = %+v, want none", again.Edits)
	}
	if again.Connected {
		t.Error("unchanged selection reported as connected")
	}
	if len(again.Segments) != 1 || again.Segments[0].Connected {
		t.Errorf("segments = %+v, want the disconnected P1-Z segment", again.Segments)
	}
}

func TestDispatch_KindChangeRebuilds(t *testing.T) {
	src := newSource()
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	if _, err := s.Dispatch(ctx, Replace([]node.Ref{{ID: "P1", Kind: node.KindNone}})); err != nil {
		t.Fatal(err)
	}
	before := s.State().Seq

	upd, err := s.Dispatch(ctx, Replace([]node.Ref{ref("P1")}))
	if err != nil {
		t.Fatal(err)
	}
	if upd.State.Seq == before {
		t.Error("kind change kept the run number")
	}
	if upd.State.Selection[0].Kind != node.KindProtein {
		t.Errorf("selection = %+v", upd.State.Selection)
	}
	if got := src.Calls("neighbors", "P1"); got != 2 {
		t.Errorf("neighbor lookups = %d, want 2", got)
	}
}

func TestDispatch_StaleResultDiscarded(t *testing.T) {
	src := newSource()
	release := src.BlockPaths()
	s := New(neighborhood.New(src, nil))
	ctx := context.Background()

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = s.Dispatch(ctx, Replace([]node.Ref{ref("P1"), ref("P2")}))
	}()

	deadline := time.Now().Add(5 * time.Second)
	for s.State().Seq < 1 {
		if time.Now().After(deadline) {
			t.Fatal("first dispatch never started")
		}
		time.Sleep(time.Millisecond)
	}

	// A single seed needs no path lookup, so this run is not blocked.
	if _, err := s.Dispatch(ctx, Replace([]node.Ref{ref("P2")})); err != nil {
		t.Fatalf("fast Dispatch() error = %v", err)
	}

	release()
	wg.Wait()

	if !errors.Is(slowErr, ErrStale) {
		t.Fatalf("slow Dispatch() error = %v, want ErrStale", slowErr)
	}
	if got := sortedIDs(s.Displayed()); !slices.Equal(got, []string{"B", "P2", "X"}) {
		t.Errorf("displayed = %v, want the newer selection's graph", got)
	}
}

func TestOnUpdate(t *testing.T) {
	s := New(neighborhood.New(newSource(), nil))

	var got []Update
	s.OnUpdate(func(u Update) { got = append(got, u) })

	ctx := context.Background()
	if _, err := s.Dispatch(ctx, Select(ref("P1"))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dispatch(ctx, Select(ref("P1"))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dispatch(ctx, Clear()); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(got))
	}
	if got[0].State.Seq != 1 || got[1].State.Seq != 2 {
		t.Errorf("seqs = %d, %d; want 1, 2", got[0].State.Seq, got[1].State.Seq)
	}
}
