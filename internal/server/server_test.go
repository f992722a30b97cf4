package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/kgclient"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
	"github.com/matsen/pdbkg/internal/source/sourcetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSource() *sourcetest.Memory {
	return sourcetest.NewMemory().
		AddNodes("P1", "X", "P2", "A", "B").
		Link("P1", "X").Link("X", "P2").
		Link("P1", "A").Link("P2", "B")
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func ids(nodes []node.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := New(newSource(), WithBackendName("sqlite"))

	w := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[apitypes.HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite", resp.Backend)
}

func TestNode(t *testing.T) {
	s := New(newSource())

	t.Run("found", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/nodes/P1?kind=protein", nil)
		require.Equal(t, http.StatusOK, w.Code)
		n := decode[node.Node](t, w)
		assert.Equal(t, "P1", n.ID)
		assert.Equal(t, "name-P1", n.Name)
	})

	t.Run("not found", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/nodes/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		er := decode[apitypes.ErrorResponse](t, w)
		assert.Equal(t, http.StatusNotFound, er.Code)
		assert.Equal(t, "nope", er.ID)
	})

	t.Run("bad kind", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/nodes/P1?kind=widget", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transport failure", func(t *testing.T) {
		src := newSource().Fail("P1", source.Transport(errors.New("connection reset")))
		w := do(t, New(src), http.MethodGet, "/api/nodes/P1", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestNeighbors(t *testing.T) {
	s := New(newSource())

	w := do(t, s, http.MethodGet, "/api/nodes/P1/neighbors", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[apitypes.NodesResponse](t, w)
	assert.Equal(t, []string{"A", "X"}, ids(resp.Nodes))
	assert.Equal(t, 2, resp.Count)
}

func annotatedSource() *sourcetest.Memory {
	return newSource().
		AddNode(node.Node{ID: "GO1", Kind: node.KindAnnotation, Name: "kinase activity"}).
		AddNode(node.Node{ID: "D1", Kind: node.KindDrug, Name: "aspirin"}).
		Link("GO1", "P1").Link("GO1", "P2").Link("GO1", "D1")
}

func TestNeighbors_KindFilter(t *testing.T) {
	s := New(annotatedSource())

	w := do(t, s, http.MethodGet, "/api/nodes/GO1/neighbors?kind=drug", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"D1"}, ids(decode[apitypes.NodesResponse](t, w).Nodes))

	w = do(t, s, http.MethodGet, "/api/nodes/GO1/neighbors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"D1", "P1", "P2"}, ids(decode[apitypes.NodesResponse](t, w).Nodes))

	w = do(t, s, http.MethodGet, "/api/nodes/GO1/neighbors?kind=planet", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnnotated(t *testing.T) {
	s := New(annotatedSource())

	w := do(t, s, http.MethodGet, "/api/nodes/GO1/annotated", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[apitypes.NodesResponse](t, w)
	assert.Equal(t, []string{"P1", "P2"}, ids(resp.Nodes))
	assert.Equal(t, 2, resp.Count)

	w = do(t, s, http.MethodGet, "/api/nodes/missing/annotated", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPath(t *testing.T) {
	s := New(newSource())

	tests := []struct {
		name      string
		target    string
		status    int
		want      []string
		connected bool
	}{
		{"connected", "/api/path?start=P1&end=P2", http.StatusOK, []string{"P1", "X", "P2"}, true},
		{"too far", "/api/path?start=A&end=B&max_hops=2", http.StatusOK, []string{}, false},
		{"missing end", "/api/path?start=P1", http.StatusBadRequest, nil, false},
		{"bad hops", "/api/path?start=P1&end=P2&max_hops=x", http.StatusBadRequest, nil, false},
		{"unknown node", "/api/path?start=P1&end=Z", http.StatusNotFound, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			resp := decode[apitypes.PathResponse](t, w)
			assert.Equal(t, tt.want, ids(resp.Nodes))
			assert.Equal(t, tt.connected, resp.Connected)
		})
	}
}

func TestSearch(t *testing.T) {
	src := newSource().AddNode(node.Node{ID: "GO:1", Kind: node.KindAnnotation, Name: "kinase activity"})
	s := New(src)

	w := do(t, s, http.MethodGet, "/api/search?q=kinase", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"GO:1"}, ids(decode[apitypes.NodesResponse](t, w).Nodes))

	w = do(t, s, http.MethodGet, "/api/search?q=name&kind=protein&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[apitypes.NodesResponse](t, w).Nodes, 2)

	w = do(t, s, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_Unsupported(t *testing.T) {
	// Hide the Searcher method set.
	s := New(struct{ source.Source }{newSource()})

	w := do(t, s, http.MethodGet, "/api/search?q=P", nil)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestNeighborhood(t *testing.T) {
	s := New(newSource())

	w := do(t, s, http.MethodPost, "/api/neighborhood", apitypes.NeighborhoodRequest{
		Seeds: []node.Ref{{ID: "P1", Kind: node.KindProtein}, {ID: "P2", Kind: node.KindProtein}},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[apitypes.NeighborhoodResponse](t, w)
	assert.True(t, resp.Connected)
	assert.Equal(t, []string{"P1", "X", "P2"}, resp.Backbone)
	got := ids(resp.Nodes)
	slices.Sort(got)
	assert.Equal(t, []string{"A", "B", "P1", "P2", "X"}, got)
	assert.Len(t, resp.Edges, 4)
}

func TestNeighborhood_BadRequests(t *testing.T) {
	s := New(newSource())

	tests := []struct {
		name string
		body any
	}{
		{"no seeds", apitypes.NeighborhoodRequest{}},
		{"negative hops", apitypes.NeighborhoodRequest{Seeds: []node.Ref{{ID: "P1"}}, MaxHops: -1}},
		{"not json", "seeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/neighborhood", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSessions(t *testing.T) {
	s := New(newSource())

	w := do(t, s, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sid := decode[apitypes.CreateSessionResponse](t, w).SessionID
	require.NotEmpty(t, sid)

	selection := "/api/sessions/" + sid + "/selection"

	w = do(t, s, http.MethodPut, selection, apitypes.SelectionRequest{Seeds: []node.Ref{{ID: "P1", Kind: node.KindProtein}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[apitypes.SelectionResponse](t, w)
	assert.Equal(t, uint64(1), first.Seq)
	assert.False(t, first.Stale)
	assert.Len(t, first.Edits.AddNodes, 3)
	assert.Len(t, first.Ops, 5, "three node adds and two edge adds")

	w = do(t, s, http.MethodPut, selection, apitypes.SelectionRequest{Seeds: []node.Ref{
		{ID: "P1", Kind: node.KindProtein}, {ID: "P2", Kind: node.KindProtein},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[apitypes.SelectionResponse](t, w)
	assert.Equal(t, uint64(2), second.Seq)
	assert.True(t, second.Connected)
	added := ids(second.Edits.AddNodes)
	slices.Sort(added)
	assert.Equal(t, []string{"B", "P2"}, added)
	assert.Empty(t, second.Edits.RemoveNodes)

	w = do(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[apitypes.SessionStateResponse](t, w)
	assert.Equal(t, uint64(2), state.Seq)
	assert.Len(t, state.Selection, 2)
	assert.Len(t, state.Nodes, 5)

	w = do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodPut, selection, apitypes.SelectionRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_FailedBuild(t *testing.T) {
	src := newSource().Fail("P2", source.Transport(errors.New("timeout")))
	s := New(src)

	w := do(t, s, http.MethodPost, "/api/sessions", nil)
	sid := decode[apitypes.CreateSessionResponse](t, w).SessionID

	w = do(t, s, http.MethodPut, "/api/sessions/"+sid+"/selection",
		apitypes.SelectionRequest{Seeds: []node.Ref{{ID: "P2"}}})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[apitypes.SessionStateResponse](t, w).Nodes)

	// Repeating the request once the backend recovers rebuilds.
	src.Fail("P2", nil)
	w = do(t, s, http.MethodPut, "/api/sessions/"+sid+"/selection",
		apitypes.SelectionRequest{Seeds: []node.Ref{{ID: "P2"}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	retry := decode[apitypes.SelectionResponse](t, w)
	added := ids(retry.Edits.AddNodes)
	slices.Sort(added)
	assert.Equal(t, []string{"B", "P2", "X"}, added)
}

func TestViz(t *testing.T) {
	s := New(newSource())

	w := do(t, s, http.MethodGet, "/viz?seed=protein:P1&layout=circle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `"P1"`)
	assert.Contains(t, body, `"X"`)

	w = do(t, s, http.MethodGet, "/viz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "No nodes selected"))

	w = do(t, s, http.MethodGet, "/viz?seed=protein:P1&layout=spiral", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/viz?seed=protein:", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(New(newSource(), WithBackendName("memory")).Handler())
	t.Cleanup(srv.Close)
	c := kgclient.NewClient(kgclient.WithBaseURL(srv.URL), kgclient.WithRateLimit(0))
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", health.Backend)

	n, err := c.FetchDetails(ctx, node.Ref{ID: "X"})
	require.NoError(t, err)
	assert.Equal(t, "name-X", n.Name)

	_, err = c.FetchDetails(ctx, node.Ref{ID: "missing"})
	assert.True(t, source.IsNotFound(err), "err = %v", err)

	path, err := c.FetchPath(ctx, "P1", "P2", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "X", "P2"}, ids(path))

	nbrs, err := c.FetchNeighbors(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, ids(nbrs))
}

func TestClientNeighborsOfKind(t *testing.T) {
	srv := httptest.NewServer(New(annotatedSource()).Handler())
	t.Cleanup(srv.Close)
	c := kgclient.NewClient(kgclient.WithBaseURL(srv.URL), kgclient.WithRateLimit(0))
	ctx := context.Background()

	proteins, err := source.FetchAnnotated(ctx, c, "GO1")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, ids(proteins))

	drugs, err := c.FetchNeighborsOfKind(ctx, "GO1", node.KindDrug)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, ids(drugs))
}

func TestClientSessions(t *testing.T) {
	srv := httptest.NewServer(New(newSource()).Handler())
	t.Cleanup(srv.Close)
	c := kgclient.NewClient(kgclient.WithBaseURL(srv.URL), kgclient.WithRateLimit(0))
	ctx := context.Background()

	sid, err := c.CreateSession(ctx)
	require.NoError(t, err)

	resp, err := c.SetSelection(ctx, sid, []node.Ref{{ID: "P1", Kind: node.KindProtein}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Seq)
	assert.Len(t, resp.Edits.AddNodes, 3)

	resp, err = c.SetSelection(ctx, sid, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Edits.RemoveNodes, 3)

	require.NoError(t, c.DeleteSession(ctx, sid))
	err = c.DeleteSession(ctx, sid)
	assert.True(t, source.IsNotFound(err), "err = %v", err)
}

func TestSessions_IdleExpiry(t *testing.T) {
	s := New(newSource(), WithSessionLimits(time.Minute, 0))
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	w := do(t, s, http.MethodPost, "/api/sessions", nil)
	sid := decode[apitypes.CreateSessionResponse](t, w).SessionID

	clock = clock.Add(50 * time.Second)
	w = do(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code, "use within the TTL")

	// The last use restarted the idle clock.
	clock = clock.Add(50 * time.Second)
	w = do(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)

	clock = clock.Add(2 * time.Minute)
	w = do(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.mu.Lock()
	assert.Empty(t, s.sessions)
	s.mu.Unlock()
}

func TestSessions_CapEvictsLeastRecentlyUsed(t *testing.T) {
	s := New(newSource(), WithSessionLimits(0, 2))
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	create := func() string {
		w := do(t, s, http.MethodPost, "/api/sessions", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		return decode[apitypes.CreateSessionResponse](t, w).SessionID
	}
	first, second := create(), create()

	// Touch the first so the second becomes least recently used.
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/sessions/"+first, nil).Code)
	third := create()

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/sessions/"+first, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+second, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/sessions/"+third, nil).Code)
}
