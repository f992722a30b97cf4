package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
	"github.com/matsen/pdbkg/internal/viz"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, apitypes.HealthResponse{Status: "ok", Backend: s.backend})
}

func (s *Server) handleNode(c *gin.Context) {
	id := c.Param("id")
	kind, err := node.ParseKind(c.Query("kind"))
	if err != nil {
		s.abort(c, err, id)
		return
	}

	n, err := s.src.FetchDetails(c.Request.Context(), node.Ref{ID: id, Kind: kind})
	if err != nil {
		s.abort(c, err, id)
		return
	}
	s.dir.Put(n)
	c.JSON(http.StatusOK, n)
}

func (s *Server) handleNeighbors(c *gin.Context) {
	id := c.Param("id")
	var kind node.Kind
	if raw := c.Query("kind"); raw != "" {
		k, err := node.ParseKind(raw)
		if err != nil {
			s.abort(c, err, id)
			return
		}
		kind = k
	}
	nodes, err := source.NeighborsOfKind(c.Request.Context(), s.src, id, kind)
	if err != nil {
		s.abort(c, err, id)
		return
	}
	c.JSON(http.StatusOK, nodesResponse(nodes))
}

func (s *Server) handleAnnotated(c *gin.Context) {
	id := c.Param("id")
	nodes, err := source.FetchAnnotated(c.Request.Context(), s.src, id)
	if err != nil {
		s.abort(c, err, id)
		return
	}
	c.JSON(http.StatusOK, nodesResponse(nodes))
}

func (s *Server) handlePath(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("start and end are required"), "")
		return
	}
	maxHops, err := intQuery(c, "max_hops", s.maxHops)
	if err != nil {
		s.abortStatus(c, http.StatusBadRequest, err, "")
		return
	}
	maxHops = source.NormalizeHops(maxHops)

	nodes, err := s.src.FetchPath(c.Request.Context(), start, end, maxHops)
	if err != nil {
		s.abort(c, err, "")
		return
	}
	if nodes == nil {
		nodes = []node.Node{}
	}
	c.JSON(http.StatusOK, apitypes.PathResponse{
		Start:     start,
		End:       end,
		MaxHops:   maxHops,
		Nodes:     nodes,
		Connected: len(nodes) > 0,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	searcher, ok := s.src.(source.Searcher)
	if !ok {
		s.abort(c, ErrSearchDisabled, "")
		return
	}
	query := c.Query("q")
	if query == "" {
		s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("q is required"), "")
		return
	}
	var kind node.Kind
	if raw := c.Query("kind"); raw != "" {
		k, err := node.ParseKind(raw)
		if err != nil {
			s.abort(c, err, "")
			return
		}
		kind = k
	}
	limit, err := intQuery(c, "limit", DefaultSearchLimit)
	if err != nil {
		s.abortStatus(c, http.StatusBadRequest, err, "")
		return
	}

	nodes, err := searcher.Search(c.Request.Context(), query, kind, limit)
	if err != nil {
		s.abort(c, err, "")
		return
	}
	c.JSON(http.StatusOK, nodesResponse(nodes))
}

func (s *Server) handleNeighborhood(c *gin.Context) {
	var req apitypes.NeighborhoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err), "")
		return
	}
	if req.MaxHops < 0 {
		s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("invalid max_hops: %d", req.MaxHops), "")
		return
	}

	b := s.builder
	if req.MaxHops > 0 && req.MaxHops != s.maxHops {
		b = s.newBuilder(req.MaxHops)
	}
	res, err := b.Build(c.Request.Context(), req.Seeds)
	if err != nil {
		s.abort(c, err, "")
		return
	}
	c.JSON(http.StatusOK, apitypes.FromResult(res))
}

// handleViz renders the neighborhood of the seed query parameters as a
// standalone HTML page. Seeds are given as kind:id.
func (s *Server) handleViz(c *gin.Context) {
	opts := viz.DefaultOptions()
	if layout := c.Query("layout"); layout != "" {
		opts.Layout = layout
	}

	seeds := make([]node.Ref, 0, len(c.QueryArray("seed")))
	for _, raw := range c.QueryArray("seed") {
		ref, err := node.ParseRef(raw)
		if err != nil {
			s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("parsing seed %q: %w", raw, err), "")
			return
		}
		seeds = append(seeds, ref)
	}

	data := &viz.GraphData{}
	if len(seeds) > 0 {
		res, err := s.builder.Build(c.Request.Context(), seeds)
		if err != nil {
			s.abort(c, err, "")
			return
		}
		data = viz.FromGraph(res.Graph, res.Backbone)
	}

	html, err := viz.GenerateHTML(data, opts)
	if err != nil {
		s.abortStatus(c, http.StatusBadRequest, err, "")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func nodesResponse(nodes []node.Node) apitypes.NodesResponse {
	if nodes == nil {
		nodes = []node.Node{}
	}
	return apitypes.NodesResponse{Nodes: nodes, Count: len(nodes)}
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
