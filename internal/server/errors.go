package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrSearchDisabled = errors.New("backend does not support search")
)

// statusOf maps an error to the HTTP status it is reported with.
func statusOf(err error) int {
	switch {
	case source.IsNotFound(err), errors.Is(err, ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, neighborhood.ErrNoSeeds),
		errors.Is(err, node.ErrEmptyID),
		errors.Is(err, node.ErrUnknownKind),
		source.IsRejected(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrSearchDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case source.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abort writes err as an ErrorResponse with the status statusOf assigns.
func (s *Server) abort(c *gin.Context, err error, id string) {
	s.abortStatus(c, statusOf(err), err, id)
}

func (s *Server) abortStatus(c *gin.Context, status int, err error, id string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "id", id, "error", err)
	}
	c.AbortWithStatusJSON(status, apitypes.ErrorResponse{
		Code:    status,
		Message: err.Error(),
		ID:      id,
	})
}
