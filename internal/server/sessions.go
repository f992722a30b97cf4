package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/session"
)

type sessionEntry struct {
	sess     *session.Session
	lastUsed time.Time
}

// pruneSessions drops expired sessions, then the least recently used ones
// until there is room for one more. Callers hold s.mu.
func (s *Server) pruneSessions(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.sessionTTL {
			delete(s.sessions, id)
			s.logger.Debug("session expired", "session", id)
		}
	}
	for len(s.sessions) >= s.maxSessions {
		var oldest string
		var oldestAt time.Time
		for id, e := range s.sessions {
			if oldest == "" || e.lastUsed.Before(oldestAt) {
				oldest, oldestAt = id, e.lastUsed
			}
		}
		delete(s.sessions, oldest)
		s.logger.Info("session evicted", "session", oldest, "max_sessions", s.maxSessions)
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	id := uuid.NewString()
	sess := session.New(s.builder, session.WithLogger(s.logger.With("session", id)))

	s.mu.Lock()
	now := s.now()
	s.pruneSessions(now)
	s.sessions[id] = &sessionEntry{sess: sess, lastUsed: now}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, apitypes.CreateSessionResponse{SessionID: id})
}

// lookupSession returns the live session named by the sid parameter and
// marks it used. An expired session is removed and reported as unknown.
func (s *Server) lookupSession(c *gin.Context) (*session.Session, bool) {
	id := c.Param("sid")
	s.mu.Lock()
	now := s.now()
	e, ok := s.sessions[id]
	if ok && now.Sub(e.lastUsed) > s.sessionTTL {
		delete(s.sessions, id)
		ok = false
	}
	if ok {
		e.lastUsed = now
	}
	s.mu.Unlock()
	if !ok {
		s.abort(c, ErrUnknownSession, id)
		return nil, false
	}
	return e.sess, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	st := sess.State()
	g := sess.Displayed()
	c.JSON(http.StatusOK, apitypes.SessionStateResponse{
		SessionID: c.Param("sid"),
		Seq:       st.Seq,
		Selection: st.Selection,
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
	})
}

// handleSelection replaces the session's selection and returns the edits
// that bring its display up to date. A selection superseded by a concurrent
// request is reported as stale rather than as an error.
func (s *Server) handleSelection(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	var req apitypes.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortStatus(c, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err), c.Param("sid"))
		return
	}

	upd, err := sess.Dispatch(c.Request.Context(), session.Replace(req.Seeds))
	if errors.Is(err, session.ErrStale) {
		c.JSON(http.StatusOK, apitypes.SelectionResponse{Seq: sess.State().Seq, Stale: true})
		return
	}
	if err != nil {
		s.abort(c, err, c.Param("sid"))
		return
	}
	c.JSON(http.StatusOK, apitypes.FromUpdate(upd))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("sid")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		s.abort(c, ErrUnknownSession, id)
		return
	}
	c.Status(http.StatusNoContent)
}
