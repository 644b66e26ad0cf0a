package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/source"
)

// MaxPageSize is the largest limit the members endpoint accepts.
const MaxPageSize = 100

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, RequestID: GetRequestID(c)})
}

// listMembers serves one page of the directory.
func (s *Server) listMembers(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := source.WithRequestID(c.Request.Context(), GetRequestID(c))
	page, err := s.source.Load(ctx, q)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrInvalidQuery):
			respondError(c, http.StatusBadRequest, err.Error())
		case source.IsTransportError(err):
			respondError(c, http.StatusBadGateway, err.Error())
		default:
			s.logger.Error("load members",
				"request_id", GetRequestID(c),
				"error", err,
			)
			respondError(c, http.StatusInternalServerError, "Failed to load team members")
		}
		return
	}

	s.metrics.MembersServed(len(page.Members))
	c.JSON(http.StatusOK, page)
}

// parseQuery reads the members query parameters. page and limit default
// to 1 and roster.DefaultPageSize; everything else defaults to unset.
func parseQuery(c *gin.Context) (roster.Query, error) {
	q := roster.Query{Page: 1, PageSize: roster.DefaultPageSize, SortOrder: roster.Asc}

	var err error
	if v := c.Query("page"); v != "" {
		if q.Page, err = positiveInt("page", v); err != nil {
			return q, err
		}
	}
	if v := c.Query("limit"); v != "" {
		if q.PageSize, err = positiveInt("limit", v); err != nil {
			return q, err
		}
		if q.PageSize > MaxPageSize {
			return q, fmt.Errorf("limit must be at most %d", MaxPageSize)
		}
	}
	if v := c.Query("role"); v != "" {
		if q.Role, err = roster.ParseRole(v); err != nil {
			return q, err
		}
	}
	q.Search = c.Query("search")
	if q.SortBy, err = roster.ParseSortField(c.Query("sortBy")); err != nil {
		return q, err
	}
	if q.SortOrder, err = roster.ParseSortOrder(c.Query("sortOrder")); err != nil {
		return q, err
	}
	return q, q.Validate()
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
