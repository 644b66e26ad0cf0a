package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roach88/teamdir/internal/roster"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// TransportError is returned when the paged-query service cannot be reached
// or answers with something other than a valid page.
type TransportError struct {
	// Endpoint is the URL that was called, including the query string.
	Endpoint string

	// StatusCode is the HTTP status, or 0 if no response arrived.
	StatusCode int

	// RequestID is the X-Request-ID sent with the call.
	RequestID string

	// Message is the human-readable reason shown to users.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error returns Message; the other fields are for logs.
func (e *TransportError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Remote loads pages from a paged-query HTTP service speaking
//
//	GET <endpoint>?page=&limit=&role=&search=&sortBy=&sortOrder=
//	→ {"data": [...], "pagination": {...}}
//
// Every response is checked against the roster response schema before it
// is decoded.
type Remote struct {
	endpoint *url.URL
	client   *http.Client
	schema   *roster.Schema
	logger   *slog.Logger
}

// RemoteOption configures a Remote source.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		r.client = c
	}
}

// WithTimeout sets the per-call timeout of the default client.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		r.client = &http.Client{Timeout: d}
	}
}

// WithRemoteLogger sets the logger.
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) {
		r.logger = l
	}
}

// NewRemote creates a source for endpoint. The endpoint must be an absolute
// http or https URL.
func NewRemote(endpoint string, opts ...RemoteOption) (*Remote, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute http(s) URL", endpoint)
	}
	schema, err := roster.NewSchema()
	if err != nil {
		return nil, err
	}

	r := &Remote{
		endpoint: u,
		client:   &http.Client{Timeout: DefaultTimeout},
		schema:   schema,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load issues one GET for q. Failures of any kind come back as
// *TransportError, except invalid queries which are rejected before any
// call is made.
func (r *Remote) Load(ctx context.Context, q roster.Query) (roster.Page, error) {
	if err := q.Validate(); err != nil {
		return roster.Page{}, err
	}

	target := r.url(q)
	reqID := RequestID(ctx)
	fail := func(status int, msg string, err error) (roster.Page, error) {
		r.logger.Warn("remote load failed",
			"request_id", reqID,
			"status", status,
			"error", msg,
		)
		return roster.Page{}, &TransportError{
			Endpoint:   target,
			StatusCode: status,
			RequestID:  reqID,
			Message:    msg,
			Err:        err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(0, "Failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(0, "Failed to reach the team directory service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(resp.StatusCode, "Failed to read the team directory response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, statusMessage(resp.StatusCode, body), nil)
	}
	if err := r.schema.ValidateResponse(body); err != nil {
		return fail(resp.StatusCode, "Invalid response from the team directory service", err)
	}

	var page roster.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return fail(resp.StatusCode, "Invalid response from the team directory service", err)
	}
	if page.Members == nil {
		page.Members = []roster.Member{}
	}

	r.logger.Debug("remote load",
		"request_id", reqID,
		"page", q.Page,
		"returned", len(page.Members),
		"total", page.Info.TotalCount,
	)
	return page, nil
}

// url encodes q onto the endpoint. Unset optional parameters are omitted.
func (r *Remote) url(q roster.Query) string {
	u := *r.endpoint
	v := u.Query()
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.PageSize))
	if q.Role != roster.NoRole {
		v.Set("role", string(q.Role))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SortBy != roster.NoSort {
		v.Set("sortBy", string(q.SortBy))
	}
	v.Set("sortOrder", string(q.SortOrder))
	u.RawQuery = v.Encode()
	return u.String()
}

// statusMessage prefers the service's {"error": "..."} body.
func statusMessage(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("Team directory service returned %d %s", status, http.StatusText(status))
}
