// Package server exposes a source.Source as the paged-query HTTP service
// that the remote source consumes:
//
//	GET /api/team-members?page=&limit=&role=&search=&sortBy=&sortOrder=
//	GET /healthz
//	GET /metrics
//
// The service is built on gin with request-ID, access-log, recovery and
// metrics middleware.
package server
