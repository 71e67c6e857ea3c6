package api

import (
	"errors"
	"net/http"

	"github.com/subdeck/subdeck/pkg/airtable"
	"github.com/subdeck/subdeck/pkg/httputil"
	"github.com/subdeck/subdeck/pkg/middleware"
)

// handleListPosts handles GET /api/posts
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	records, err := s.upstream.ListRecords(r.Context(), tc.Creds, tc.Creds.PostsTableID)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, RecordsResponse{Records: records})
}

// handleListSubreddits handles GET /api/subreddits
func (s *Server) handleListSubreddits(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	records, err := s.upstream.ListRecords(r.Context(), tc.Creds, tc.Creds.SubredditsTableID)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, RecordsResponse{Records: records})
}

// handleCreatePost handles POST /api/posts. The body is an arbitrary field
// map forwarded to the upstream store unaltered.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var fields map[string]interface{}
	if !httputil.ParseJSONOrError(w, r, &fields) {
		return
	}

	record, err := s.upstream.CreateRecord(r.Context(), tc.Creds, tc.Creds.PostsTableID, fields)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// writeUpstreamError maps gateway errors onto the client-facing contract:
// incomplete config and upstream rejections are client errors, transport
// failures are server faults. Nothing is retried.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, airtable.ErrConfigIncomplete):
		httputil.WriteBadRequest(w, "Airtable configuration incomplete")
	case airtable.IsRejected(err):
		var ue *airtable.UpstreamError
		errors.As(err, &ue)
		httputil.WriteBadRequest(w, ue.Message)
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("upstream call failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "upstream unreachable")
	}
}
