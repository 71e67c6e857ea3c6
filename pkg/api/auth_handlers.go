package api

import (
	"net/http"

	"github.com/subdeck/subdeck/pkg/audit"
	"github.com/subdeck/subdeck/pkg/contextkeys"
	"github.com/subdeck/subdeck/pkg/httputil"
	"github.com/subdeck/subdeck/pkg/middleware"
	"github.com/subdeck/subdeck/pkg/tenants"
)

// loginFailedMessage is intentionally generic; it must never reveal which
// of the two fields mismatched.
const loginFailedMessage = "Invalid ID or Password"

// handleLogin handles POST /api/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tenant := s.registry.Lookup(req.ID, req.Password)
	if tenant == nil {
		s.auditAuth(r, audit.EventTypeLoginFailed, req.ID)
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		httputil.WriteJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: loginFailedMessage,
		})
		return
	}

	token, err := s.sessions.Issue(tenant.ID)
	if err != nil {
		s.logger.WithError(err).Error("token issuance failed")
		httputil.WriteJSON(w, http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "internal error",
		})
		return
	}

	s.auditAuth(r, audit.EventTypeLogin, tenant.ID)
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
		s.metrics.SessionsActive.Set(float64(s.sessions.Len()))
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:           true,
		UserID:            tenant.ID,
		Token:             token,
		HasAirtableConfig: tenants.Usable(tenant),
	})
}

// handleLogout handles POST /api/logout. Always succeeds: revoking an
// unknown or absent token is a no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(middleware.AuthHeader)
	if token != "" {
		sess, ok := s.sessions.Resolve(token)
		s.sessions.Revoke(token)
		if ok {
			s.auditAuth(r, audit.EventTypeLogout, sess.TenantID)
		}
		if s.metrics != nil {
			s.metrics.SessionsActive.Set(float64(s.sessions.Len()))
		}
	}

	httputil.WriteJSON(w, http.StatusOK, BasicResponse{Success: true})
}

func (s *Server) auditAuth(r *http.Request, eventType audit.EventType, tenantID string) {
	event := audit.NewEvent(eventType)
	event.TenantID = tenantID
	event.RequestID = contextkeys.GetRequestID(r.Context())
	event.RemoteAddr = r.RemoteAddr
	event.Path = r.URL.Path
	if err := s.audit.Log(r.Context(), event); err != nil {
		s.logger.WithError(err).Warn("audit log write failed")
	}
}
