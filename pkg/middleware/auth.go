package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/subdeck/subdeck/pkg/airtable"
	"github.com/subdeck/subdeck/pkg/audit"
	"github.com/subdeck/subdeck/pkg/auth"
	"github.com/subdeck/subdeck/pkg/contextkeys"
	"github.com/subdeck/subdeck/pkg/tenants"
)

// AuthHeader is the request header carrying the session token
const AuthHeader = "X-Auth-Token"

// TenantContext is the immutable per-request view of the authenticated
// tenant, constructed once by the auth gate and passed by parameter to
// downstream components.
type TenantContext struct {
	Tenant *tenants.Tenant
	Creds  airtable.Credentials
}

// AuthMiddleware resolves session tokens into tenant context. Requests
// without a resolvable token are rejected here, before any upstream call.
type AuthMiddleware struct {
	sessions *auth.Store
	registry *tenants.Registry
	audit    audit.Logger
}

// NewAuthMiddleware creates the auth gate. auditLog may be nil.
func NewAuthMiddleware(sessions *auth.Store, registry *tenants.Registry, auditLog audit.Logger) *AuthMiddleware {
	if auditLog == nil {
		auditLog = audit.NewNopLogger()
	}
	return &AuthMiddleware{
		sessions: sessions,
		registry: registry,
		audit:    auditLog,
	}
}

// Handler wraps an HTTP handler with session authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AuthHeader)
		if token == "" {
			m.logRejection(r, "", audit.ReasonMissing)
			m.unauthorizedResponse(w, "no token supplied")
			return
		}

		sess, outcome := m.sessions.Inspect(token)
		if outcome != auth.ResolveOK {
			// Unknown and expired are reported identically to the client;
			// the audit trail keeps them apart for operators.
			reason := audit.ReasonUnknown
			if outcome == auth.ResolveExpired {
				reason = audit.ReasonExpired
			}
			m.logRejection(r, sess.TenantID, reason)
			m.unauthorizedResponse(w, "invalid or expired session")
			return
		}

		tenant := m.registry.Get(sess.TenantID)
		if tenant == nil {
			// Session invariant guarantees this only happens if the process
			// was restarted with a different tenant list.
			m.logRejection(r, sess.TenantID, audit.ReasonUnknown)
			m.unauthorizedResponse(w, "invalid or expired session")
			return
		}

		tc := &TenantContext{
			Tenant: tenant,
			Creds:  tenant.AirtableCredentials(),
		}
		ctx := contextkeys.WithTenant(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) logRejection(r *http.Request, tenantID, reason string) {
	event := audit.NewEvent(audit.EventTypeTokenRejected)
	event.TenantID = tenantID
	event.Reason = reason
	event.RequestID = contextkeys.GetRequestID(r.Context())
	event.RemoteAddr = r.RemoteAddr
	event.Path = r.URL.Path
	_ = m.audit.Log(r.Context(), event)
}

func (m *AuthMiddleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// GetTenantContext extracts the tenant context attached by the auth gate,
// or nil for unauthenticated requests.
func GetTenantContext(r *http.Request) *TenantContext {
	v := r.Context().Value(contextkeys.TenantKey)
	if v == nil {
		return nil
	}
	tc, ok := v.(*TenantContext)
	if !ok {
		return nil
	}
	return tc
}
