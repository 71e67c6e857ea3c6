package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subdeck/subdeck/pkg/airtable"
	"github.com/subdeck/subdeck/pkg/auth"
	"github.com/subdeck/subdeck/pkg/tenants"
)

// testEnv bundles a server wired against a scripted upstream
type testEnv struct {
	server   *Server
	sessions *auth.Store
	upstream *httptest.Server
	calls    int32
}

func newTestEnv(t *testing.T, upstreamHandler http.HandlerFunc) *testEnv {
	t.Helper()

	env := &testEnv{sessions: auth.NewStore()}
	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&env.calls, 1)
		if upstreamHandler != nil {
			upstreamHandler(w, r)
			return
		}
		fmt.Fprint(w, `{"records":[]}`)
	}))
	t.Cleanup(env.upstream.Close)

	registry := tenants.NewRegistry([]tenants.Tenant{
		{
			ID:                "alice",
			Password:          "hunter2",
			AirtableAPIKey:    "keyXXXXXXXXXXXXXX",
			AirtableBaseID:    "appXXXXXXXXXXXXXX",
			PostsTableID:      "tblPosts",
			SubredditsTableID: "tblSubreddits",
		},
		{ID: "bob", Password: "swordfish"},
	})

	env.server = NewServer(Config{
		Registry: registry,
		Sessions: env.sessions,
		Upstream: airtable.NewClient(env.upstream.URL, 5*time.Second, nil, nil),
		Version:  "test",
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Auth-Token", token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, id, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", "", LoginRequest{ID: id, Password: password})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{ID: "alice", Password: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.UserID)
	assert.True(t, resp.HasAirtableConfig)
	assert.Regexp(t, `^sd_`, resp.Token)

	// The issued token resolves immediately
	sess, ok := env.sessions.Resolve(resp.Token)
	require.True(t, ok)
	assert.Equal(t, "alice", sess.TenantID)
}

func TestLogin_ReportsMissingAirtableConfig(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{ID: "bob", Password: "swordfish"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.HasAirtableConfig)
}

func TestLogin_Failure(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		id   string
		pass string
	}{
		{name: "wrong password", id: "alice", pass: "wrong"},
		{name: "unknown id", id: "mallory", pass: "hunter2"},
		{name: "empty body fields", id: "", pass: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{ID: tt.id, Password: tt.pass})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			// Same message regardless of which field mismatched
			assert.Equal(t, "Invalid ID or Password", resp.Message)
			assert.Empty(t, resp.Token)
		})
	}
}

func TestLogin_SeparateSessionsPerLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.login(t, "alice", "hunter2")
	second := env.login(t, "alice", "hunter2")
	assert.NotEqual(t, first, second)

	rec := env.do(t, http.MethodPost, "/api/logout", first, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The other device's session survives
	_, ok := env.sessions.Resolve(second)
	assert.True(t, ok)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, token := range []string{"", "sd_never-issued"} {
		rec := env.do(t, http.MethodPost, "/api/logout", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp BasicResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok := env.sessions.Resolve(token)
	assert.False(t, ok)

	// Logging out again with the now-dead token still succeeds
	rec = env.do(t, http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/posts"},
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/subreddits"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := env.do(t, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	// Nothing reached the upstream
	assert.Equal(t, int32(0), atomic.LoadInt32(&env.calls))
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appXXXXXXXXXXXXXX/tblPosts", r.URL.Path)
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Title":"hello"}}]}`)
	})
	token := env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "rec1", resp.Records[0].ID)
}

func TestListSubreddits_AggregatesPages(t *testing.T) {
	pages := []string{
		`{"records":[{"id":"rec1"}],"offset":"next"}`,
		`{"records":[{"id":"rec2"}]}`,
	}
	var page int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&page, 1) - 1
		assert.Equal(t, "/appXXXXXXXXXXXXXX/tblSubreddits", r.URL.Path)
		require.Less(t, int(n), len(pages))
		fmt.Fprint(w, pages[n])
	})
	token := env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodGet, "/api/subreddits", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "rec1", resp.Records[0].ID)
	assert.Equal(t, "rec2", resp.Records[1].ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&env.calls))
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"id":"recNew","fields":{"Title":"new post"}}`)
	})
	token := env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{"Title": "new post"})
	require.Equal(t, http.StatusOK, rec.Code)

	var record airtable.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "recNew", record.ID)
}

func TestRecordRoutes_ConfigIncomplete(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "bob", "swordfish")

	rec := env.do(t, http.MethodGet, "/api/posts", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Airtable configuration incomplete", body["error"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&env.calls))
}

func TestRecordRoutes_UpstreamRejection(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"type":"INVALID_REQUEST","message":"Unknown field name"}}`)
	})
	token := env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodGet, "/api/posts", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Unknown field name", body["error"])
}

func TestRecordRoutes_UpstreamUnreachable(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice", "hunter2")
	env.upstream.Close()

	rec := env.do(t, http.MethodGet, "/api/posts", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upstream unreachable", body["error"])
}

func TestCreatePost_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t, "alice", "hunter2")

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&env.calls))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t, "alice", "hunter2")

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["active_sessions"])
}

func TestCORSPreflight_BypassesAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestDashboard_IndexFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dashboard</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644))

	server := NewServer(Config{
		Registry: tenants.NewRegistry(nil),
		Sessions: auth.NewStore(),
		Upstream: airtable.NewClient("http://127.0.0.1:0", time.Second, nil, nil),
		WebDir:   dir,
	})

	// Existing asset is served as-is
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	// Unknown client-side routes fall back to index.html
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings/profile", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard")
}
