package tenants

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry([]Tenant{
		{ID: "alice", Password: "hunter2"},
		{ID: "bob", Password: "swordfish"},
	})

	tests := []struct {
		name     string
		id       string
		password string
		found    bool
	}{
		{name: "exact match", id: "alice", password: "hunter2", found: true},
		{name: "wrong password", id: "alice", password: "swordfish", found: false},
		{name: "unknown id", id: "carol", password: "hunter2", found: false},
		{name: "id is case sensitive", id: "Alice", password: "hunter2", found: false},
		{name: "password is case sensitive", id: "alice", password: "Hunter2", found: false},
		{name: "empty credentials", id: "", password: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := registry.Lookup(tt.id, tt.password)
			if tt.found {
				require.NotNil(t, got)
				assert.Equal(t, tt.id, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry([]Tenant{{ID: "alice", Password: "hunter2"}})

	require.NotNil(t, registry.Get("alice"))
	assert.Nil(t, registry.Get("bob"))
}

func TestNewRegistry_SkipsEmptyIDAndKeepsLastDuplicate(t *testing.T) {
	registry := NewRegistry([]Tenant{
		{ID: "", Password: "ignored"},
		{ID: "alice", Password: "first"},
		{ID: "alice", Password: "second"},
	})

	assert.Equal(t, 1, registry.Len())
	require.NotNil(t, registry.Lookup("alice", "second"))
	assert.Nil(t, registry.Lookup("alice", "first"))
}

func TestUsable(t *testing.T) {
	complete := &Tenant{
		ID:                "alice",
		AirtableAPIKey:    "keyXXXXXXXXXXXXXX",
		AirtableBaseID:    "appXXXXXXXXXXXXXX",
		PostsTableID:      "tblPosts",
		SubredditsTableID: "tblSubreddits",
	}

	tests := []struct {
		name   string
		mutate func(t *Tenant)
		want   bool
	}{
		{name: "complete credentials", mutate: func(t *Tenant) {}, want: true},
		{name: "missing api key", mutate: func(t *Tenant) { t.AirtableAPIKey = "" }, want: false},
		{name: "missing base id", mutate: func(t *Tenant) { t.AirtableBaseID = "" }, want: false},
		{name: "missing posts table", mutate: func(t *Tenant) { t.PostsTableID = "" }, want: false},
		{name: "missing subreddits table", mutate: func(t *Tenant) { t.SubredditsTableID = "" }, want: false},
		{name: "placeholder api key", mutate: func(t *Tenant) { t.AirtableAPIKey = "YOUR_API_KEY" }, want: false},
		{name: "placeholder base id lowercase", mutate: func(t *Tenant) { t.AirtableBaseID = "your_base_id" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := *complete
			tt.mutate(&tenant)
			assert.Equal(t, tt.want, Usable(&tenant))
		})
	}

	assert.False(t, Usable(nil))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	content := `tenants:
  - id: alice
    password: hunter2
    airtable_api_key: keyXXXXXXXXXXXXXX
    airtable_base_id: appXXXXXXXXXXXXXX
    posts_table_id: tblPosts
    subreddits_table_id: tblSubreddits
  - id: bob
    password: swordfish
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	registry, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	alice := registry.Lookup("alice", "hunter2")
	require.NotNil(t, alice)
	assert.True(t, Usable(alice))

	bob := registry.Lookup("bob", "swordfish")
	require.NotNil(t, bob)
	assert.False(t, Usable(bob))
}

func TestLoadFile_MissingFile(t *testing.T) {
	registry, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.NotNil(t, registry)
	assert.Equal(t, 0, registry.Len())
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenants: [unterminated"), 0o600))

	registry, err := LoadFile(path)
	require.Error(t, err)
	require.NotNil(t, registry)
	assert.Equal(t, 0, registry.Len())
}
