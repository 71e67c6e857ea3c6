package tenants

import (
	"crypto/subtle"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/subdeck/subdeck/pkg/airtable"
)

// Tenant is a single configured dashboard user together with the Airtable
// credentials their requests are routed with. Records are immutable after
// load; callers must not modify the returned pointers.
type Tenant struct {
	ID                string `yaml:"id"`
	Password          string `yaml:"password"`
	AirtableAPIKey    string `yaml:"airtable_api_key"`
	AirtableBaseID    string `yaml:"airtable_base_id"`
	PostsTableID      string `yaml:"posts_table_id"`
	SubredditsTableID string `yaml:"subreddits_table_id"`
}

// AirtableCredentials returns the upstream credential bundle for the tenant
func (t *Tenant) AirtableCredentials() airtable.Credentials {
	return airtable.Credentials{
		APIKey:            t.AirtableAPIKey,
		BaseID:            t.AirtableBaseID,
		PostsTableID:      t.PostsTableID,
		SubredditsTableID: t.SubredditsTableID,
	}
}

// Usable reports whether the tenant has a complete, non-placeholder set of
// Airtable credentials. Logins still succeed for unusable tenants; only the
// upstream operations are gated on this.
func Usable(t *Tenant) bool {
	if t == nil {
		return false
	}
	return t.AirtableCredentials().Usable()
}

// Registry is the process-wide tenant list, keyed by tenant ID
type Registry struct {
	tenants map[string]*Tenant
}

// registryFile is the on-disk YAML shape of the tenant list
type registryFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// NewRegistry builds a registry from the given records. Records with an
// empty ID are skipped; a duplicated ID keeps the last record.
func NewRegistry(records []Tenant) *Registry {
	r := &Registry{tenants: make(map[string]*Tenant, len(records))}
	for i := range records {
		t := records[i]
		if t.ID == "" {
			continue
		}
		r.tenants[t.ID] = &t
	}
	return r
}

// LoadFile reads the tenant list from a YAML file. On any failure it
// returns an empty registry alongside the error so callers can keep the
// process up with every login failing closed instead of crashing.
func LoadFile(path string) (*Registry, error) {
	empty := NewRegistry(nil)

	data, err := os.ReadFile(path)
	if err != nil {
		return empty, fmt.Errorf("reading tenants file %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return empty, fmt.Errorf("parsing tenants file %s: %w", path, err)
	}

	return NewRegistry(file.Tenants), nil
}

// Lookup returns the tenant matching both id and password exactly, or nil.
// The password comparison is constant-time; the id comparison is an exact
// map lookup with no case folding.
func (r *Registry) Lookup(id, password string) *Tenant {
	t, ok := r.tenants[id]
	if !ok {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(t.Password), []byte(password)) != 1 {
		return nil
	}
	return t
}

// Get returns the tenant with the given ID regardless of password, or nil.
// Used to re-resolve the tenant behind an already-authenticated session.
func (r *Registry) Get(id string) *Tenant {
	return r.tenants[id]
}

// Len returns the number of configured tenants
func (r *Registry) Len() int {
	return len(r.tenants)
}
