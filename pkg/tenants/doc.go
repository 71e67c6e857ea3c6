// Package tenants implements the credential registry: the read-only list of
// dashboard tenants, their shared login credentials, and their per-tenant
// Airtable credentials. The registry is loaded once at startup and never
// mutated for the lifetime of the process.
package tenants
