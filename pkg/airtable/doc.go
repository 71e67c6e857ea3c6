// Package airtable is the upstream data gateway. It performs authenticated
// reads and writes against the Airtable REST API on behalf of a resolved
// tenant, aggregating cursor-paginated list responses into a single result
// and translating upstream failures into the gateway's error taxonomy.
package airtable
