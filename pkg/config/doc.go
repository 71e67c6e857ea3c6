// Package config loads gateway configuration from the environment with
// sensible defaults. The tenant list itself lives in a separate YAML file
// loaded by pkg/tenants; config only carries its path.
package config
