// Package api exposes the dashboard-facing HTTP surface: login/logout,
// tenant-scoped posts and subreddits endpoints backed by the Airtable
// gateway, health and metrics probes, and the static dashboard bundle.
package api
