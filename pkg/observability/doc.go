// Package observability provides the operational surface of the gateway:
// structured JSON logging, Prometheus metrics, health probes, and graceful
// shutdown coordination.
package observability
