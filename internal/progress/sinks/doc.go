// Package sinks implements progress consumers: structured logs, Prometheus
// run collectors and an in-memory tracker backing the progress endpoint.
package sinks
