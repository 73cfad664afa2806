// Package api hosts the operator HTTP surface of an import run:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/progress for the crawl position of the current run.
//   - GET /v1/report for the import outcome folded so far.
package api
