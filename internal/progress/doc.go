// Package progress carries crawl-run milestones from the scheduler to
// pluggable sinks through a non-blocking, batching hub.
package progress
