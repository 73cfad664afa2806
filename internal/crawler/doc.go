// Package crawler defines the page shapes, reconciled records, error taxonomy
// and collaborator interfaces shared by the fetch, read, schedule and import
// subsystems of the UN voting-data crawler.
package crawler
