// Package store defines the persistent entities and the repository interfaces
// the import pipeline writes through. Implementations live in
// internal/storage/memory and internal/storage/postgres; this package must
// not import database drivers or concrete clients.
package store
