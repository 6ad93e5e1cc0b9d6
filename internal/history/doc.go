// Package history persists a ledger of fetch runs in SQLite.
//
// Each run records its project, output directory, and final counts. Each
// screen processed in the run is stored in input order together with the
// artifacts written for it (path, size, SHA256). Metadata payloads and
// signed download URLs are never persisted.
//
// The schema is embedded and versioned; a ledger created by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package history
