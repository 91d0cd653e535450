// Package sqlite provides the durable conversation store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in the schema_migrations table.
//
// # Data Location
//
// The database lives at the configured history file, chat_data.db by default.
//
// # Thread Safety
//
// Appends to one session are serialized in process by a keyed mutex. SQLite in
// WAL mode with a busy timeout arbitrates the short write lock of each INSERT.
package sqlite
