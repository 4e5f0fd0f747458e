// Package sqlite provides a SQLite-backed implementation of driven.AirportData.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory (NNN_name.up.sql / NNN_name.down.sql). Each migration runs in its
// own transaction and is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.airportai/data/airport.db.
// Import loads a complete domain.AirportSnapshot (typically decoded from a
// YAML seed) in one transaction.
package sqlite
