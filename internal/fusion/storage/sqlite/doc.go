// Package sqlite persists detection and ground-truth tables together with
// alignment and association runs in a SQLite database. The schema is
// embedded and managed with golang-migrate; run records are keyed by UUID.
package sqlite
