// Package database builds the PostgreSQL connection pool for the event
// journal.
package database
