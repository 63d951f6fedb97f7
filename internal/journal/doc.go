// Package journal persists marketplace events to PostgreSQL.
//
// The Writer consumes events from a dispatcher subscription, batches them and
// inserts with ON CONFLICT DO NOTHING, so replays after a crash are
// deduplicated by event id.
package journal
