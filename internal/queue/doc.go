// Package queue persists pipeline jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages the database connection, schema initialization, status
// transitions (queued, processing, completed, failed, cancelled), heartbeat
// tracking for stale-job recovery, and the run checkpoints that let a job
// resume after a daemon restart. Jobs carry their JSON input and, once
// finished, their JSON result so the CLI can inspect runs the daemon executed.
//
// The database is treated as transient storage for in-flight and recent jobs
// rather than a long-term archive. Schema changes bump the version in
// schema.go; users clear the database to adopt the new schema.
package queue
