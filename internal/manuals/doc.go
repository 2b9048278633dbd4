// Package manuals persists manuals, their ordered steps, and the processing
// state the video pipeline drives.
//
// The store is backed by SQLite in WAL mode. Every write goes through a short
// busy-retry loop so a CLI command and the worker can share one database file.
// Status transitions are single conditional UPDATE statements: Claim moves a
// manual from WAITING to PROCESSING and stamps a lease, Finish moves it from
// PROCESSING to a terminal state, and ReclaimExpired returns PROCESSING rows
// whose lease lapsed back to WAITING.
package manuals
