// Package daemon hosts the long-running manual worker.
//
// A Daemon owns a flock-based lock so only one worker runs per state
// directory, the queue consumer, a lease reaper that returns abandoned
// PROCESSING manuals to WAITING and re-enqueues them, and an optional HTTP
// endpoint exposing liveness and manual statistics.
package daemon
