// Package logs reads the worker log file for the CLI.
//
// Tail returns the last N lines (optionally only those mentioning one
// manual) together with the byte offset where reading stopped; Follow polls
// from that offset and hands new lines to a callback until the context ends.
// Both read with bounded memory.
package logs
