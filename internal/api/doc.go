// Package api defines the transport-friendly views of manuals shared by the
// worker's HTTP endpoints and the CLI's JSON output.
package api
