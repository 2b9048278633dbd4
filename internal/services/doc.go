// Package services defines shared utilities consumed by the manual pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp manual IDs and correlation identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (workspace, storage, external tool, model) with errors.Is.
//
// Use these helpers when wiring new pipeline components so operational
// behaviour (error handling, observability) stays uniform across the worker.
package services
