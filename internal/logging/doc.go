// Package logging builds the slog loggers used by the worker and CLI.
//
// Two formats are supported. The console format prints one line per record
// with the short manual id and component up front, which is what `systemqa
// logs --manual` filters on. The json format is meant for log shippers.
// WithContext stamps manual and correlation ids carried on a context, and
// WarnWithContext/ErrorWithContext make sure operator-facing records carry an
// event type, a hint and an impact.
package logging
