// Package notifications delivers worker events via ntfy.
//
// NewService returns a no-op Service when no topic is configured or when the
// event class is switched off, so callers publish unconditionally. Events
// cover finished manuals and lease reclaims.
package notifications
