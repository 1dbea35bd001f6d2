// Package session stores one normalized identity entry per client session.
package session

import "context"

// Cache is the per-session identity entry store. Put replaces the entry
// wholesale; Get returns (nil, nil) when the session has no entry.
// Implementations must remain stateless and opaque to callers.
type Cache interface {
	Put(ctx context.Context, sessionID string, entry map[string]any) error
	Get(ctx context.Context, sessionID string) (map[string]any, error)
	Delete(ctx context.Context, sessionID string) error
}
