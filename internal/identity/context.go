package identity

import "context"

type resolvedContextKey struct{}
type durableContextKey struct{}

// Resolved is what the resolver middleware attaches to a request: the
// validated View when the cached session entry passes validation, or the
// raw mapping when it does not. At most one of the two is set; neither set
// means the request carries no session-backed identity.
type Resolved struct {
	View *View
	Raw  map[string]any
}

// UserID returns the stable user id from whichever variant is set.
// Empty means unidentified.
func (r Resolved) UserID() string {
	if r.View != nil {
		return r.View.UserID
	}
	if r.Raw != nil {
		if uid, ok := r.Raw["user_id"].(string); ok {
			return uid
		}
	}
	return ""
}

// ContextWithResolved attaches the resolved identity to the context.
func ContextWithResolved(ctx context.Context, res Resolved) context.Context {
	return context.WithValue(ctx, resolvedContextKey{}, &res)
}

// ResolvedFromContext extracts the resolved identity, if the resolver
// attached one.
func ResolvedFromContext(ctx context.Context) (Resolved, bool) {
	if ctx == nil {
		return Resolved{}, false
	}
	v, ok := ctx.Value(resolvedContextKey{}).(*Resolved)
	if !ok || v == nil {
		return Resolved{}, false
	}
	return *v, true
}

// ContextWithDurable attaches the durable record as a read-only secondary
// reference on the request.
func ContextWithDurable(ctx context.Context, rec *Record) context.Context {
	if rec == nil {
		return ctx
	}
	return context.WithValue(ctx, durableContextKey{}, rec)
}

// DurableFromContext returns the durable record reference when the lookup
// on this request succeeded.
func DurableFromContext(ctx context.Context) (*Record, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(durableContextKey{}).(*Record)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
