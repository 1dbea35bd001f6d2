package httpapi

import (
	"net/http"
	"strings"
	"time"

	"idbridge.org/internal/auth"
	"idbridge.org/internal/identity"
	"idbridge.org/internal/obs"
)

const (
	authHeader    = "Authorization"
	bearer        = "Bearer "
	sessionCookie = "idbridge_session"
)

// withPrincipal parses an optional bearer token into a request principal.
// The token is a fallback identity source only, so a missing or invalid
// token leaves the request anonymous instead of rejecting it.
func (a *API) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get(authHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := auth.ParseToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := auth.ContextWithPrincipal(r.Context(), claims.Principal())
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withIdentity resolves the cached session entry into a request-scoped
// identity. Validation failure degrades to the raw mapping; cache failure
// degrades to no identity. The request itself is never aborted here.
func (a *API) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := sessionIDFromRequest(r)
		if sid == "" || a.cache == nil {
			obs.ObserveResolution("none")
			next.ServeHTTP(w, r)
			return
		}

		entry, err := a.cache.Get(r.Context(), sid)
		if err != nil {
			obs.Log("error", "session cache read failed", map[string]any{
				"error":      err.Error(),
				"request_id": RequestIDFromContext(r.Context()),
			})
			obs.ObserveResolution("none")
			next.ServeHTTP(w, r)
			return
		}
		if entry == nil {
			obs.ObserveResolution("none")
			next.ServeHTTP(w, r)
			return
		}

		var res identity.Resolved
		view, err := identity.ViewFromSession(entry)
		if err != nil {
			obs.Log("warn", "session entry failed validation", map[string]any{
				"error":      err.Error(),
				"request_id": RequestIDFromContext(r.Context()),
			})
			obs.ObserveResolution("raw")
			res = identity.Resolved{Raw: entry}
		} else {
			obs.ObserveResolution("view")
			res = identity.Resolved{View: view}
		}
		ctx := identity.ContextWithResolved(r.Context(), res)

		// Secondary durable lookup; failure keeps the session identity.
		if a.records != nil {
			if uid := res.UserID(); uid != "" {
				if rec, err := a.records.Find(ctx, uid); err == nil {
					ctx = identity.ContextWithDurable(ctx, rec)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c == nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func (a *API) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(a.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}
