package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"idbridge.org/internal/audit"
	"idbridge.org/internal/auth"
	"idbridge.org/internal/identity"
	"idbridge.org/internal/ids"
)

// handleAuthCallback completes a login: the external handshake exchanges
// the authorization code, then the claims pipeline materializes the
// identity under a fresh session id.
func (a *API) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.handshake == nil || a.authenticator == nil {
		writeError(w, r, http.StatusServiceUnavailable, "login is not configured")
		return
	}

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, r, http.StatusBadRequest, "code is required")
		return
	}
	state := strings.TrimSpace(r.URL.Query().Get("state"))

	tok, err := a.handshake.Exchange(r.Context(), code, state)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "token exchange failed")
		return
	}

	sid := ids.New()
	rec := a.authenticator.Login(r.Context(), sid, *tok)
	a.setSessionCookie(w, sid)

	_ = audit.LogEvent(r.Context(), "auth.login.completed", map[string]any{
		"user_id": rec.UserID,
		"email":   rec.Email,
		"roles":   rec.Roles,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": rec.UserID,
		"name":    rec.Name,
		"email":   rec.Email,
		"roles":   rec.Roles,
	})
}

// handleLogout drops the cached session entry and expires the cookie. The
// durable record is untouched.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if sid := sessionIDFromRequest(r); sid != "" && a.cache != nil {
		if err := a.cache.Delete(r.Context(), sid); err != nil {
			writeError(w, r, http.StatusInternalServerError, "logout failed")
			return
		}
	}
	clearSessionCookie(w)

	_ = audit.LogEvent(r.Context(), "auth.logout.completed", nil)

	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// handleMe returns the presentation projection of the request's identity.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	proj, ok := identity.Project(r.Context())
	if !ok {
		writeError(w, r, http.StatusNotFound, "no identity")
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

// handleIdentity exposes the resolver's view of the current request: the
// validated view or the raw degraded mapping, plus the durable record when
// the secondary lookup found one.
func (a *API) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	res, ok := identity.ResolvedFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusNotFound, "no identity")
		return
	}

	body := map[string]any{}
	switch {
	case res.View != nil:
		body["source"] = "view"
		body["identity"] = res.View
	default:
		body["source"] = "raw"
		body["identity"] = res.Raw
	}
	if rec, ok := identity.DurableFromContext(r.Context()); ok {
		body["durable"] = rec
	}
	writeJSON(w, http.StatusOK, body)
}

// handleIdentityByID looks up a durable record for an identified caller.
func (a *API) handleIdentityByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !callerIsIdentified(r) {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if a.records == nil {
		writeError(w, r, http.StatusServiceUnavailable, "durable store is not configured")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/v1/identity/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	rec, err := a.records.Find(r.Context(), userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "identity not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// callerIsIdentified accepts either a session-backed identity with a user
// id or an authenticated bearer principal.
func callerIsIdentified(r *http.Request) bool {
	if res, ok := identity.ResolvedFromContext(r.Context()); ok && res.UserID() != "" {
		return true
	}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.Authenticated {
		return true
	}
	return false
}
