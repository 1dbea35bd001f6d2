package identity

import (
	"context"

	"idbridge.org/internal/auth"
)

// projectionKeys is the fixed key set every projection carries. Missing
// values are explicit nils, never omitted keys. Both office-location
// spellings are populated identically for consumer compatibility.
var projectionKeys = []string{
	"user_id", "name", "first_name", "email",
	"officeLocation", "office_location", "position", "roles", "graph_token",
}

// Project builds the presentation mapping from the best available identity
// source on the request: the validated view, then the raw session mapping,
// then an authenticated principal. Returns ok=false when no source has
// data.
func Project(ctx context.Context) (map[string]any, bool) {
	if res, ok := ResolvedFromContext(ctx); ok {
		if res.View != nil {
			return fromView(res.View), true
		}
		if res.Raw != nil {
			return fromRaw(res.Raw), true
		}
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok && p.Authenticated {
		return fromPrincipal(p), true
	}
	return nil, false
}

func fromView(v *View) map[string]any {
	roles := v.Roles
	if roles == nil {
		roles = []string{}
	}
	return map[string]any{
		"user_id":         v.UserID,
		"name":            v.Name,
		"first_name":      v.FirstName,
		"email":           v.Email,
		"officeLocation":  v.OfficeLocation,
		"office_location": v.OfficeLocation,
		"position":        v.Position,
		"roles":           roles,
		"graph_token":     v.GraphToken,
	}
}

func fromRaw(raw map[string]any) map[string]any {
	out := make(map[string]any, len(projectionKeys))
	for k, v := range raw {
		out[k] = v
	}

	// Mirror whichever office-location spelling is present.
	if _, ok := out["office_location"]; !ok {
		out["office_location"] = out["officeLocation"]
	}
	if _, ok := out["officeLocation"]; !ok {
		out["officeLocation"] = out["office_location"]
	}

	out["roles"] = RolesValue(out["roles"])

	for _, k := range projectionKeys {
		if _, ok := out[k]; !ok {
			out[k] = nil
		}
	}
	return out
}

func fromPrincipal(p auth.Principal) map[string]any {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	out := map[string]any{
		"user_id":         nilIfEmpty(p.UserID),
		"name":            nilIfEmpty(p.Name),
		"first_name":      nilIfEmpty(p.FirstName),
		"email":           nilIfEmpty(p.Email),
		"officeLocation":  nilIfEmpty(p.OfficeLocation),
		"office_location": nilIfEmpty(p.OfficeLocation),
		"position":        nilIfEmpty(p.Position),
		"roles":           roles,
		"graph_token":     nil,
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
