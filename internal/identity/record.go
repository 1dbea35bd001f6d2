// Package identity holds the canonical normalized identity record, its
// validated request-scoped view, and the pipeline that materializes both
// from merged identity-provider claims.
package identity

import (
	"encoding/json"
	"fmt"
	"time"

	"idbridge.org/internal/claims"
)

// Record is the canonical normalized identity produced by one successful
// login. Display fields are already sanitized; GraphToken is opaque and is
// never sanitized because it is never displayed.
type Record struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	FirstName      string    `json:"first_name"`
	Email          string    `json:"email"`
	OfficeLocation string    `json:"officeLocation"`
	Position       string    `json:"position"`
	Roles          []string  `json:"roles"`
	GraphToken     string    `json:"graph_token"`
	LastSeen       time.Time `json:"last_seen,omitempty"`
}

// SessionMap renders the record as the mapping stored in the session
// cache. The key names are the session contract consumed by the resolver
// and by presentation layers.
func (r Record) SessionMap() map[string]any {
	roles := r.Roles
	if roles == nil {
		roles = []string{}
	}
	return map[string]any{
		"is_authenticated": true,
		"user_id":          r.UserID,
		"name":             r.Name,
		"first_name":       r.FirstName,
		"email":            r.Email,
		"officeLocation":   r.OfficeLocation,
		"position":         r.Position,
		"roles":            roles,
		"graph_token":      r.GraphToken,
	}
}

// View is the validated, request-scoped projection of a cached identity.
// It is discarded at the end of the request.
type View struct {
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	FirstName      string   `json:"first_name"`
	Email          string   `json:"email"`
	OfficeLocation string   `json:"officeLocation"`
	Position       string   `json:"position"`
	Roles          []string `json:"roles"`
	GraphToken     string   `json:"graph_token,omitempty"`
}

// ViewFromSession validates a raw session mapping into a typed View.
// user_id must be present as a string (it may be empty, which downstream
// code treats as "unidentified"); every other field is optional but must be
// a string when present. Any shape violation fails validation; the caller
// then degrades to the raw mapping instead of aborting the request.
func ViewFromSession(m map[string]any) (*View, error) {
	uid, ok := m["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("identity: user_id missing or not a string")
	}
	v := &View{UserID: uid, Roles: RolesValue(m["roles"])}

	fields := map[string]*string{
		"name":        &v.Name,
		"first_name":  &v.FirstName,
		"email":       &v.Email,
		"position":    &v.Position,
		"graph_token": &v.GraphToken,
	}
	for key, dst := range fields {
		raw, present := m[key]
		if !present || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("identity: field %q is not a string", key)
		}
		*dst = s
	}

	// Both spellings are accepted on input; the camel-case one wins when
	// both are present.
	for _, key := range []string{"office_location", "officeLocation"} {
		raw, present := m[key]
		if !present || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("identity: field %q is not a string", key)
		}
		v.OfficeLocation = s
	}
	return v, nil
}

// EncodeRoles serializes a role list as JSON text for durable storage.
// An empty or nil list encodes as "[]", never as null.
func EncodeRoles(roles []string) string {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeRoles parses a JSON-encoded role list. A string that is not valid
// JSON degrades to a one-element list rather than an error.
func DecodeRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	var roles []string
	if err := json.Unmarshal([]byte(s), &roles); err != nil {
		return []string{s}
	}
	if roles == nil {
		return []string{}
	}
	return roles
}

// RolesValue normalizes any cached representation of roles to a flat list:
// JSON-encoded strings are parsed, bare strings wrapped, list shapes
// delegated to the claims normalizer. Always returns a non-nil slice.
func RolesValue(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case string:
		return DecodeRoles(v)
	default:
		return claims.NormalizeRoles(raw)
	}
}
