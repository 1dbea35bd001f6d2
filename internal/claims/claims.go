// Package claims combines the raw attribute sources produced by one login
// (profile API response, extra-fields response, ID-token claims) into a
// single mapping and derives the canonical identity fields from it.
package claims

import "fmt"

// DefaultRoleAttribute is the merged-attribute key roles are read from
// unless the deployment overrides it.
const DefaultRoleAttribute = "roles"

// Merge overlays the three raw claim sources into one attribute mapping.
// Later sources win on key collisions: profile claims are the weakest,
// ID-token claims the strongest. The result's key set is exactly the union
// of the inputs' key sets. Pure function; inputs are not mutated.
func Merge(profile, extra, idToken map[string]any) map[string]any {
	merged := make(map[string]any, len(profile)+len(extra)+len(idToken))
	for _, src := range []map[string]any{profile, extra, idToken} {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// ExtractRoles reads the role attribute from merged claims. A missing
// attribute yields an empty list. Entries that are nil or empty strings are
// dropped; order is preserved and duplicates are kept as-is.
func ExtractRoles(attrs map[string]any, attr string) []string {
	if attr == "" {
		attr = DefaultRoleAttribute
	}
	raw, ok := attrs[attr]
	if !ok {
		return []string{}
	}
	return NormalizeRoles(raw)
}

// NormalizeRoles turns any claim-shaped role value into a flat string list.
// A bare string becomes a one-element list; non-string entries keep their
// printed form.
func NormalizeRoles(raw any) []string {
	out := []string{}
	switch v := raw.(type) {
	case []string:
		for _, r := range v {
			if r != "" {
				out = append(out, r)
			}
		}
	case []any:
		for _, e := range v {
			if e == nil {
				continue
			}
			if s, ok := e.(string); ok {
				if s != "" {
					out = append(out, s)
				}
				continue
			}
			out = append(out, fmt.Sprint(e))
		}
	case string:
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// UserID derives the stable user identifier, preferring the provider's
// object id over the token subject. An empty result means "unidentified";
// callers must treat it as the absence of an identity, never as a key.
func UserID(attrs map[string]any) string {
	return first(attrs, "oid", "sub")
}

// Email prefers the mailbox address over principal-name fallbacks.
func Email(attrs map[string]any) string {
	return first(attrs, "mail", "userPrincipalName", "upn")
}

// DisplayName prefers the token name over the profile displayName.
func DisplayName(attrs map[string]any) string {
	return first(attrs, "name", "displayName")
}

func FirstName(attrs map[string]any) string {
	return first(attrs, "givenName")
}

func Position(attrs map[string]any) string {
	return first(attrs, "jobTitle")
}

func OfficeLocation(attrs map[string]any) string {
	return first(attrs, "officeLocation")
}

// first returns the first non-empty claim among names, coerced to a string.
func first(attrs map[string]any, names ...string) string {
	for _, n := range names {
		v, ok := attrs[n]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s != "" {
				return s
			}
			continue
		}
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return ""
}
