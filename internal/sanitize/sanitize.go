// Package sanitize escapes untrusted scalar claim values before they reach
// a display or storage surface.
package sanitize

import (
	"fmt"
	"strings"
)

// escaper runs a single left-to-right pass and never re-scans inserted
// text, so the ampersand introduced by "&lt;" is not escaped again.
// Replacement order matters: "&" must be handled before the entities that
// contain it. Single quotes are flattened to underscores rather than
// entity-escaped. Double quotes are deliberately left alone; this is not a
// general HTML escaper.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "_",
)

// Clean coerces v to its string form and escapes it. nil yields "".
// Coercion never fails for display-grade claim values, so the result is
// always safe to embed; access tokens must never pass through here.
func Clean(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return escaper.Replace(s)
	default:
		return escaper.Replace(fmt.Sprint(s))
	}
}
