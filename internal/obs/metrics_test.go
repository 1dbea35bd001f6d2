package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/v1/me":                    "/v1/me",
		"/v1/identity":              "/v1/identity",
		"/v1/identity/abc-123":      "/v1/identity/:id",
		"/v1/auth/callback":         "/v1/auth/callback",
		"/v1/auth/callback?code=xy": "/v1/auth/callback",
		"/healthz":                  "/healthz",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
