package claims

import (
	"reflect"
	"testing"
)

func TestMergeKeysAreUnionOfInputs(t *testing.T) {
	profile := map[string]any{"displayName": "P. User", "mail": "p@example.com"}
	extra := map[string]any{"officeLocation": "HQ", "mail": "extra@example.com"}
	idToken := map[string]any{"oid": "abc-123", "mail": "token@example.com"}

	merged := Merge(profile, extra, idToken)

	want := map[string]bool{"displayName": true, "mail": true, "officeLocation": true, "oid": true}
	if len(merged) != len(want) {
		t.Fatalf("merged has %d keys, want %d: %v", len(merged), len(want), merged)
	}
	for k := range want {
		if _, ok := merged[k]; !ok {
			t.Fatalf("merged missing key %q", k)
		}
	}
}

func TestMergePrecedenceLaterSourcesWin(t *testing.T) {
	profile := map[string]any{"a": "profile", "b": "profile", "c": "profile"}
	extra := map[string]any{"b": "extra", "c": "extra"}
	idToken := map[string]any{"c": "token"}

	merged := Merge(profile, extra, idToken)

	if merged["a"] != "profile" {
		t.Fatalf("a=%v, want profile value", merged["a"])
	}
	if merged["b"] != "extra" {
		t.Fatalf("b=%v, want extra-fields value", merged["b"])
	}
	if merged["c"] != "token" {
		t.Fatalf("c=%v, want id-token value", merged["c"])
	}
}

func TestMergeToleratesNilSources(t *testing.T) {
	merged := Merge(nil, nil, map[string]any{"sub": "s"})
	if len(merged) != 1 || merged["sub"] != "s" {
		t.Fatalf("unexpected merge result: %v", merged)
	}
}

func TestExtractRolesMissingAttribute(t *testing.T) {
	roles := ExtractRoles(map[string]any{"name": "x"}, "roles")
	if roles == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(roles) != 0 {
		t.Fatalf("expected no roles, got %v", roles)
	}
}

func TestExtractRolesDropsEmptyEntriesKeepsOrder(t *testing.T) {
	attrs := map[string]any{"roles": []any{"A", "", nil, "B"}}
	roles := ExtractRoles(attrs, "roles")
	if !reflect.DeepEqual(roles, []string{"A", "B"}) {
		t.Fatalf("roles=%v, want [A B]", roles)
	}
}

func TestExtractRolesDoesNotDeduplicate(t *testing.T) {
	attrs := map[string]any{"roles": []string{"admin", "admin", "viewer"}}
	roles := ExtractRoles(attrs, "roles")
	if !reflect.DeepEqual(roles, []string{"admin", "admin", "viewer"}) {
		t.Fatalf("roles=%v, duplicates must be preserved", roles)
	}
}

func TestExtractRolesCustomAttribute(t *testing.T) {
	attrs := map[string]any{"groups": []string{"ops"}, "roles": []string{"ignored"}}
	roles := ExtractRoles(attrs, "groups")
	if !reflect.DeepEqual(roles, []string{"ops"}) {
		t.Fatalf("roles=%v, want [ops]", roles)
	}
}

func TestNormalizeRolesBareString(t *testing.T) {
	if got := NormalizeRoles("admin"); !reflect.DeepEqual(got, []string{"admin"}) {
		t.Fatalf("got %v, want [admin]", got)
	}
	if got := NormalizeRoles(""); len(got) != 0 {
		t.Fatalf("empty string should yield no roles, got %v", got)
	}
}

func TestUserIDPrefersObjectID(t *testing.T) {
	attrs := map[string]any{"oid": "object-id", "sub": "subject"}
	if got := UserID(attrs); got != "object-id" {
		t.Fatalf("UserID=%q, want object-id", got)
	}
	if got := UserID(map[string]any{"sub": "subject"}); got != "subject" {
		t.Fatalf("UserID=%q, want subject fallback", got)
	}
	if got := UserID(map[string]any{}); got != "" {
		t.Fatalf("UserID=%q, want empty for absent claims", got)
	}
}

func TestEmailFallbackChain(t *testing.T) {
	cases := []struct {
		attrs map[string]any
		want  string
	}{
		{map[string]any{"mail": "m@x", "userPrincipalName": "u@x", "upn": "p@x"}, "m@x"},
		{map[string]any{"userPrincipalName": "u@x", "upn": "p@x"}, "u@x"},
		{map[string]any{"upn": "p@x"}, "p@x"},
		{map[string]any{"mail": ""}, ""},
	}
	for _, tc := range cases {
		if got := Email(tc.attrs); got != tc.want {
			t.Fatalf("Email(%v)=%q, want %q", tc.attrs, got, tc.want)
		}
	}
}

func TestDisplayFieldDerivation(t *testing.T) {
	attrs := map[string]any{
		"displayName":    "Display",
		"givenName":      "Given",
		"jobTitle":       "Engineer",
		"officeLocation": "Floor 2",
	}
	if got := DisplayName(attrs); got != "Display" {
		t.Fatalf("DisplayName=%q", got)
	}
	attrs["name"] = "Token Name"
	if got := DisplayName(attrs); got != "Token Name" {
		t.Fatalf("DisplayName=%q, token name must win", got)
	}
	if got := FirstName(attrs); got != "Given" {
		t.Fatalf("FirstName=%q", got)
	}
	if got := Position(attrs); got != "Engineer" {
		t.Fatalf("Position=%q", got)
	}
	if got := OfficeLocation(attrs); got != "Floor 2" {
		t.Fatalf("OfficeLocation=%q", got)
	}
}
