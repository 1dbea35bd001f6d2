package identity

import (
	"context"
	"reflect"
	"testing"

	"idbridge.org/internal/auth"
)

func TestProjectAbsentWithoutAnySource(t *testing.T) {
	if m, ok := Project(context.Background()); ok || m != nil {
		t.Fatalf("expected absent projection, got %v", m)
	}
}

func TestProjectPrefersValidatedView(t *testing.T) {
	ctx := ContextWithResolved(context.Background(), Resolved{
		View: &View{UserID: "u-1", Email: "view@example.com", OfficeLocation: "HQ", Roles: []string{"admin"}},
	})
	ctx = auth.ContextWithPrincipal(ctx, auth.Principal{Email: "principal@example.com", Authenticated: true})

	m, ok := Project(ctx)
	if !ok {
		t.Fatal("expected projection")
	}
	if m["email"] != "view@example.com" {
		t.Fatalf("view must win over principal: %v", m["email"])
	}
	if m["officeLocation"] != "HQ" || m["office_location"] != "HQ" {
		t.Fatalf("both office spellings must be populated: %v / %v", m["officeLocation"], m["office_location"])
	}
}

func TestProjectFromRawMappingNormalizesRoles(t *testing.T) {
	ctx := ContextWithResolved(context.Background(), Resolved{
		Raw: map[string]any{
			"user_id":        "u-1",
			"officeLocation": "Annex",
			"roles":          `["a","b"]`,
		},
	})

	m, ok := Project(ctx)
	if !ok {
		t.Fatal("expected projection")
	}
	if !reflect.DeepEqual(m["roles"], []string{"a", "b"}) {
		t.Fatalf("roles=%v, want parsed list", m["roles"])
	}
	if m["office_location"] != "Annex" {
		t.Fatalf("office_location=%v, want mirrored spelling", m["office_location"])
	}
	for _, key := range projectionKeys {
		if _, present := m[key]; !present {
			t.Fatalf("projection missing key %q", key)
		}
	}
	if m["graph_token"] != nil {
		t.Fatalf("missing values must be explicit nils, got %v", m["graph_token"])
	}
}

func TestProjectPrincipalFallback(t *testing.T) {
	ctx := auth.ContextWithPrincipal(context.Background(), auth.Principal{
		Email:         "a@b.com",
		Authenticated: true,
	})

	m, ok := Project(ctx)
	if !ok {
		t.Fatal("expected projection from principal")
	}
	if m["email"] != "a@b.com" {
		t.Fatalf("email=%v", m["email"])
	}
	for _, key := range []string{"user_id", "name", "first_name", "officeLocation", "office_location", "position", "graph_token"} {
		if m[key] != nil {
			t.Fatalf("key %q should be nil, got %v", key, m[key])
		}
	}
	roles, ok := m["roles"].([]string)
	if !ok || len(roles) != 0 {
		t.Fatalf("roles must be an empty list, got %T %v", m["roles"], m["roles"])
	}
}

func TestProjectIgnoresUnauthenticatedPrincipal(t *testing.T) {
	ctx := auth.ContextWithPrincipal(context.Background(), auth.Principal{
		Email: "a@b.com",
	})
	if m, ok := Project(ctx); ok {
		t.Fatalf("unauthenticated principal must not project, got %v", m)
	}
}

func TestProjectRawWinsOverPrincipal(t *testing.T) {
	ctx := ContextWithResolved(context.Background(), Resolved{
		Raw: map[string]any{"user_id": "raw-user"},
	})
	ctx = auth.ContextWithPrincipal(ctx, auth.Principal{UserID: "p-user", Authenticated: true})

	m, ok := Project(ctx)
	if !ok || m["user_id"] != "raw-user" {
		t.Fatalf("raw session mapping must win over principal: %v", m)
	}
}
