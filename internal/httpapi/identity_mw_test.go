package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"idbridge.org/internal/identity"
)

func seedSession(t *testing.T, api *apiClient, sid string, entry map[string]any) string {
	t.Helper()
	if err := api.cache.Put(context.Background(), sid, entry); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sessionCookie + "=" + sid
}

func TestResolverAttachesValidatedView(t *testing.T) {
	api := newTestAPI(t, nil, &fakeFetcher{})
	cookie := seedSession(t, api, "sess-view", map[string]any{
		"is_authenticated": true,
		"user_id":          "user-9",
		"name":             "Dana",
		"roles":            []any{"admin"},
	})

	resp := api.get("/v1/identity", nil, map[string]string{"Cookie": cookie})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["source"] != "view" {
		t.Fatalf("source=%v", body["source"])
	}
	view, ok := body["identity"].(map[string]any)
	if !ok || view["user_id"] != "user-9" || view["name"] != "Dana" {
		t.Fatalf("identity=%v", body["identity"])
	}
}

func TestResolverDegradesToRawOnShapeViolation(t *testing.T) {
	api := newTestAPI(t, nil, &fakeFetcher{})
	// name as a number fails view validation; the raw mapping still flows.
	cookie := seedSession(t, api, "sess-raw", map[string]any{
		"user_id": "user-10",
		"name":    42,
	})

	resp := api.get("/v1/identity", nil, map[string]string{"Cookie": cookie})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["source"] != "raw" {
		t.Fatalf("source=%v", body["source"])
	}

	// The projection endpoint also serves the degraded mapping.
	resp = api.get("/v1/me", nil, map[string]string{"Cookie": cookie})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected /v1/me status: %d", resp.StatusCode)
	}
	me := decode[map[string]any](t, resp)
	if me["user_id"] != "user-10" {
		t.Fatalf("user_id=%v", me["user_id"])
	}
	if _, present := me["office_location"]; !present {
		t.Fatalf("projection must carry the fixed key set: %v", me)
	}
}

func TestResolverMissingUserIDDegradesToRaw(t *testing.T) {
	api := newTestAPI(t, nil, &fakeFetcher{})
	cookie := seedSession(t, api, "sess-nouid", map[string]any{
		"name": "No ID",
	})

	resp := api.get("/v1/identity", nil, map[string]string{"Cookie": cookie})
	body := decode[map[string]any](t, resp)
	if body["source"] != "raw" {
		t.Fatalf("source=%v", body["source"])
	}
}

func TestResolverUnknownSessionIsAnonymous(t *testing.T) {
	api := newTestAPI(t, nil, &fakeFetcher{})

	resp := api.get("/v1/identity", nil, map[string]string{"Cookie": sessionCookie + "=ghost"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestResolverAttachesDurableRecord(t *testing.T) {
	api := newTestAPI(t, nil, &fakeFetcher{})
	api.records.byID["user-11"] = &identity.Record{
		UserID:   "user-11",
		Email:    "e@example.com",
		Roles:    []string{"viewer"},
		LastSeen: time.Now().UTC(),
	}
	cookie := seedSession(t, api, "sess-durable", map[string]any{
		"user_id": "user-11",
	})

	resp := api.get("/v1/identity", nil, map[string]string{"Cookie": cookie})
	body := decode[map[string]any](t, resp)
	durable, ok := body["durable"].(map[string]any)
	if !ok || durable["email"] != "e@example.com" {
		t.Fatalf("durable=%v", body["durable"])
	}
}
