package identity

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"idbridge.org/internal/session"
)

type fakeRepo struct {
	upserts []Record
	err     error
}

func (f *fakeRepo) Upsert(_ context.Context, rec Record) error {
	f.upserts = append(f.upserts, rec)
	return f.err
}

type failingCache struct{}

func (failingCache) Put(context.Context, string, map[string]any) error {
	return errors.New("cache down")
}
func (failingCache) Get(context.Context, string) (map[string]any, error) {
	return nil, errors.New("cache down")
}
func (failingCache) Delete(context.Context, string) error {
	return errors.New("cache down")
}

func TestStoreMaterializesSanitizedRecord(t *testing.T) {
	cache := session.NewMemoryCache(time.Minute)
	repo := &fakeRepo{}
	m := NewMaterializer(cache, repo)

	attrs := map[string]any{
		"oid":            "u-1",
		"name":           "Ada & Co <x>",
		"givenName":      "Ada",
		"mail":           "ada@example.com",
		"officeLocation": "O'Hare",
		"jobTitle":       "Analyst",
	}
	rec := m.Store(context.Background(), "sess-1", attrs, []string{"admin"}, "tok-123")

	if rec.Name != "Ada &amp; Co &lt;x&gt;" {
		t.Fatalf("display name not sanitized: %q", rec.Name)
	}
	if rec.OfficeLocation != "O_Hare" {
		t.Fatalf("office location not sanitized: %q", rec.OfficeLocation)
	}
	if rec.GraphToken != "tok-123" {
		t.Fatalf("access token must pass through untouched: %q", rec.GraphToken)
	}

	entry, err := cache.Get(context.Background(), "sess-1")
	if err != nil || entry == nil {
		t.Fatalf("session entry missing: %v", err)
	}
	if entry["user_id"] != "u-1" || entry["email"] != "ada@example.com" {
		t.Fatalf("unexpected session entry: %v", entry)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("expected exactly one durable upsert, got %d", len(repo.upserts))
	}
	if repo.upserts[0].LastSeen.IsZero() {
		t.Fatal("upsert must refresh last_seen")
	}
	if !reflect.DeepEqual(repo.upserts[0].Roles, []string{"admin"}) {
		t.Fatalf("upsert roles=%v", repo.upserts[0].Roles)
	}
}

func TestStoreReplacesPriorSessionEntry(t *testing.T) {
	cache := session.NewMemoryCache(time.Minute)
	m := NewMaterializer(cache, nil)

	m.Store(context.Background(), "sess-1", map[string]any{"oid": "u-1", "mail": "first@example.com"}, nil, "")
	m.Store(context.Background(), "sess-1", map[string]any{"oid": "u-2"}, nil, "")

	entry, _ := cache.Get(context.Background(), "sess-1")
	if entry["user_id"] != "u-2" {
		t.Fatalf("user_id=%v, want u-2", entry["user_id"])
	}
	if entry["email"] != "" {
		t.Fatalf("replace must be wholesale, got stale email %v", entry["email"])
	}
}

func TestStoreSwallowsSessionWriteFailure(t *testing.T) {
	repo := &fakeRepo{}
	m := NewMaterializer(failingCache{}, repo)

	rec := m.Store(context.Background(), "sess-1", map[string]any{"oid": "u-1"}, nil, "tok")
	if rec.UserID != "u-1" {
		t.Fatalf("record must still be produced: %+v", rec)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("durable upsert must still run, got %d", len(repo.upserts))
	}
}

func TestStoreSwallowsUpsertFailure(t *testing.T) {
	cache := session.NewMemoryCache(time.Minute)
	repo := &fakeRepo{err: errors.New("db down")}
	m := NewMaterializer(cache, repo)

	rec := m.Store(context.Background(), "sess-1", map[string]any{"oid": "u-1"}, nil, "")
	if rec.UserID != "u-1" {
		t.Fatalf("record must still be produced: %+v", rec)
	}
	entry, _ := cache.Get(context.Background(), "sess-1")
	if entry == nil {
		t.Fatal("session write must still happen when the upsert fails")
	}
}

func TestStoreEmptyClaimsYieldUnidentifiedRecord(t *testing.T) {
	m := NewMaterializer(session.NewMemoryCache(time.Minute), nil)
	rec := m.Store(context.Background(), "sess-1", map[string]any{}, nil, "")
	if rec.UserID != "" {
		t.Fatalf("UserID=%q, want empty for absent claims", rec.UserID)
	}
	if rec.Roles == nil {
		t.Fatal("roles must default to empty list")
	}
}
