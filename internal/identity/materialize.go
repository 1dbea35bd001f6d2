package identity

import (
	"context"
	"time"

	"idbridge.org/internal/claims"
	"idbridge.org/internal/obs"
	"idbridge.org/internal/sanitize"
	"idbridge.org/internal/session"
)

// Repository is the durable side of materialization.
type Repository interface {
	Upsert(ctx context.Context, rec Record) error
}

// Materializer turns one login's merged claims into the canonical identity
// record and persists it: wholesale into the session cache and as one
// durable upsert keyed by user id.
type Materializer struct {
	cache session.Cache
	repo  Repository
}

func NewMaterializer(cache session.Cache, repo Repository) *Materializer {
	return &Materializer{cache: cache, repo: repo}
}

// Store never fails: persistence errors are logged and swallowed so the
// login itself still succeeds. A session-write failure is the loud one; a
// failed durable upsert alone must not break login. Exactly one upsert is
// attempted per call.
func (m *Materializer) Store(ctx context.Context, sessionID string, attrs map[string]any, roles []string, accessToken string) Record {
	if roles == nil {
		roles = []string{}
	}
	rec := Record{
		UserID:         sanitize.Clean(claims.UserID(attrs)),
		Name:           sanitize.Clean(claims.DisplayName(attrs)),
		FirstName:      sanitize.Clean(claims.FirstName(attrs)),
		Email:          sanitize.Clean(claims.Email(attrs)),
		OfficeLocation: sanitize.Clean(claims.OfficeLocation(attrs)),
		Position:       sanitize.Clean(claims.Position(attrs)),
		Roles:          roles,
		GraphToken:     accessToken,
	}

	outcome := "stored"
	if m.cache != nil {
		if err := m.cache.Put(ctx, sessionID, rec.SessionMap()); err != nil {
			outcome = "session_failed"
			obs.Log("error", "session identity write failed", map[string]any{
				"user_id": rec.UserID,
				"error":   err.Error(),
			})
		}
	}

	if m.repo != nil {
		rec.LastSeen = time.Now().UTC()
		if err := m.repo.Upsert(ctx, rec); err != nil {
			if outcome == "stored" {
				outcome = "upsert_failed"
			}
			obs.ObserveUpsert("error")
			obs.Log("warn", "durable identity upsert failed", map[string]any{
				"user_id": rec.UserID,
				"error":   err.Error(),
			})
		} else {
			obs.ObserveUpsert("ok")
		}
	}

	obs.ObserveMaterialization(outcome)
	return rec
}
