// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"idbridge.org/internal/claims"
)

// Config carries everything the service reads at startup. All values come
// from IDBRIDGE_* environment variables; zero values mean "not configured"
// and the corresponding subsystem is skipped.
type Config struct {
	Addr string

	PGDSN string

	RedisAddr     string
	RedisPassword string

	GraphBaseURL string

	OAuthTokenURL     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURI  string

	// GroupAttribute is the merged-claims key roles are extracted from.
	GroupAttribute string
	// ExtraFields names additional profile attributes fetched after login.
	ExtraFields []string

	SessionTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Addr: getenv("IDBRIDGE_ADDR", ":8080"),

		PGDSN: os.Getenv("IDBRIDGE_PG_DSN"),

		RedisAddr:     os.Getenv("IDBRIDGE_REDIS_ADDR"),
		RedisPassword: os.Getenv("IDBRIDGE_REDIS_PASSWORD"),

		GraphBaseURL: os.Getenv("IDBRIDGE_GRAPH_BASE_URL"),

		OAuthTokenURL:     os.Getenv("IDBRIDGE_OAUTH_TOKEN_URL"),
		OAuthClientID:     os.Getenv("IDBRIDGE_OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("IDBRIDGE_OAUTH_CLIENT_SECRET"),
		OAuthRedirectURI:  os.Getenv("IDBRIDGE_OAUTH_REDIRECT_URI"),

		GroupAttribute: getenv("IDBRIDGE_GROUP_ATTRIBUTE", claims.DefaultRoleAttribute),
		ExtraFields:    splitList(os.Getenv("IDBRIDGE_EXTRA_FIELDS")),

		SessionTTL: getduration("IDBRIDGE_SESSION_TTL", 24*time.Hour),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
