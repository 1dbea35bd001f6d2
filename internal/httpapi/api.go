// Package httpapi is the HTTP surface of the identity bridge: login
// callback, session-backed identity endpoints, and the usual operational
// routes.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"idbridge.org/internal/identity"
	"idbridge.org/internal/obs"
	"idbridge.org/internal/session"
)

// Records is the durable-record lookup side used by the guarded endpoints.
type Records interface {
	Find(ctx context.Context, userID string) (*identity.Record, error)
}

// ReadyProbe reports readiness (for example, a database ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators. Nil fields disable the
// corresponding routes rather than failing construction.
type Options struct {
	Cache         session.Cache
	Records       Records
	Authenticator *identity.Authenticator
	Handshake     identity.Handshake
	ReadyProbe    ReadyProbe
	Version       string
	SessionTTL    time.Duration
}

// API is the HTTP layer.
type API struct {
	mux           *http.ServeMux
	cache         session.Cache
	records       Records
	authenticator *identity.Authenticator
	handshake     identity.Handshake
	readyProbe    ReadyProbe
	version       string
	sessionTTL    time.Duration
}

func New(opts Options) *API {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	a := &API{
		mux:           http.NewServeMux(),
		cache:         opts.Cache,
		records:       opts.Records,
		authenticator: opts.Authenticator,
		handshake:     opts.Handshake,
		readyProbe:    opts.ReadyProbe,
		version:       opts.Version,
		sessionTTL:    opts.SessionTTL,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// login lifecycle
	a.mux.HandleFunc("/v1/auth/callback", a.handleAuthCallback)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// identity
	a.mux.HandleFunc("/v1/me", a.handleMe)
	a.mux.HandleFunc("/v1/identity", a.handleIdentity)
	a.mux.HandleFunc("/v1/identity/", a.handleIdentityByID)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully-wrapped http.Handler. The resolver runs inside
// the request-id and logging wrappers so every log line and audit event can
// carry both the request id and the resolved user.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withIdentity(h)
	h = a.withPrincipal(h)
	h = RateLimit(h, 50, 25)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}
