package identity

import (
	"context"

	"idbridge.org/internal/claims"
	"idbridge.org/internal/obs"
)

// Token is what the external auth-handshake component hands over after a
// successful login. Signature and expiry validation happened upstream.
type Token struct {
	AccessToken   string
	IDTokenClaims map[string]any
}

// Handshake is the external OAuth2/OIDC component that exchanges an
// authorization code for a token. Implementations make no identity
// decisions; they return token facts only.
type Handshake interface {
	Exchange(ctx context.Context, code, state string) (*Token, error)
}

// ProfileFetcher retrieves the signed-in user's profile attributes from
// the identity provider's API.
type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (map[string]any, error)
	ProfileFields(ctx context.Context, accessToken string, fields []string) (map[string]any, error)
}

// Authenticator runs the claims pipeline for one successful token
// exchange: fetch profile attributes, merge the three claim sources,
// extract roles, materialize.
type Authenticator struct {
	fetcher       ProfileFetcher
	materializer  *Materializer
	roleAttribute string
	extraFields   []string
}

func NewAuthenticator(fetcher ProfileFetcher, m *Materializer, roleAttribute string, extraFields []string) *Authenticator {
	if roleAttribute == "" {
		roleAttribute = claims.DefaultRoleAttribute
	}
	return &Authenticator{
		fetcher:       fetcher,
		materializer:  m,
		roleAttribute: roleAttribute,
		extraFields:   extraFields,
	}
}

// Login normalizes and persists the identity for one authentication event.
// Profile-fetch failures degrade to an empty claim source; the merge and
// the login always proceed.
func (a *Authenticator) Login(ctx context.Context, sessionID string, tok Token) Record {
	var profile map[string]any
	if a.fetcher != nil {
		var err error
		profile, err = a.fetcher.Profile(ctx, tok.AccessToken)
		if err != nil {
			obs.Log("error", "profile fetch failed", map[string]any{"error": err.Error()})
			profile = nil
		}
	}

	var extra map[string]any
	if a.fetcher != nil && len(a.extraFields) > 0 {
		var err error
		extra, err = a.fetcher.ProfileFields(ctx, tok.AccessToken, a.extraFields)
		if err != nil {
			obs.Log("warn", "extra-fields fetch failed", map[string]any{"error": err.Error()})
			extra = nil
		}
	}

	attrs := claims.Merge(profile, extra, tok.IDTokenClaims)
	roles := claims.ExtractRoles(attrs, a.roleAttribute)
	return a.materializer.Store(ctx, sessionID, attrs, roles, tok.AccessToken)
}
