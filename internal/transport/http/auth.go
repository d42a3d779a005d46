package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aiornot-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// RevocationStore remembers logged-out token IDs until their expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Identity is the authenticated caller.
type Identity struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator verifies HS256 bearer tokens issued by the account service. The subject is the user
// ID; the jti is checked against the revocation store on every request.
type Authenticator struct {
	secret  []byte
	revoked RevocationStore
	now     func() time.Time
}

func NewAuthenticator(secret string, revoked RevocationStore) *Authenticator {
	return &Authenticator{secret: []byte(secret), revoked: revoked, now: time.Now}
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	id := Identity{UserID: claims.Subject, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	if id.TokenID != "" {
		revoked, err := a.revoked.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Identity{}, fmt.Errorf("%w: token revoked", domain.ErrUnauthorized)
		}
	}
	return id, nil
}

// Revoke invalidates the identity's token until it would have expired.
func (a *Authenticator) Revoke(ctx context.Context, id Identity) error {
	if id.TokenID == "" {
		return fmt.Errorf("%w: token cannot be revoked without jti", domain.ErrUnauthorized)
	}
	return a.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

type identityKey struct{}

// Middleware rejects unauthenticated requests and stores the identity in the request context.
func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r.Context(), tokenFromRequest(r))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	}
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// tokenFromRequest reads "Authorization: Bearer" or, for browsers opening a websocket, ?token=.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

var errNoIdentity = errors.New("no identity in request context")
