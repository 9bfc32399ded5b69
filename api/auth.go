/*
auth.go - Session tokens and authentication middleware

PURPOSE:
  Turns a signed session token into a ledger.Actor on the request context.
  Login flows are out of scope; tokens are minted by cmd/token or by tests.

TOKEN:
  HS256 JWT with claims {uid, role} plus registered claims (iat, exp).
  Read from the "session" cookie, falling back to "Authorization: Bearer",
  then to a ?token= query parameter on websocket handshakes.

SEE ALSO:
  - authz.go: Route-level role authorization
  - cmd/token/main.go: Development token minting
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/project-engine/ledger"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

// Claims are the session token claims.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies session tokens.
type Sessions struct {
	secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewSessions(secret string) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		TTL:    24 * time.Hour,
		Now:    time.Now,
	}
}

// Issue signs a token for the user.
func (s *Sessions) Issue(userID string, role ledger.Role) (string, error) {
	now := s.Now()
	claims := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies a token and returns the actor it names.
func (s *Sessions) Parse(token string) (ledger.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return ledger.Actor{}, fmt.Errorf("invalid session: %w", err)
	}

	actor := ledger.Actor{ID: claims.UserID, Role: ledger.Role(claims.Role)}
	if actor.ID == "" || !actor.Role.Valid() {
		return ledger.Actor{}, errors.New("invalid session: missing user or role")
	}
	return actor, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor ledger.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor, if any.
func ActorFrom(ctx context.Context) (ledger.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(ledger.Actor)
	return actor, ok
}

// Authenticate rejects requests without a valid session with 401.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeFailure(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		actor, err := s.Parse(token)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "Invalid or expired session", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// Browsers cannot set headers on websocket handshakes.
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
