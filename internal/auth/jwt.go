package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rzaleman/taskman-be/internal/apperr"
	"github.com/rzaleman/taskman-be/internal/httpx"
	"github.com/rzaleman/taskman-be/internal/models"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type contextKey string

const (
	userKey  = contextKey("authUser")
	tokenKey = contextKey("authToken")
)

// TokenManager signs and verifies session tokens. The secret comes from
// configuration, not ambient env.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Generate creates a signed token for a user id. Tokens carry no expiry;
// revocation happens by removing them from the user's stored token list.
func (tm *TokenManager) Generate(userID string) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Parse verifies a token's signature and returns its claims.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}

// SessionResolver looks up the user that holds a specific issued token.
// Implemented by the user service; a signature-valid token that is not in
// the user's stored list resolves to ErrUnauthorized.
type SessionResolver interface {
	GetUserBySession(ctx context.Context, userID, token string) (models.User, error)
}

// Authenticator is the middleware protecting owner-scoped routes.
type Authenticator struct {
	tm       *TokenManager
	sessions SessionResolver
}

func NewAuthenticator(tm *TokenManager, sessions SessionResolver) *Authenticator {
	return &Authenticator{tm: tm, sessions: sessions}
}

// Middleware resolves the bearer token to a user and attaches both the user
// and the raw token to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := BearerToken(r)
		if tokenStr == "" {
			httpx.WriteError(w, http.StatusUnauthorized, apperr.ErrUnauthorized.Error(), nil)
			return
		}

		user, err := a.Resolve(r.Context(), tokenStr)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, apperr.ErrUnauthorized.Error(), nil)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, tokenKey, tokenStr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Resolve verifies a raw token and returns the user owning it.
func (a *Authenticator) Resolve(ctx context.Context, tokenStr string) (models.User, error) {
	claims, err := a.tm.Parse(tokenStr)
	if err != nil {
		return models.User{}, err
	}
	return a.sessions.GetUserBySession(ctx, claims.UserID, tokenStr)
}

// BearerToken extracts the bearer token from the Authorization header, or
// from the "token" query parameter for websocket upgrades.
func BearerToken(r *http.Request) string {
	ah := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return strings.TrimSpace(ah[len("Bearer "):])
	}
	return r.URL.Query().Get("token")
}

// UserFromContext returns the authenticated user set by the middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// TokenFromContext returns the raw token used for the current request.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}
