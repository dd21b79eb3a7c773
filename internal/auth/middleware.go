package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type ctxKey string

const identityCtxKey = ctxKey("identity")

// Identity is the authenticated caller, resolved from a bearer token before
// any handler logic runs.
type Identity struct {
	UserID   int64
	Username string
}

// SubjectResolver maps a token subject back to a stored user. Returning
// ErrUnknownSubject (or any error) rejects the request with 401.
type SubjectResolver func(ctx context.Context, username string) (Identity, error)

var ErrUnknownSubject = errors.New("unknown subject")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok
}

// Middleware gates protected handlers behind bearer-token authentication.
// Nothing downstream re-checks auth: a handler wrapped here can assume
// IdentityFromContext succeeds.
func Middleware(issuer *TokenIssuer, resolve SubjectResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Missing bearer token")
				return
			}

			username, err := issuer.Subject(token)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "Token expired")
					return
				}
				unauthorized(w, "Invalid token")
				return
			}

			identity, err := resolve(r.Context(), username)
			if err != nil {
				unauthorized(w, "Unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
