package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/field-report/internal/apperror"
	"github.com/sakif/field-report/internal/model"
)

// contextKey is unexported so only this package can set or read the
// authenticated user in a request context.
type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a plaintext bearer token to its user.
// service.AuthService implements it.
//
// Implementations return an apperror.ErrUnauthorized error when the token
// matches no user, and any other error for a store fault.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// ErrorWriter writes err to the client. The handler package supplies it so
// that middleware failures use the same JSON envelope as handlers.
type ErrorWriter func(w http.ResponseWriter, err error)

// RequireAuth is a middleware that enforces bearer authentication on
// protected routes.
//
//   - no "Authorization: Bearer <token>" header → 401 "Token diperlukan"
//   - token matches no user                      → 401 "Token tidak valid"
//   - lookup fault                               → whatever writeErr maps it to (500)
//
// On success the user record is stored in the request context.
func RequireAuth(authn Authenticator, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeErr(w, apperror.Unauthorized("Token diperlukan"))
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeErr(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively; the token must be a
// single non-empty word.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request did not pass through RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
