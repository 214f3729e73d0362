package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/models"
)

type ctxKey int

const userContextKey ctxKey = iota

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom retrieves the authenticated user, if any.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// BearerToken extracts the bearer credential from the Authorization header.
// It returns "" when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticator turns bearer tokens into request identities.
type Authenticator struct {
	auth *auth.Service
}

// NewAuthenticator constructs the middleware around the auth service.
func NewAuthenticator(authSvc *auth.Service) *Authenticator {
	return &Authenticator{auth: authSvc}
}

// Require rejects the request with 401 unless a valid, unrevoked token is
// presented; on success the resolved user rides the context.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.auth.Verify(r.Context(), BearerToken(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// Optional resolves the identity when a valid token is presented and
// otherwise lets the request through unauthenticated.
func (a *Authenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := BearerToken(r); token != "" {
			if user, err := a.auth.Verify(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next(w, r)
	}
}
