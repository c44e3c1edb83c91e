package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/docqr/docqr/internal/api/response"
	"github.com/docqr/docqr/internal/auth"
)

const identityKey contextKey = "identity"

// Authenticator resolves an Authorization header value to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*auth.Identity, error)
}

// Auth is middleware that resolves the bearer token in the Authorization
// header to an active user. Every failure ends the request with a 401.
func Auth(authenticator Authenticator, opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, authenticator, o)
			if err != nil {
				reason := auth.FailureReason(err)
				o.authFailed(reason)

				if reason == "verification_error" {
					Logger(r.Context()).Error("token verification failed", "error", err)
				} else {
					Logger(r.Context()).Debug("request rejected", "reason", reason)
				}

				response.Err(w, http.StatusUnauthorized, authMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate runs the lookup under the store timeout and turns a panic in
// the authenticator into a verification error.
func authenticate(r *http.Request, authenticator Authenticator, o *options) (identity *auth.Identity, err error) {
	ctx, cancel := o.context(r.Context())
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			identity = nil
			err = fmt.Errorf("%w: panic: %v", auth.ErrTokenVerification, rec)
		}
	}()

	return authenticator.Authenticate(ctx, r.Header.Get("Authorization"))
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return MsgMissingToken
	case errors.Is(err, auth.ErrMalformedToken):
		return MsgMalformedToken
	case errors.Is(err, auth.ErrUserNotFoundOrInactive):
		return MsgUserNotFound
	default:
		return MsgTokenVerification
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
