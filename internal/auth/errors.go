package auth

import "errors"

// Token authentication failures. Each maps to a 401 response.
var (
	ErrMissingToken           = errors.New("token required")
	ErrMalformedToken         = errors.New("malformed token")
	ErrUserNotFoundOrInactive = errors.New("user not found or inactive")
	ErrTokenVerification      = errors.New("token verification failed")
)

// Credential failures returned by Login and ChangePassword.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrWrongPassword      = errors.New("current password does not match")
	ErrSamePassword       = errors.New("new password must differ from the current one")
)

// FailureReason returns a short label for an authentication error, used
// for metrics and logs.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrUserNotFoundOrInactive):
		return "user_not_found_or_inactive"
	default:
		return "verification_error"
	}
}
