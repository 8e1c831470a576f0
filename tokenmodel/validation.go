package tokenmodel

import (
	"strings"

	"github.com/vincentlearning/token-gateway/internal/resterrors"
)

// Validate checks that exactly the fields the grant type requires are
// present and non-blank. The check order is fixed: for the password
// grant the username is checked before the password, so the first
// missing field in that order wins. Pure function, no side effects.
func Validate(req TokenRequest) *resterrors.RestError {
	grant, ok := req.NormalizedGrantType()
	if !ok {
		return resterrors.New(resterrors.ErrorCodeInvalidGrantType, "grant type is invalid")
	}

	switch grant {
	case GrantTypePassword:
		if !hasText(req.Username) {
			return resterrors.New(resterrors.ErrorCodeMissingMandatory, "username is missing")
		}
		if !hasText(req.Password) {
			return resterrors.New(resterrors.ErrorCodeMissingMandatory, "password is missing")
		}
	case GrantTypeRefreshToken:
		if !hasText(req.RefreshToken) {
			return resterrors.New(resterrors.ErrorCodeMissingMandatory, "refresh_token is missing")
		}
	}

	return nil
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
