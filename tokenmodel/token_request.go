package tokenmodel

import "strings"

// GrantType is the OAuth-style mode of a token request.
type GrantType string

const (
	GrantTypePassword     GrantType = "password"
	GrantTypeRefreshToken GrantType = "refresh_token"
)

// TokenRequest holds the parameters of an inbound token-exchange request.
// This represents the form body posted to the /token endpoint.
type TokenRequest struct {
	// GrantType selects the exchange mode. Matched case-insensitively
	// against "password" and "refresh_token".
	GrantType string

	// Username identifies the resource owner.
	// Required for the password grant.
	Username string

	// Password is the resource owner's password, base64-encoded by the
	// caller. The gateway decodes it before forwarding.
	// Required for the password grant.
	// Security: never log or expose this value.
	Password string

	// RefreshToken is exchanged for a fresh access token.
	// Required for the refresh_token grant.
	RefreshToken string
}

// NormalizedGrantType returns the lower-cased grant type and whether it
// is one of the supported grants.
func (r TokenRequest) NormalizedGrantType() (GrantType, bool) {
	switch grant := GrantType(strings.ToLower(r.GrantType)); grant {
	case GrantTypePassword, GrantTypeRefreshToken:
		return grant, true
	default:
		return grant, false
	}
}
