package exchange

import (
	"net/url"
	"strings"

	"github.com/vincentlearning/token-gateway/internal/resterrors"
	"github.com/vincentlearning/token-gateway/internal/utils"
	"github.com/vincentlearning/token-gateway/tokenmodel"
)

// Form is an ordered set of key/value pairs for a form-encoded body.
// Unlike url.Values, Encode preserves insertion order, so the downstream
// body is byte-for-byte deterministic.
type Form struct {
	pairs []pair
}

type pair struct {
	key   string
	value string
}

// Add appends a key/value pair.
func (f *Form) Add(key, value string) {
	f.pairs = append(f.pairs, pair{key: key, value: value})
}

// Get returns the first value for key, or "" if absent.
func (f *Form) Get(key string) string {
	for _, p := range f.pairs {
		if p.key == key {
			return p.value
		}
	}
	return ""
}

// Encode renders the form as application/x-www-form-urlencoded in
// insertion order.
func (f *Form) Encode() string {
	var b strings.Builder
	for i, p := range f.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// BuildForm builds the normalized form forwarded to the IAM server. The
// caller-supplied password is base64-decoded; the client_id always comes
// from gateway configuration, never from the caller. The request must
// already have passed Validate.
func BuildForm(req tokenmodel.TokenRequest, clientID string) (*Form, error) {
	grant, _ := req.NormalizedGrantType()

	form := &Form{}
	form.Add("grant_type", string(grant))

	switch grant {
	case tokenmodel.GrantTypePassword:
		form.Add("username", req.Username)
		password, err := utils.DecodeBase64(req.Password)
		if err != nil {
			return nil, resterrors.New(resterrors.ErrorCodeInvalidPassword, "fail to decode password with base64")
		}
		form.Add("password", password)
	case tokenmodel.GrantTypeRefreshToken:
		form.Add("refresh_token", req.RefreshToken)
	}

	form.Add("client_id", clientID)
	return form, nil
}
