package iam

import "net/http"

// Mode is the security posture of an outbound client.
type Mode int

const (
	// ModePlaintext talks plain HTTP to the IAM server.
	ModePlaintext Mode = iota
	// ModeTrustOnly verifies the server against a configured CA.
	ModeTrustOnly
	// ModeMutual additionally presents a client certificate.
	ModeMutual
	// ModeInsecure trusts any server certificate. This is the
	// intentional fallback when TLS is on but no trust CA is set.
	ModeInsecure
)

func (m Mode) String() string {
	switch m {
	case ModePlaintext:
		return "PLAINTEXT"
	case ModeTrustOnly:
		return "TLS_TRUST_ONLY"
	case ModeMutual:
		return "TLS_MUTUAL"
	case ModeInsecure:
		return "TLS_INSECURE"
	}
	return "UNKNOWN"
}

// ClientHandle is an immutable snapshot pairing a built HTTP client with
// the TLS identity it was constructed from. Rotation produces a new
// handle; an existing handle is never modified, so any request that
// captured one can use it to completion without locking.
type ClientHandle struct {
	mode       Mode
	httpClient *http.Client
	tokenURL   string
	keyPath    string
}

// Mode reports the handle's security posture.
func (h *ClientHandle) Mode() Mode { return h.mode }

// HTTPClient returns the transport client built for this identity.
func (h *ClientHandle) HTTPClient() *http.Client { return h.httpClient }

// TokenURL is the fully resolved downstream token endpoint.
func (h *ClientHandle) TokenURL() string { return h.tokenURL }

// KeyPath is the client private key file backing this identity, empty
// unless the mode is ModeMutual. It is the rotation trigger file.
func (h *ClientHandle) KeyPath() string { return h.keyPath }
