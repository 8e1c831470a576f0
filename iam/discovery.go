package iam

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/internal/config"
)

// resolveTokenURL replaces the handle's composed token URL with the one
// advertised in the IAM server's OIDC discovery document. Runs against
// a handle that has not been published yet, using that handle's own
// transport, so discovery honors the same TLS identity as token calls.
// Best effort: on any failure the composed URL stays in place.
func resolveTokenURL(cfg config.IamConfig, handle *ClientHandle) {
	if !strings.EqualFold(cfg.GetIamDiscovery(), "enabled") {
		return
	}

	issuer := strings.TrimSuffix(handle.TokenURL(), "/token")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetIamReadTimeout())
	defer cancel()
	ctx = oidc.ClientContext(ctx, handle.HTTPClient())

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		log.Warn().Err(err).Str("issuer", issuer).Msg("oidc discovery failed, using configured token url")
		return
	}

	endpoint := provider.Endpoint()
	if endpoint.TokenURL == "" {
		log.Warn().Str("issuer", issuer).Msg("oidc discovery document has no token endpoint")
		return
	}
	handle.tokenURL = endpoint.TokenURL
	log.Info().Str("token_url", endpoint.TokenURL).Msg("token endpoint resolved via oidc discovery")
}
