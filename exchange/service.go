// Package exchange implements the token-exchange pipeline: validate the
// inbound request, build the normalized downstream form, and dispatch it
// to the IAM server.
package exchange

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/tokenmodel"
)

// Downstream sends a normalized form to the IAM token endpoint.
type Downstream interface {
	Exchange(ctx context.Context, form *Form) (*tokenmodel.TokenResponse, error)
}

// Service ties validation, form building and the downstream call
// together for one logical token exchange.
type Service struct {
	clientID string
	iam      Downstream
}

// NewService creates an exchange service. clientID is the statically
// configured OAuth client the gateway acts as.
func NewService(clientID string, iam Downstream) *Service {
	return &Service{clientID: clientID, iam: iam}
}

// Exchange runs one token exchange end to end. Validation and
// transcoding failures are terminal and never reach the IAM server.
func (s *Service) Exchange(ctx context.Context, req tokenmodel.TokenRequest) (*tokenmodel.TokenResponse, error) {
	if err := tokenmodel.Validate(req); err != nil {
		log.Debug().Str("grant_type", req.GrantType).Str("error", err.Code).Msg("token request rejected")
		return nil, err
	}

	form, err := BuildForm(req, s.clientID)
	if err != nil {
		log.Debug().Str("grant_type", req.GrantType).Msg("fail to decode password with base64")
		return nil, err
	}

	return s.iam.Exchange(ctx, form)
}
