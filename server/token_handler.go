package server

import (
	"encoding/json"
	"net/http"

	"github.com/vincentlearning/token-gateway/internal/resterrors"
	"github.com/vincentlearning/token-gateway/tokenmodel"
)

const contentTypeJSON = "application/json; charset=utf-8"

// TokenHandler exchanges a caller's credentials or refresh token for an
// IAM-issued token.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Parse the token request from form data
		if err := r.ParseForm(); err != nil {
			writeRestError(w, resterrors.New(resterrors.ErrorCodeMissingMandatory, "failed to parse form data"))
			return
		}

		tokenReq := tokenmodel.TokenRequest{
			GrantType:    r.FormValue("grant_type"),
			Username:     r.FormValue("username"),
			Password:     r.FormValue("password"),
			RefreshToken: r.FormValue("refresh_token"),
		}

		tokenResponse, err := s.exchange.Exchange(r.Context(), tokenReq)
		if err != nil {
			writeRestError(w, resterrors.Translate(err))
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// writeRestError renders the caller-facing error envelope.
func writeRestError(w http.ResponseWriter, restErr *resterrors.RestError) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(restErr.Status)
	_ = json.NewEncoder(w).Encode(tokenmodel.ErrorResponse{
		Error:   restErr.Code,
		Message: restErr.Message,
	})
}
