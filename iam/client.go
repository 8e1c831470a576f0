package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vincentlearning/token-gateway/exchange"
	"github.com/vincentlearning/token-gateway/internal/resterrors"
	"github.com/vincentlearning/token-gateway/tokenmodel"
)

// TransportError is a failure below the HTTP layer: connect, TLS
// handshake or timeout. It is reported to callers as internal_error
// with no detail.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("iam transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HandleSource supplies the current client handle.
type HandleSource interface {
	Current() *ClientHandle
}

// Client sends normalized forms to the IAM token endpoint. It captures
// one handle per call, so a rotation completing mid-request never
// affects that request.
type Client struct {
	handles      HandleSource
	maxBodyBytes int64
}

// NewClient creates a downstream client. maxBodyBytes bounds how much
// of a response is buffered in memory; a response exceeding it fails
// only that request.
func NewClient(handles HandleSource, maxBodyBytes int64) *Client {
	return &Client{handles: handles, maxBodyBytes: maxBodyBytes}
}

var _ exchange.Downstream = (*Client)(nil)

// Exchange posts the form to the token endpoint and maps the outcome.
// A non-2xx status with a parsable error body becomes a downstream
// error carrying the IAM server's code and message; anything else is an
// internal failure. Never retried.
func (c *Client) Exchange(ctx context.Context, form *exchange.Form) (*tokenmodel.TokenResponse, error) {
	handle := c.handles.Current()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, handle.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build iam request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := handle.HTTPClient().Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := c.readBounded(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.mapErrorResponse(resp.StatusCode, body)
	}

	var token tokenmodel.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode iam token response: %w", err)
	}
	return &token, nil
}

// mapErrorResponse turns a non-2xx downstream response into an error.
// An unparsable or empty body collapses to internal_error; the full
// body is logged, never returned.
func (c *Client) mapErrorResponse(status int, body []byte) error {
	var errResp tokenmodel.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		log.Error().Int("status", status).Bytes("body", body).Msg("unparsable iam error response")
		return fmt.Errorf("iam returned status %d with unparsable error body", status)
	}

	log.Debug().Int("status", status).Str("error", errResp.Error).Str("message", errResp.Message).Msg("iam returned error")
	return resterrors.WithStatus(errResp.Error, errResp.Message, resterrors.DownstreamStatus(errResp.Error, status))
}

func (c *Client) readBounded(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, c.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, fmt.Errorf("iam response exceeds max in-memory size of %d bytes", c.maxBodyBytes)
	}
	return data, nil
}
