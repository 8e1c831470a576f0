package iam

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/vincentlearning/token-gateway/internal/config"
)

// BuildHandle derives a secure client from the current configuration and
// the current on-disk certificate material. It is evaluated once at
// startup and once per rotation. The precedence is fixed:
//
//  1. TLS unset or "enabled" means https; anything else means plain
//     http with no TLS context at all.
//  2. With https and a trust CA configured, the server is verified
//     against that CA. If the client cert setting carries two
//     comma-separated paths (cert, key) the client also authenticates
//     itself, and the key path becomes the rotation trigger file.
//  3. With https and no trust CA, any server certificate is accepted.
//     A deliberate permissive fallback, not a safe default.
func BuildHandle(cfg config.IamConfig) (*ClientHandle, error) {
	scheme := "https"
	if enable := cfg.GetIamTLSEnable(); strings.TrimSpace(enable) != "" && !strings.EqualFold(enable, "enabled") {
		scheme = "http"
	}
	tokenURL := fmt.Sprintf("%s://%s:%d%s/token", scheme, cfg.GetIamHost(), cfg.GetIamPort(), cfg.GetIamRootPath())

	if scheme == "http" {
		return &ClientHandle{
			mode:       ModePlaintext,
			httpClient: newHTTPClient(cfg, nil),
			tokenURL:   tokenURL,
		}, nil
	}

	if trustCA := cfg.GetIamClientTrustCA(); strings.TrimSpace(trustCA) != "" {
		pool, err := loadCertPool(trustCA)
		if err != nil {
			return nil, err
		}

		if parts := strings.Split(cfg.GetIamClientCert(), ","); len(parts) > 1 {
			certPath := strings.TrimSpace(parts[0])
			keyPath := strings.TrimSpace(parts[1])
			cert, err := tls.LoadX509KeyPair(certPath, keyPath)
			if err != nil {
				return nil, fmt.Errorf("load client certificate pair: %w", err)
			}
			tlsConfig := &tls.Config{
				RootCAs:      pool,
				Certificates: []tls.Certificate{cert},
			}
			return &ClientHandle{
				mode:       ModeMutual,
				httpClient: newHTTPClient(cfg, tlsConfig),
				tokenURL:   tokenURL,
				keyPath:    keyPath,
			}, nil
		}

		return &ClientHandle{
			mode:       ModeTrustOnly,
			httpClient: newHTTPClient(cfg, &tls.Config{RootCAs: pool}),
			tokenURL:   tokenURL,
		}, nil
	}

	// TLS on, no trust CA configured: accept any server certificate.
	return &ClientHandle{
		mode:       ModeInsecure,
		httpClient: newHTTPClient(cfg, &tls.Config{InsecureSkipVerify: true}), // #nosec G402
		tokenURL:   tokenURL,
	}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	caPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trust CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("trust CA %s contains no certificates", path)
	}
	return pool, nil
}

// newHTTPClient builds the transport client for one handle. Connect,
// read and write timeouts are enforced independently per call; the
// overall client timeout bounds the whole exchange.
func newHTTPClient(cfg config.IamConfig, tlsConfig *tls.Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.GetIamConnectionTimeout()}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   cfg.GetIamConnectionTimeout(),
		ResponseHeaderTimeout: cfg.GetIamReadTimeout(),
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.GetIamConnectionTimeout() + cfg.GetIamReadTimeout() + cfg.GetIamWriteTimeout(),
	}
}
