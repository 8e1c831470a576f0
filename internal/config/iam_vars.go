package config

import (
	"strconv"
	"time"
)

// IamConfig is the configuration surface for the downstream IAM server
// and the secure client built for it.
type IamConfig interface {
	GetIamHost() string
	GetIamPort() int
	GetIamRootPath() string

	// GetIamTLSEnable is tri-state: "" (unset) and "enabled" mean TLS,
	// anything else means plaintext.
	GetIamTLSEnable() string

	// GetIamClientCert holds "certPath,keyPath" when the gateway
	// authenticates itself with a client certificate.
	GetIamClientCert() string
	GetIamClientTrustCA() string

	GetIamClientID() string

	// GetIamDiscovery enables OIDC discovery of the token endpoint when
	// set to "enabled".
	GetIamDiscovery() string

	GetIamConnectionTimeout() time.Duration
	GetIamReadTimeout() time.Duration
	GetIamWriteTimeout() time.Duration
	GetIamMaxInMemorySize() int64

	GetCertCheckInterval() time.Duration
}

const (
	defaultIamTimeoutMs       = 5000
	defaultCertCheckMs        = 1000
	defaultMaxInMemoryBytes   = 1 << 20
	defaultIamClientID        = "admin-portal"
	defaultIamRootPathSegment = "/auth/realms/oam/protocol/openid-connect"
)

type IamVars struct{}

var _ IamConfig = IamVars{}

func (IamVars) GetIamHost() string {
	return GetEnv("IAM_HOST", "localhost")
}

func (IamVars) GetIamPort() int {
	return intEnv("IAM_PORT", 8443)
}

func (IamVars) GetIamRootPath() string {
	return GetEnv("IAM_ROOT_PATH", defaultIamRootPathSegment)
}

func (IamVars) GetIamTLSEnable() string {
	return GetEnv("IAM_TLS_ENABLE", "")
}

func (IamVars) GetIamClientCert() string {
	return GetEnv("IAM_CLIENT_CERT", "")
}

func (IamVars) GetIamClientTrustCA() string {
	return GetEnv("IAM_CLIENT_TRUST_CA", "")
}

func (IamVars) GetIamClientID() string {
	return GetEnv("IAM_CLIENT_ID", defaultIamClientID)
}

func (IamVars) GetIamDiscovery() string {
	return GetEnv("IAM_DISCOVERY", "")
}

func (IamVars) GetIamConnectionTimeout() time.Duration {
	return msEnv("IAM_CLIENT_CONNECTION_TIMEOUT_MS", defaultIamTimeoutMs)
}

func (IamVars) GetIamReadTimeout() time.Duration {
	return msEnv("IAM_CLIENT_READ_TIMEOUT_MS", defaultIamTimeoutMs)
}

func (IamVars) GetIamWriteTimeout() time.Duration {
	return msEnv("IAM_CLIENT_WRITE_TIMEOUT_MS", defaultIamTimeoutMs)
}

func (IamVars) GetIamMaxInMemorySize() int64 {
	return int64(intEnv("IAM_MAX_IN_MEMORY_SIZE", defaultMaxInMemoryBytes))
}

func (IamVars) GetCertCheckInterval() time.Duration {
	return msEnv("CERT_CHECK_INTERVAL_MS", defaultCertCheckMs)
}

func intEnv(envVar string, defaultValue int) int {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func msEnv(envVar string, defaultMs int) time.Duration {
	return time.Duration(intEnv(envVar, defaultMs)) * time.Millisecond
}
