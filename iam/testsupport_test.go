package iam_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubConfig implements config.IamConfig for tests.
type stubConfig struct {
	host       string
	port       int
	rootPath   string
	tlsEnable  string
	clientCert string
	trustCA    string
	clientID   string
	discovery  string
	interval   time.Duration
}

func (c stubConfig) GetIamHost() string          { return c.host }
func (c stubConfig) GetIamPort() int             { return c.port }
func (c stubConfig) GetIamRootPath() string      { return c.rootPath }
func (c stubConfig) GetIamTLSEnable() string     { return c.tlsEnable }
func (c stubConfig) GetIamClientCert() string    { return c.clientCert }
func (c stubConfig) GetIamClientTrustCA() string { return c.trustCA }
func (c stubConfig) GetIamClientID() string      { return c.clientID }
func (c stubConfig) GetIamDiscovery() string     { return c.discovery }

func (c stubConfig) GetIamConnectionTimeout() time.Duration { return 2 * time.Second }
func (c stubConfig) GetIamReadTimeout() time.Duration       { return 2 * time.Second }
func (c stubConfig) GetIamWriteTimeout() time.Duration      { return 2 * time.Second }
func (c stubConfig) GetIamMaxInMemorySize() int64           { return 1 << 20 }

func (c stubConfig) GetCertCheckInterval() time.Duration {
	if c.interval > 0 {
		return c.interval
	}
	return 20 * time.Millisecond
}

// hostPort splits a test server URL into host and port.
func hostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// testCA is a throwaway certificate authority for TLS tests.
type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
	pem  []byte
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &testCA{
		cert: cert,
		key:  key,
		pem:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}
}

// issue creates a leaf certificate signed by the CA. Server
// certificates are valid for localhost.
func (ca *testCA) issue(t *testing.T, commonName string, server bool) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	usage := x509.ExtKeyUsageClientAuth
	if server {
		usage = x509.ExtKeyUsageServerAuth
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}
