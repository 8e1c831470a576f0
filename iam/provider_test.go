package iam_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vincentlearning/token-gateway/iam"
)

// mutualTLSFixture is a client-auth HTTPS test server plus the on-disk
// certificate material the gateway is configured with.
type mutualTLSFixture struct {
	server   *httptest.Server
	ca       *testCA
	caPath   string
	certPath string
	keyPath  string
}

func newMutualTLSFixture(t *testing.T) *mutualTLSFixture {
	t.Helper()
	ca := newTestCA(t)

	serverCertPEM, serverKeyPEM := ca.issue(t, "iam-server", true)
	serverCert, err := tls.X509KeyPair(serverCertPEM, serverKeyPEM)
	require.NoError(t, err)

	clientCAs := x509.NewCertPool()
	require.True(t, clientCAs.AppendCertsFromPEM(ca.pem))

	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"accessToken","token_type":"Bearer","expires_in":10}`))
	}))
	ts.TLS = &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		ClientCAs:    clientCAs,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}
	ts.StartTLS()
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	fixture := &mutualTLSFixture{
		server:   ts,
		ca:       ca,
		caPath:   filepath.Join(dir, "ca.pem"),
		certPath: filepath.Join(dir, "client.crt"),
		keyPath:  filepath.Join(dir, "client.key"),
	}
	require.NoError(t, os.WriteFile(fixture.caPath, ca.pem, 0o600))
	fixture.writeClientIdentity(t, "gateway-client")
	return fixture
}

func (f *mutualTLSFixture) writeClientIdentity(t *testing.T, commonName string) {
	t.Helper()
	certPEM, keyPEM := f.ca.issue(t, commonName, false)
	require.NoError(t, os.WriteFile(f.certPath, certPEM, 0o600))
	require.NoError(t, os.WriteFile(f.keyPath, keyPEM, 0o600))
}

func (f *mutualTLSFixture) config(t *testing.T) stubConfig {
	t.Helper()
	host, port := hostPort(t, f.server.URL)
	return stubConfig{
		host:       host,
		port:       port,
		tlsEnable:  "enabled",
		trustCA:    f.caPath,
		clientCert: f.certPath + "," + f.keyPath,
		interval:   20 * time.Millisecond,
	}
}

func TestClientProvider_MutualTLSExchange(t *testing.T) {
	fixture := newMutualTLSFixture(t)

	provider, err := iam.NewClientProvider(fixture.config(t))
	require.NoError(t, err)
	require.Equal(t, iam.ModeMutual, provider.Current().Mode())

	client := iam.NewClient(provider, 1<<20)
	token, err := client.Exchange(context.Background(), passwordForm(t))
	require.NoError(t, err)
	require.Equal(t, "accessToken", token.AccessToken)
}

func TestClientProvider_RotatesOnKeyChange(t *testing.T) {
	fixture := newMutualTLSFixture(t)

	provider, err := iam.NewClientProvider(fixture.config(t))
	require.NoError(t, err)
	provider.StartWatching()
	defer provider.Stop()

	before := provider.Current()

	// Rotate the client identity on disk.
	fixture.writeClientIdentity(t, "gateway-client-rotated")

	require.Eventually(t, func() bool {
		return provider.Rotations() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	after := provider.Current()
	require.NotSame(t, before, after)
	require.Equal(t, iam.ModeMutual, after.Mode())

	// The rotated identity still serves.
	client := iam.NewClient(provider, 1<<20)
	_, err = client.Exchange(context.Background(), passwordForm(t))
	require.NoError(t, err)

	// A handle captured before the swap keeps working to completion.
	require.NotNil(t, before.HTTPClient())
}

func TestClientProvider_FailedRebuildKeepsServing(t *testing.T) {
	fixture := newMutualTLSFixture(t)

	provider, err := iam.NewClientProvider(fixture.config(t))
	require.NoError(t, err)
	provider.StartWatching()
	defer provider.Stop()

	before := provider.Current()

	// Corrupt key material: the rebuild must fail and the previous
	// handle must stay published.
	require.NoError(t, os.WriteFile(fixture.keyPath, []byte("garbage"), 0o600))
	time.Sleep(200 * time.Millisecond)

	require.Equal(t, uint64(0), provider.Rotations())
	require.Same(t, before, provider.Current())

	client := iam.NewClient(provider, 1<<20)
	_, err = client.Exchange(context.Background(), passwordForm(t))
	require.NoError(t, err)

	// The watcher keeps running: a good key rotates again.
	fixture.writeClientIdentity(t, "gateway-client-recovered")
	require.Eventually(t, func() bool {
		return provider.Rotations() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestClientProvider_WatcherNotArmedWithoutMutualTLS(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	provider := newPlainProvider(t, ts)
	provider.StartWatching()
	defer provider.Stop()

	require.Equal(t, iam.ModePlaintext, provider.Current().Mode())
	require.Equal(t, uint64(0), provider.Rotations())
}
