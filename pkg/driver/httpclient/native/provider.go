package native

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imagefetch/pkg/driver"
	httpclientdriver "imagefetch/pkg/driver/httpclient"
)

func init() {
	driver.Register[httpclientdriver.Driver](&Provider{})
}

type Provider struct{}

func (p *Provider) ID() string         { return "httpclient_native" }
func (p *Provider) Name() string       { return "Native HTTP Client" }
func (p *Provider) DefaultWeight() int { return driver.DefaultWeight }

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	// Always compatible
	return nil
}

func (p *Provider) New(ctx context.Context) (httpclientdriver.Driver, error) {
	return httpclientdriver.WithLogging(&Driver{Timeouts: httpclientdriver.TimeoutsFromContext(ctx)}), nil
}

type Driver struct {
	Timeouts httpclientdriver.Timeouts

	once   sync.Once
	client *http.Client
}

func (d *Driver) Client() *http.Client {
	d.once.Do(func() {
		dialer := &net.Dialer{
			Timeout:   d.Timeouts.Connect,
			KeepAlive: 30 * time.Second,
			// Prefer IPv4 over IPv6 to avoid Termux DNS issues
			FallbackDelay: 300 * time.Millisecond,
		}
		dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
			// Try IPv4 first
			if network == "tcp" {
				network = "tcp4"
			}
			return dialer.DialContext(ctx, network, addr)
		}

		d.client = &http.Client{
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: httpclientdriver.WithReadDeadline(dial, d.Timeouts.Read),
				TLSClientConfig: &tls.Config{
					RootCAs: loadSystemCerts(),
				},
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       d.Timeouts.IdleConn(),
				TLSHandshakeTimeout:   d.Timeouts.Connect,
				ResponseHeaderTimeout: d.Timeouts.Read,
				ExpectContinueTimeout: 1 * time.Second,
			},
			CheckRedirect: httpclientdriver.NoRedirect,
		}
	})
	return d.client
}

// loadSystemCerts attempts to load system CA certificates from multiple locations
func loadSystemCerts() *x509.CertPool {
	// Try to load system cert pool first (works on most platforms)
	if pool, err := x509.SystemCertPool(); err == nil && pool != nil {
		return pool
	}

	pool := x509.NewCertPool()

	certFiles := []string{
		"/etc/ssl/certs/ca-certificates.crt",
		"/etc/pki/tls/certs/ca-bundle.crt",
		"/etc/ssl/ca-bundle.pem",
		"/etc/pki/tls/cacert.pem",
		"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem",
	}
	if certFile := os.Getenv("SSL_CERT_FILE"); certFile != "" {
		certFiles = append([]string{certFile}, certFiles...)
	}
	if certDir := os.Getenv("SSL_CERT_DIR"); certDir != "" {
		certFiles = append([]string{filepath.Join(certDir, "ca-certificates.crt")}, certFiles...)
	}

	for _, certFile := range certFiles {
		if certs, err := os.ReadFile(certFile); err == nil {
			if pool.AppendCertsFromPEM(certs) {
				return pool
			}
		}
	}

	slog.Warn("could not load system CA certificates from any known location")
	return pool
}
