package termux

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
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

func (p *Provider) ID() string         { return "httpclient_termux" }
func (p *Provider) Name() string       { return "Termux HTTP Client" }
func (p *Provider) DefaultWeight() int { return 60 } // Higher than native

func (p *Provider) CheckCompatibility(ctx context.Context) error {
	if os.Getenv("TERMUX_VERSION") == "" {
		return fmt.Errorf("%w: not running in Termux", driver.ErrIncompatible)
	}
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
		// Go's resolver cannot read Android's DNS settings, so dial a server directly
		resolver := &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer := &net.Dialer{
					Timeout: 5 * time.Second,
				}
				return dialer.DialContext(ctx, "udp", androidDNS()+":53")
			},
		}

		dialer := &net.Dialer{
			Timeout:   d.Timeouts.Connect,
			KeepAlive: 30 * time.Second,
			Resolver:  resolver,
		}
		dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
			// Force IPv4
			if network == "tcp" {
				network = "tcp4"
			}
			return dialer.DialContext(ctx, network, addr)
		}

		d.client = &http.Client{
			Transport: &http.Transport{
				DialContext: httpclientdriver.WithReadDeadline(dial, d.Timeouts.Read),
				TLSClientConfig: &tls.Config{
					RootCAs: loadTermuxCerts(),
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

func androidDNS() string {
	if dns := os.Getenv("DNS_SERVER"); dns != "" {
		return dns
	}
	return "8.8.8.8"
}

func loadTermuxCerts() *x509.CertPool {
	pool := x509.NewCertPool()

	certFiles := []string{
		"/data/data/com.termux/files/usr/etc/tls/cert.pem",
		"/data/data/com.termux/files/usr/etc/tls/certs/ca-certificates.crt",
	}
	for _, certFile := range certFiles {
		if certs, err := os.ReadFile(certFile); err == nil {
			if pool.AppendCertsFromPEM(certs) {
				return pool
			}
		}
	}

	// Android keeps one PEM file per CA
	certDirs := []string{
		"/system/etc/security/cacerts",
		"/data/data/com.termux/files/usr/etc/tls/certs",
	}
	for _, certDir := range certDirs {
		entries, err := os.ReadDir(certDir)
		if err != nil {
			continue
		}
		loaded := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if certs, err := os.ReadFile(filepath.Join(certDir, entry.Name())); err == nil {
				if pool.AppendCertsFromPEM(certs) {
					loaded++
				}
			}
		}
		if loaded > 0 {
			return pool
		}
	}

	slog.Warn("could not load any CA certificates for Termux")
	return pool
}
