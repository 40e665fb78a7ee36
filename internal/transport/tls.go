package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

var (
	ErrTLSCertFileRequired = errors.New("transport: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("transport: tls key file required")
	ErrTLSInsecureWithCA   = errors.New("transport: insecure skip verify conflicts with ca file")
)

// TLSConfig selects client TLS settings. Without CAFile the system roots
// verify the server.
type TLSConfig struct {
	Enabled            bool   `toml:"enabled"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	ServerName         string `toml:"server_name"`
	CAFile             string `toml:"ca_file"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
}

func (c TLSConfig) Validate() error {
	cert := strings.TrimSpace(c.CertFile)
	key := strings.TrimSpace(c.KeyFile)
	if cert != "" && key == "" {
		return ErrTLSKeyFileRequired
	}
	if key != "" && cert == "" {
		return ErrTLSCertFileRequired
	}
	if c.InsecureSkipVerify && strings.TrimSpace(c.CAFile) != "" {
		return ErrTLSInsecureWithCA
	}
	return nil
}

// ClientConfig builds a tls.Config for dialing hostport.
func (c TLSConfig) ClientConfig(hostport string) (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(c.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(hostport)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(c.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("transport: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if certPath := strings.TrimSpace(c.CertFile); certPath != "" {
		cert, err := tls.LoadX509KeyPair(certPath, strings.TrimSpace(c.KeyFile))
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
