package security

import (
	"crypto/tls"
	"fmt"
)

// TLSConfig holds server-side TLS settings.
type TLSConfig struct {
	// CertFile is the PEM certificate chain presented to clients.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	// KeyFile is the PEM private key for CertFile.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
	// MinVersion is the minimum TLS version (e.g., tls.VersionTLS12).
	// Defaults to TLS 1.2.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Enabled reports whether a certificate is configured.
func (c *TLSConfig) Enabled() bool {
	return c != nil && c.CertFile != ""
}

// Validate checks that cert and key are given together.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: cert_file and key_file must be provided together")
	}
	if c.MinVersion != 0 && c.MinVersion < tls.VersionTLS12 {
		return fmt.Errorf("security/tls: min_version below TLS 1.2 is not allowed")
	}
	return nil
}

// Build loads the key pair into a *tls.Config. It returns nil when TLS is
// not configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: load key pair: %w", err)
	}
	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}
