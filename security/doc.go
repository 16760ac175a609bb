// Package security builds the TLS settings of the webhook listener.
// Telegram only delivers webhooks over HTTPS, so the server can terminate
// TLS itself when no proxy or load balancer does:
//
//	cfg := security.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
//	tlsConfig, err := cfg.Build() // nil when TLS is not configured
package security
