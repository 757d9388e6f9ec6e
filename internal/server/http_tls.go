package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
)

// configureTLS applies the TLS configuration to the HTTP server. Only plain
// server-side TLS is supported; the service terminates client TLS at the
// edge proxy in front of it.
func (s *Server) configureTLS(server *http.Server) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil
	case "server":
	default:
		return fmt.Errorf("unsupported TLS mode: %s", s.TLSConfig.Mode)
	}

	if _, err := os.Stat(s.TLSConfig.CertFile); err != nil {
		return fmt.Errorf("TLS cert file not readable: %w", err)
	}
	if _, err := os.Stat(s.TLSConfig.KeyFile); err != nil {
		return fmt.Errorf("TLS key file not readable: %w", err)
	}

	minVersion, err := parseTLSVersion(s.TLSConfig.MinVersion)
	if err != nil {
		return err
	}

	server.TLSConfig = &tls.Config{
		MinVersion: minVersion,
	}

	return nil
}

func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS min version: %s", v)
	}
}
