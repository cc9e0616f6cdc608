// Package httpclient provides a centralized HTTP client factory with unified configuration.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// Timeout specifies a time limit for a single request, including the
	// connection attempt. Health probes against a stack that is still
	// booting should fail fast rather than hang for a full poll interval.
	Timeout time.Duration

	// DialTimeout is the maximum amount of time a dial will wait for a connect to complete
	DialTimeout time.Duration

	// KeepAlive specifies the interval between keep-alive probes for an active network connection
	KeepAlive time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive) connections across all hosts
	MaxIdleConns int

	// IdleConnTimeout is the maximum amount of time an idle (keep-alive) connection will remain idle before closing itself
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a ClientConfig with sensible defaults for probing
// a locally published service. The 5 second request timeout matches the
// poll interval of the readiness loop so a hung dial never delays more
// than one probe cycle.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:         5 * time.Second,
		DialTimeout:     3 * time.Second,
		KeepAlive:       30 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}
}

// New creates a new HTTP client with the provided configuration.
// If config is nil, DefaultConfig() is used.
func New(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:    config.MaxIdleConns,
		IdleConnTimeout: config.IdleConnTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}

// NewDefault creates a new HTTP client with default configuration.
func NewDefault() *http.Client {
	return New(nil)
}
