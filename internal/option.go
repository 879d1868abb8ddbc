package internal

import "github.com/prometheus/client_golang/prometheus"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	version  string
	registry *prometheus.Registry
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithRegistry replaces the default Prometheus registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(a *application) {
		a.registry = r
	}
}
