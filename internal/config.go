package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/subtaste/internal/classifier"
	"github.com/starford/subtaste/internal/evolution"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/inbox"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Store     StoreConfig       `yaml:"store"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Auth      AuthConfig        `yaml:"auth"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	SSE       SSEConfig         `yaml:"sse"`
	Scoring   classifier.Tuning `yaml:"scoring"`
	Evolution evolution.Config  `yaml:"evolution"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Inbox.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.SSE.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Evolution.Validate(); err != nil {
		return fmt.Errorf("evolution: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the genome store driver.
type StoreConfig struct {
	genomestore.Config `yaml:",inline"`
}

// Validate checks that the selected driver has what it needs.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = genomestore.DriverSQLite
	}
	if err := validation.Validate(c.Driver, validation.In(
		genomestore.DriverSQLite, genomestore.DriverMemory, genomestore.DriverRedis, genomestore.DriverMongo)); err != nil {
		return fmt.Errorf("store: driver: %w", err)
	}
	var missing string
	switch {
	case c.Driver == genomestore.DriverSQLite && c.SQLite.Path == "":
		missing = "sqlite.path"
	case c.Driver == genomestore.DriverRedis && c.Redis.Addr == "":
		missing = "redis.addr"
	case c.Driver == genomestore.DriverMongo && c.Mongo.URI == "":
		missing = "mongo.uri"
	}
	if missing != "" {
		return fmt.Errorf("store: driver %q requires %s", c.Driver, missing)
	}
	return nil
}

// InboxConfig holds the signal batch inbox configuration.
type InboxConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	KeepProcessed bool   `yaml:"keep_processed"`
	// RetryInterval is how often files whose ingest failed are retried.
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.RetryInterval, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SSEConfig holds event stream configuration.
type SSEConfig struct {
	// DriftThrottle is the minimum gap between drift events for one owner.
	DriftThrottle time.Duration `yaml:"drift_throttle"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DriftThrottle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{genomestore.Config{
			Driver: genomestore.DriverSQLite,
			SQLite: genomestore.SQLiteConf{Path: "./subtaste.db"},
			Redis:  genomestore.RedisConfig{KeyPrefix: "subtaste"},
			Mongo:  genomestore.MongoConfig{Database: "subtaste", Collection: "genomes"},
		}},
		Inbox: InboxConfig{
			Path:          "./inbox",
			KeepProcessed: true,
			RetryInterval: inbox.DefaultRetryInterval,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		SSE: SSEConfig{
			DriftThrottle: 2 * time.Second,
		},
		Scoring:   classifier.DefaultTuning(),
		Evolution: evolution.DefaultConfig(),
	}
}
