package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"time"

	"github.com/kayac/fcmrelay/fcmv1"
	goconf "github.com/kayac/go-config"
	"github.com/pkg/errors"
)

// Limit values
const (
	MaxBatchConcurrency = 100  // Maximum of concurrent sends in one batch request.
	MinBatchConcurrency = 1    // Minimum of concurrent sends in one batch request.
	MaxBatchSize        = 5000 // Maximum of tokens in one batch request.
	MinBatchSize        = 1    // Minimum of tokens in one batch request.
)

const (
	// Default port number of relay server
	DefaultPort = 3000
	// Default number of simultaneous connections accepted by the listener.
	DefaultMaxConnections = 1000
	// Default number of tokens accepted in one batch request.
	DefaultMaxBatchSize = fcmv1.MaxBulkRequests
	// Default number of concurrent sends in one batch request. 1 sends in input order.
	DefaultBatchConcurrency = 1
)

//go:embed default.toml
var defaultTOML []byte

// Config is the configure of a relay server
type Config struct {
	Provider SectionProvider `toml:"provider"`
	FCMv1    SectionFCMv1    `toml:"fcm_v1"`
}

// SectionProvider is relay server configuration
type SectionProvider struct {
	Port             int    `toml:"port"`
	MaxConnections   int    `toml:"max_connections"`
	CORSOrigin       string `toml:"cors_origin"`
	BatchConcurrency int    `toml:"batch_concurrency"`
	MaxBatchSize     int    `toml:"max_batch_size"`
	RequestTimeout   int    `toml:"request_timeout"`
}

// SectionFCMv1 is the configuration of fcm/v1
type SectionFCMv1 struct {
	ProjectID   string `toml:"project_id"`
	ClientEmail string `toml:"client_email"`
	PrivateKey  string `toml:"private_key"`
	Endpoint    string `toml:"endpoint"`
	TokenURL    string `toml:"token_url"`
	CacheToken  bool   `toml:"cache_token"`
}

// Timeout returns the upstream request timeout.
func (p SectionProvider) Timeout() time.Duration {
	return time.Duration(p.RequestTimeout) * time.Second
}

// HasCredential reports whether both credential fields are set.
func (f SectionFCMv1) HasCredential() bool {
	return f.ClientEmail != "" && f.PrivateKey != ""
}

// EndpointURL returns the upstream endpoint override, or nil for the production endpoint.
func (f SectionFCMv1) EndpointURL() (*url.URL, error) {
	if f.Endpoint == "" {
		return nil, nil
	}
	return url.Parse(f.Endpoint)
}

// DefaultLoadConfig builds the configuration from the environment
// (PORT, project_id, client_email, private_key, CORS_ORIGIN).
func DefaultLoadConfig() (Config, error) {
	var config Config
	if err := goconf.LoadWithEnvTOMLBytes(&config, defaultTOML); err != nil {
		return config, err
	}
	return finish(config)
}

// LoadConfig reads a toml file and loads on Config struct
func LoadConfig(fn string) (Config, error) {
	var config Config

	if err := goconf.LoadWithEnvTOML(&config, fn); err != nil {
		return config, err
	}
	return finish(config)
}

func finish(config Config) (Config, error) {
	// if not set parameters, set default value.
	if config.Provider.Port == 0 {
		config.Provider.Port = DefaultPort
	}

	if config.Provider.MaxConnections == 0 {
		config.Provider.MaxConnections = DefaultMaxConnections
	}

	if config.Provider.BatchConcurrency == 0 {
		config.Provider.BatchConcurrency = DefaultBatchConcurrency
	}

	if config.Provider.MaxBatchSize == 0 {
		config.Provider.MaxBatchSize = DefaultMaxBatchSize
	}

	if config.Provider.RequestTimeout == 0 {
		config.Provider.RequestTimeout = int(fcmv1.ClientTimeout / time.Second)
	}

	config.FCMv1.PrivateKey = fcmv1.NormalizePrivateKey(config.FCMv1.PrivateKey)

	// validates config parameters
	if err := (&config).validateConfig(); err != nil {
		return config, errors.Wrap(err, "validate config failed")
	}

	return config, nil
}

func (c *Config) validateConfig() error {
	if err := c.validateConfigProvider(); err != nil {
		return errors.Wrap(err, "[provider]")
	}
	if err := c.validateConfigFCMv1(); err != nil {
		return errors.Wrap(err, "[fcm_v1]")
	}
	return nil
}

func (c *Config) validateConfigProvider() error {
	if c.Provider.Port < 0 || c.Provider.Port > 65535 {
		return fmt.Errorf("Port was out of available range: %d. (0-65535)", c.Provider.Port)
	}

	if c.Provider.BatchConcurrency < MinBatchConcurrency || c.Provider.BatchConcurrency > MaxBatchConcurrency {
		return fmt.Errorf("BatchConcurrency was out of available range: %d. (%d-%d)", c.Provider.BatchConcurrency,
			MinBatchConcurrency, MaxBatchConcurrency)
	}

	if c.Provider.MaxBatchSize < MinBatchSize || c.Provider.MaxBatchSize > MaxBatchSize {
		return fmt.Errorf("MaxBatchSize was out of available range: %d. (%d-%d)", c.Provider.MaxBatchSize,
			MinBatchSize, MaxBatchSize)
	}

	if c.Provider.RequestTimeout < 0 {
		return fmt.Errorf("RequestTimeout must not be negative: %d", c.Provider.RequestTimeout)
	}

	return nil
}

func (c *Config) validateConfigFCMv1() error {
	if c.FCMv1.ProjectID == "" && c.FCMv1.Endpoint == "" {
		return fmt.Errorf("project_id is not defined")
	}
	if _, err := c.FCMv1.EndpointURL(); err != nil {
		return errors.Wrap(err, "invalid endpoint")
	}
	return nil
}
