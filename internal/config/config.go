package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/IbnuJabir/AuralFlowAI/internal/client"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"DUB_ENV" default:"development" yaml:"environment"`

	BaseURL string        `envconfig:"DUB_BASE_URL" default:"http://localhost:8000/api" yaml:"base_url"`
	Timeout time.Duration `envconfig:"DUB_TIMEOUT" default:"30s" yaml:"timeout"`

	PollInterval       time.Duration `envconfig:"DUB_POLL_INTERVAL" default:"2s" yaml:"poll_interval"`
	WaitTimeout        time.Duration `envconfig:"DUB_WAIT_TIMEOUT" default:"30m" yaml:"wait_timeout"`
	MaxConcurrentPolls int           `envconfig:"DUB_MAX_CONCURRENT_POLLS" default:"5" yaml:"max_concurrent_polls"`

	HTTPPort      int           `envconfig:"DUB_HTTP_PORT" default:"8080" yaml:"http_port"`
	HTTPTimeout   time.Duration `envconfig:"DUB_HTTP_TIMEOUT" default:"15s" yaml:"http_timeout"`
	MaxUploadSize int64         `envconfig:"DUB_MAX_UPLOAD_SIZE" default:"104857600" yaml:"max_upload_size"`

	ShutdownTimeout time.Duration `envconfig:"DUB_SHUTDOWN_TIMEOUT" default:"30s" yaml:"shutdown_timeout"`

	OutputDir       string        `envconfig:"DUB_OUTPUT_DIR" default:"downloads" yaml:"output_dir"`
	DownloadTimeout time.Duration `envconfig:"DUB_DOWNLOAD_TIMEOUT" default:"30m" yaml:"download_timeout"`

	LogLevel  string `envconfig:"DUB_LOG_LEVEL" default:"info" yaml:"log_level"`
	LogFormat string `envconfig:"DUB_LOG_FORMAT" default:"json" yaml:"log_format"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL: %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("request timeout must be positive: %s", c.Timeout)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %s", c.PollInterval)
	}

	if c.WaitTimeout < 0 {
		return fmt.Errorf("wait timeout cannot be negative: %s", c.WaitTimeout)
	}

	if c.MaxConcurrentPolls <= 0 {
		return fmt.Errorf("max concurrent polls must be positive: %d", c.MaxConcurrentPolls)
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}

	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive: %s", c.DownloadTimeout)
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive: %d", c.MaxUploadSize)
	}

	return nil
}

// Client returns the remote api settings.
func (c *Config) Client() client.Config {
	return client.Config{
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	}
}
