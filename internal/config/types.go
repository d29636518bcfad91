// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkgvet/pkgvet/pkg/urlcheck"
)

const (
	// OutputText is the styled human-readable format.
	OutputText OutputFormat = "text"
	// OutputJSON writes indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputTOML writes TOML.
	OutputTOML OutputFormat = "toml"
	// OutputYAML writes YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputMarkdown renders a Markdown report with glamour.
	OutputMarkdown OutputFormat = "markdown"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidHTTPConfig is the sentinel wrapped by HTTP setting errors.
	ErrInvalidHTTPConfig = errors.New("invalid http config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how command results are written.
	OutputFormat string

	// InvalidOutputFormatError wraps ErrInvalidOutputFormat.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level of log messages written to stderr.
	LogLevel string

	// InvalidLogLevelError wraps ErrInvalidLogLevel.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects every field error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the complete pkgvet configuration.
	Config struct {
		Proxy ProxyConfig `json:"proxy" toml:"proxy" yaml:"proxy" mapstructure:"proxy"`
		HTTP  HTTPConfig  `json:"http" toml:"http" yaml:"http" mapstructure:"http"`
		Log   LogConfig   `json:"log" toml:"log" yaml:"log" mapstructure:"log"`
		UI    UIConfig    `json:"ui" toml:"ui" yaml:"ui" mapstructure:"ui"`

		// SourcePath is the config file the values were read from, or ""
		// when only defaults and the environment applied.
		SourcePath string `json:"-" toml:"-" yaml:"-" mapstructure:"-"`
	}

	// ProxyConfig routes URL checks through an HTTP proxy.
	ProxyConfig struct {
		Address  string `json:"address" toml:"address" yaml:"address" mapstructure:"address"`
		Username string `json:"username" toml:"username" yaml:"username" mapstructure:"username"`
		Password string `json:"password" toml:"password" yaml:"password" mapstructure:"password"`
	}

	// HTTPConfig tunes the URL checker.
	HTTPConfig struct {
		Timeout         time.Duration `json:"timeout" toml:"timeout" yaml:"timeout" mapstructure:"timeout"`
		RequestInterval time.Duration `json:"request_interval" toml:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`
		UserAgent       string        `json:"user_agent" toml:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	}

	// LogConfig controls diagnostic logging.
	LogConfig struct {
		Level LogLevel `json:"level" toml:"level" yaml:"level" mapstructure:"level"`
	}

	// UIConfig controls CLI output.
	UIConfig struct {
		Verbose bool         `json:"verbose" toml:"verbose" yaml:"verbose" mapstructure:"verbose"`
		Output  OutputFormat `json:"output" toml:"output" yaml:"output" mapstructure:"output"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:         urlcheck.DefaultTimeout,
			RequestInterval: urlcheck.DefaultRequestInterval,
			UserAgent:       urlcheck.DefaultUserAgent,
		},
		Log: LogConfig{Level: LogLevelInfo},
		UI:  UIConfig{Output: OutputText},
	}
}

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("%s %q (valid: text, json, toml, yaml, markdown)", ErrInvalidOutputFormat, e.Value)
}

// Unwrap returns ErrInvalidOutputFormat.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// Validate returns an *InvalidOutputFormatError for unknown formats.
func (f OutputFormat) Validate() error {
	switch f {
	case OutputText, OutputJSON, OutputTOML, OutputYAML, OutputMarkdown:
		return nil
	default:
		return &InvalidOutputFormatError{Value: f}
	}
}

// String returns the format name.
func (f OutputFormat) String() string { return string(f) }

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("%s %q (valid: debug, info, warn, error)", ErrInvalidLogLevel, e.Value)
}

// Unwrap returns ErrInvalidLogLevel.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate returns an *InvalidLogLevelError for unknown levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// Checker converts the proxy settings for the URL checker.
func (p ProxyConfig) Checker() urlcheck.ProxyConfig {
	return urlcheck.ProxyConfig{
		Address:  strings.TrimSpace(p.Address),
		Username: p.Username,
		Password: p.Password,
	}
}

// Validate rejects non-positive timeouts, negative intervals and blank
// user agents.
func (h HTTPConfig) Validate() error {
	var errs []error
	if h.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidHTTPConfig, h.Timeout))
	}
	if h.RequestInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: request_interval must not be negative, got %s", ErrInvalidHTTPConfig, h.RequestInterval))
	}
	if strings.TrimSpace(h.UserAgent) == "" {
		errs = append(errs, fmt.Errorf("%w: user_agent must not be empty", ErrInvalidHTTPConfig))
	}
	return errors.Join(errs...)
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the values CUE cannot check once environment overrides
// have been applied.
func (c *Config) Validate() error {
	var errs []error
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.Output.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
