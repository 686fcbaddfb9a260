// FILENAME: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Global Configuration
const (
	// Target
	DefaultMethod    = "POST"
	DefaultProtocol  = "h1"
	DefaultDelivery  = "body"
	DefaultParam     = "vector"
	RequestTimeout   = 20 * time.Second
	IdleConnTimeout  = 90 * time.Second
	H3KeepAlive      = 15 * time.Second
	MaxResponseBody  = 1024 * 1024 // 1MB
	MaxIdleConnsHost = 100

	// Run
	DefaultIterations = 100
	DefaultWorkers    = 10
	DefaultSource     = "pcg"
	VariableLength    = -1 // Length sentinel selecting the variable-length generator
	SpinBarrierCheck  = 1024 // Iterations before checking context for safety
	NoveltyCacheSize  = 4096

	// Output
	DefaultLogPath      = "driver.log"
	DefaultReportDir    = "reports"
	DefaultReportPrefix = "owasp"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// UI Colors (Palette)
var (
	ColorFocus  = lipgloss.Color("39")  // Vivid Blue
	ColorAccent = lipgloss.Color("212") // Pink
	ColorErr    = lipgloss.Color("196") // Red
	ColorWarn   = lipgloss.Color("214") // Orange
	ColorOk     = lipgloss.Color("42")  // Green
	ColorSub    = lipgloss.Color("240") // Dark Grey
)

// Config is the run file layout.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Run     RunConfig     `yaml:"run"`
	Logging LoggingConfig `yaml:"logging"`
	Report  ReportConfig  `yaml:"report"`
}

// TargetConfig describes where and how payloads are delivered.
type TargetConfig struct {
	URL                string            `yaml:"url"`
	Method             string            `yaml:"method"`
	Protocol           string            `yaml:"protocol"` // "h1", "h2" or "h3"
	Delivery           string            `yaml:"delivery"` // "body" or "param"
	Param              string            `yaml:"param"`    // form field name for param delivery
	Headers            map[string]string `yaml:"headers"`
	Timeout            time.Duration     `yaml:"timeout"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
}

// RunConfig controls payload generation and scheduling.
type RunConfig struct {
	Iterations int    `yaml:"iterations"`
	Workers    int    `yaml:"workers"`
	Seed       uint64 `yaml:"seed"`
	Source     string `yaml:"source"`
	Length     int    `yaml:"length"` // -1 selects variable length
	Burst      bool   `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

type ReportConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Method:             DefaultMethod,
			Protocol:           DefaultProtocol,
			Delivery:           DefaultDelivery,
			Param:              DefaultParam,
			Timeout:            RequestTimeout,
			InsecureSkipVerify: true,
		},
		Run: RunConfig{
			Iterations: DefaultIterations,
			Workers:    DefaultWorkers,
			Source:     DefaultSource,
			Length:     VariableLength,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: DefaultLogPath,
		},
		Report: ReportConfig{
			Dir:    DefaultReportDir,
			Prefix: DefaultReportPrefix,
		},
	}
}

// Load overlays a YAML file on the defaults. An empty path yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	t := c.Target
	if t.URL == "" {
		return fmt.Errorf("%w: target url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("%w: target url: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}

	switch t.Protocol {
	case "h1":
	case "h2", "h3":
		if u.Scheme != "https" {
			return fmt.Errorf("%w: %s requires https", ErrInvalidConfig, t.Protocol)
		}
	default:
		return fmt.Errorf("%w: unknown protocol %q", ErrInvalidConfig, t.Protocol)
	}

	switch t.Delivery {
	case "body":
	case "param":
		if t.Param == "" {
			return fmt.Errorf("%w: param delivery needs a param name", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown delivery %q", ErrInvalidConfig, t.Delivery)
	}

	r := c.Run
	if r.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	}
	if r.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if r.Length < VariableLength {
		return fmt.Errorf("%w: length %d (use %d for variable)", ErrInvalidConfig, r.Length, VariableLength)
	}
	return nil
}
