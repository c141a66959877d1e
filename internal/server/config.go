package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/rental-forecast/internal/config"
	"github.com/iwvelando/rental-forecast/internal/sweep"
	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	MaxMonths       int                  `yaml:"maxMonths"`
	Sweep           SweepLimits          `yaml:"sweep"`
	Logging         config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes int64
}

// Limits bounds the work a single upload can request.
type Limits struct {
	MaxMonths int // horizon cap below constants.MaxHorizonMonths, 0 for none
	Sweep     SweepLimits
}

// Limits returns the request limits configured for the server.
func (c *Config) Limits() Limits {
	return Limits{MaxMonths: c.MaxMonths, Sweep: c.Sweep}
}

// CheckHorizon rejects parameters whose horizon exceeds MaxMonths.
func (l Limits) CheckHorizon(params finance.Parameters) error {
	if l.MaxMonths > 0 && params.Months > float64(l.MaxMonths) {
		return fmt.Errorf("%w: %.0f months, this server allows %d", finance.ErrHorizonTooLong, params.Months, l.MaxMonths)
	}
	return nil
}

// SweepLimits caps the budget of sweeps submitted over HTTP. A zero value
// leaves the uploaded configuration's budget untouched.
type SweepLimits struct {
	MaxRuns     int           `yaml:"maxRuns"`
	MaxDuration time.Duration `yaml:"maxDuration"`
}

// Apply tightens the budget of a sweep to the server limits.
func (l SweepLimits) Apply(opts *sweep.Options) {
	if l.MaxRuns > 0 && (opts.MaxRuns <= 0 || opts.MaxRuns > l.MaxRuns) {
		opts.MaxRuns = l.MaxRuns
	}
	if l.MaxDuration > 0 && (opts.MaxDuration <= 0 || opts.MaxDuration > l.MaxDuration) {
		opts.MaxDuration = l.MaxDuration
	}
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		MaxUploadSize:   fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		Logging:         config.LoggingConfig{},
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
		c.MaxUploadSize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.MaxMonths < 0 || c.Sweep.MaxRuns < 0 || c.Sweep.MaxDuration < 0 {
		return fmt.Errorf("request limits must not be negative")
	}

	sizeStr := strings.TrimSpace(c.MaxUploadSize)
	if sizeStr == "" {
		c.uploadSizeBytes = constants.DefaultMaxUploadSizeBytes
		c.MaxUploadSize = fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
