// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/rental-forecast/pkg/constants"
	"github.com/iwvelando/rental-forecast/pkg/datetime"
	"github.com/iwvelando/rental-forecast/pkg/finance"
	"github.com/iwvelando/rental-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for rental-forecast.
type Configuration struct {
	StartDate     string                 `yaml:"startDate,omitempty" mapstructure:"startDate"`
	RawParameters map[string]interface{} `yaml:"parameters" mapstructure:"parameters"`
	Parameters    finance.Parameters     `yaml:"-" mapstructure:"-"`
	Continuous    ContinuousConfig       `yaml:"continuous,omitempty" mapstructure:"continuous"`
	Sweep         SweepConfig            `yaml:"sweep,omitempty" mapstructure:"sweep"`
	Logging       LoggingConfig          `yaml:"logging,omitempty" mapstructure:"logging"`
	Output        OutputConfig           `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// ContinuousConfig controls the continuous run mode. Each entry of Reseeds
// is applied when a run passes its horizon. A positive Cycles caps the
// number of runs; otherwise runs continue until interrupted.
type ContinuousConfig struct {
	Cycles  int       `yaml:"cycles,omitempty" mapstructure:"cycles"`
	Reseeds [][]Patch `yaml:"reseeds,omitempty" mapstructure:"reseeds"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	params, err := ParseParameters(configuration.RawParameters)
	if err != nil {
		return nil, err
	}
	configuration.Parameters = params

	for i, reseed := range configuration.Continuous.Reseeds {
		if _, err := ApplyPatches(params, reseed); err != nil {
			return nil, fmt.Errorf("continuous reseed %d: %w", i+1, err)
		}
	}

	configuration.Sweep.Normalize()
	if configuration.Sweep.Enabled() {
		if err := configuration.Sweep.Validate(); err != nil {
			return nil, err
		}
	}

	return &configuration, nil
}

// ResolvedStartDate returns the configured start date, defaulting to the
// month containing now.
func (c *Configuration) ResolvedStartDate(now time.Time) (string, error) {
	return datetime.ResolveStartDate(c.StartDate, now)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for settings that load but are likely mistakes.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.StartDate != "" {
		if _, err := time.Parse(DateTimeLayout, c.StartDate); err != nil {
			warnings = append(warnings, fmt.Sprintf("startDate %q is not in %s format and will be ignored", c.StartDate, DateTimeLayout))
		}
	}

	p := c.Parameters
	if p.Down > constants.MaxDownPayment {
		warnings = append(warnings, fmt.Sprintf("down payment %.0f%% exceeds 100%%, no property will ever be bought", p.Down))
	}
	if p.Occupancy > constants.PercentageMultiplier {
		warnings = append(warnings, fmt.Sprintf("occupancy %.0f%% exceeds 100%%", p.Occupancy))
	}
	if p.HoldTime < p.Term {
		warnings = append(warnings, fmt.Sprintf("holdTime %.1f years is shorter than the %.1f year term, properties will be listed before they are refinanced", p.HoldTime, p.Term))
	}
	if p.Amortization <= 0 {
		warnings = append(warnings, "amortization of zero years makes every mortgage payment equal to the full loan")
	}
	if p.Horizon() == 0 {
		warnings = append(warnings, "months is zero, a run simulates only the first month")
	}

	validator := &validation.ParameterValidator{Parameters: p}
	warnings = append(warnings, validator.ValidateAll()...)

	if c.Continuous.Cycles < 0 {
		warnings = append(warnings, fmt.Sprintf("continuous cycles %d is negative and will be treated as unlimited", c.Continuous.Cycles))
	}

	return warnings
}
