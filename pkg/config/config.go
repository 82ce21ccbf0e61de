// Package config loads the colorctl configuration from defaults, an optional YAML file and flags
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"colorctl/pkg/command"
	"colorctl/pkg/serial"
)

// FileName is the config file looked up in the working directory
const FileName = "colorctl.yaml"

// Config is the complete application configuration
type Config struct {
	Serial   serial.SerialConfig `mapstructure:"serial"`
	Menu     MenuConfig          `mapstructure:"menu"`
	Log      LogConfig           `mapstructure:"log"`
	History  HistoryConfig       `mapstructure:"history"`
	Simulate bool                `mapstructure:"simulate"`
}

// MenuConfig selects the menu table
type MenuConfig struct {
	Variant string `mapstructure:"variant"`
	// Presets replaces the variant table when non-empty
	Presets  []command.Preset `mapstructure:"presets"`
	HexInput bool             `mapstructure:"hex_input"`
}

// LogConfig configures the file logger
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures log rotation
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// HistoryConfig bounds the in-memory exchange history
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("invalid serial config: %w", err)
	}

	if _, err := command.ParseVariant(c.Menu.Variant); err != nil {
		return err
	}

	if _, err := c.Presets(); err != nil {
		return fmt.Errorf("invalid menu presets: %w", err)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	validLogLevel := false
	for _, level := range validLogLevels {
		if c.Log.Level == level {
			validLogLevel = true
			break
		}
	}
	if !validLogLevel {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	switch c.Log.Output {
	case "file", "stderr", "none":
	default:
		return fmt.Errorf("invalid log output: %s", c.Log.Output)
	}

	if c.Log.Output == "file" && c.Log.File.Filename == "" {
		return fmt.Errorf("log file name cannot be empty")
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history max entries cannot be negative, got: %d", c.History.MaxEntries)
	}

	return nil
}

// Variant returns the parsed menu variant
func (c Config) Variant() command.Variant {
	v, err := command.ParseVariant(c.Menu.Variant)
	if err != nil {
		return command.VariantA
	}
	return v
}

// Presets returns the menu table: the configured presets if any, else the variant's table
func (c Config) Presets() ([]command.Preset, error) {
	if len(c.Menu.Presets) == 0 {
		return c.Variant().Presets(), nil
	}
	return command.CustomPresets(c.Menu.Presets, c.Menu.HexInput)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	def := serial.DefaultConfig()
	v.SetDefault("serial.port", def.Port)
	v.SetDefault("serial.baud_rate", def.BaudRate)
	v.SetDefault("serial.data_bits", def.DataBits)
	v.SetDefault("serial.stop_bits", def.StopBits)
	v.SetDefault("serial.parity", def.Parity)
	v.SetDefault("serial.timeout", def.Timeout.String())
	v.SetDefault("serial.driver", def.Driver)

	v.SetDefault("menu.variant", string(command.VariantA))
	v.SetDefault("menu.presets", []map[string]string{})
	v.SetDefault("menu.hex_input", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "file")
	v.SetDefault("log.file.path", ".")
	v.SetDefault("log.file.filename", "colorctl.log")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("history.max_entries", 1000)

	v.SetDefault("simulate", false)
}

// SearchPaths returns the files tried, in order, when no config file is given
func SearchPaths() []string {
	paths := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+FileName))
	}
	return paths
}

// Loader reads configuration through a private viper instance
type Loader struct {
	v    *viper.Viper
	used string
}

// NewLoader creates a loader seeded with defaults
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return &Loader{v: v}
}

// BindFlag lets a command line flag override a config key when it is set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads path, or the first existing file of SearchPaths when path is empty,
// and returns the validated configuration. A missing default file is not an error.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		l.used = path
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Used returns the config file that was read, empty when only defaults and flags apply
func (l *Loader) Used() string {
	return l.used
}

// Dump writes the effective settings as YAML
func (l *Loader) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l.v.AllSettings()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// ErrConfigExists is returned by WriteDefault when the file exists and force is not set
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes a config file holding the default settings
func WriteDefault(path string, force bool) error {
	if path == "" {
		path = FileName
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
