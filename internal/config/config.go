// Package config loads the controller configuration from configs/config.yml,
// SKULL_* environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"skull_controller/internal/hardware"
	"skull_controller/internal/logger"
)

const envPrefix = "SKULL"

// minLineCapacity leaves room for the longest command with short arguments.
const minLineCapacity = 8

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Console  ConsoleConfig  `mapstructure:"console"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Auth     AuthConfig     `mapstructure:"auth"`

	// ResetCalibration loads defaults at startup instead of the stored values.
	ResetCalibration bool `mapstructure:"reset_calibration"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type HardwareConfig struct {
	Driver      string `mapstructure:"driver"`
	Device      string `mapstructure:"device"`
	Address     int    `mapstructure:"address"`
	FrequencyHz int    `mapstructure:"frequency_hz"`
}

type ConsoleConfig struct {
	Capacity     int           `mapstructure:"capacity"`
	Stdin        bool          `mapstructure:"stdin"`
	Verbose      bool          `mapstructure:"verbose"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

type SerialConfig struct {
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud"`
	Echo     bool   `mapstructure:"echo"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.port", "8080")
	v.SetDefault("db.path", "skull.db")

	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("hardware.driver", hardware.KindSim)
	v.SetDefault("hardware.device", "/dev/i2c-1")
	v.SetDefault("hardware.address", hardware.DefaultAddress)
	v.SetDefault("hardware.frequency_hz", hardware.DefaultFrequencyHz)

	v.SetDefault("console.capacity", 80)
	v.SetDefault("console.stdin", true)
	v.SetDefault("console.verbose", false)
	v.SetDefault("console.store_timeout", 5*time.Second)

	v.SetDefault("serial.device", "")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.echo", true)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("reset_calibration", false)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("skull", pflag.ContinueOnError)
	fs.String("config", "", "path to the config file (default configs/config.yml)")
	fs.String("serial", "", "serial console device, e.g. /dev/ttyUSB0")
	fs.String("http-port", "", "HTTP listen port")
	fs.Bool("reset-calibration", false, "start from default calibration (commit to keep)")
	fs.String("log-level", "", "debug, info, warn or error")
	return fs
}

// flag name -> config key
var flagKeys = map[string]string{
	"serial":            "serial.device",
	"http-port":         "http.port",
	"reset-calibration": "reset_calibration",
	"log-level":         "log.level",
}

// Load parses args (without the program name) and returns the validated
// configuration.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readConfigFile reads an explicit --config path, or configs/config.yml if
// present. A missing default file is not an error.
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.AddConfigPath("configs")
	v.AddConfigPath(".")
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.HTTP.Enabled {
		if p, perr := strconv.Atoi(c.HTTP.Port); perr != nil || p < 1 || p > 65535 {
			err = multierr.Append(err, fmt.Errorf("http.port %q is not a port number", c.HTTP.Port))
		}
		if c.Auth.SigningKey == "" {
			err = multierr.Append(err, errors.New("auth.signing_key is empty but http.enabled is set"))
		}
	}
	if c.DB.Path == "" {
		err = multierr.Append(err, errors.New("db.path is empty"))
	}
	switch strings.ToLower(c.Log.Level) {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	default:
		err = multierr.Append(err, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Hardware.Driver {
	case hardware.KindSim:
	case hardware.KindPCA9685:
		if c.Hardware.Device == "" {
			err = multierr.Append(err, errors.New("hardware.device is empty"))
		}
		if c.Hardware.Address <= 0 || c.Hardware.Address > 0x7f {
			err = multierr.Append(err, fmt.Errorf("hardware.address 0x%x is not a 7-bit address", c.Hardware.Address))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("hardware.driver %q is not %s or %s", c.Hardware.Driver, hardware.KindPCA9685, hardware.KindSim))
	}
	if c.Hardware.FrequencyHz < 24 || c.Hardware.FrequencyHz > 1526 {
		err = multierr.Append(err, fmt.Errorf("hardware.frequency_hz %d outside 24..1526", c.Hardware.FrequencyHz))
	}
	if c.Console.Capacity < minLineCapacity {
		err = multierr.Append(err, fmt.Errorf("console.capacity %d below %d", c.Console.Capacity, minLineCapacity))
	}
	if c.Console.StoreTimeout <= 0 {
		err = multierr.Append(err, errors.New("console.store_timeout must be positive"))
	}
	if c.Serial.Device != "" && c.Serial.BaudRate <= 0 {
		err = multierr.Append(err, fmt.Errorf("serial.baud %d must be positive", c.Serial.BaudRate))
	}
	if c.Auth.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("auth.token_ttl must be positive"))
	}
	return err
}

// LoggerOptions maps the log section onto logger options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:      strings.ToLower(c.Log.Level),
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// HardwareOptions maps the hardware section onto driver options.
func (c *Config) HardwareOptions() hardware.Config {
	return hardware.Config{
		Kind:        c.Hardware.Driver,
		Device:      c.Hardware.Device,
		Address:     c.Hardware.Address,
		FrequencyHz: c.Hardware.FrequencyHz,
	}
}
