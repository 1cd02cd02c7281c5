package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"i4.energy/across/headsetctl/headset"
)

// Transports accepted by Config.Transport.
const (
	TransportRFCOMM = "rfcomm"
	TransportSerial = "serial"
)

const envPrefix = "HEADSETCTL_"

// Config holds the application configuration
type Config struct {
	// Address is the headset's Bluetooth address (e.g. "8E:5D:79:E0:EE:5B")
	Address string
	// Channel is the RFCOMM channel carrying the AT interface
	Channel int
	// Transport selects how the channel is opened: "rfcomm" or "serial"
	Transport string
	// SerialPort is the rfcomm tty used by the serial transport (e.g. "/dev/rfcomm0")
	SerialPort string
	// BaudRate is the baud rate for the serial transport
	BaudRate int
	// Adapter is the BlueZ adapter name (e.g. "hci0"); "none" skips BlueZ
	Adapter string
	// BindAddress is the address the HTTP server listens on; empty disables it
	BindAddress string
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// LogFormat is "json" or "console"; empty picks by HEADSETCTL_ENV
	LogFormat string
	// TracePath is the CBOR protocol trace file; empty disables file tracing
	TracePath string

	ExchangeTimeout  time.Duration
	StatusQueryDelay time.Duration
	ModeSwitchDelay  time.Duration

	// Interactive starts the readline shell
	Interactive bool
	// Reconnect keeps the channel open, retrying with backoff after drops
	Reconnect bool
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportRFCOMM:
	case TransportSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("serial transport requires a serial port")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Channel < 1 || c.Channel > 30 {
		return fmt.Errorf("rfcomm channel %d out of range 1-30", c.Channel)
	}
	return nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.Address = headset.DefaultAddress
		c.Channel = int(headset.DefaultChannel)
		c.Transport = TransportRFCOMM
		c.SerialPort = "/dev/rfcomm0"
		c.BaudRate = 115200
		c.Adapter = "hci0"
		c.BindAddress = "127.0.0.1:8080"
		c.LogLevel = "info"
		c.ExchangeTimeout = headset.DefaultExchangeTimeout
		c.StatusQueryDelay = headset.DefaultStatusQueryDelay
		c.ModeSwitchDelay = headset.DefaultModeSwitchDelay
		return nil
	}
}

// fileConfig mirrors Config for TOML and YAML files. Pointers tell keys
// that are absent from keys set to their zero value.
type fileConfig struct {
	Address          *string `toml:"address" yaml:"address"`
	Channel          *int    `toml:"channel" yaml:"channel"`
	Transport        *string `toml:"transport" yaml:"transport"`
	SerialPort       *string `toml:"serial_port" yaml:"serial_port"`
	BaudRate         *int    `toml:"baud_rate" yaml:"baud_rate"`
	Adapter          *string `toml:"adapter" yaml:"adapter"`
	BindAddress      *string `toml:"bind_address" yaml:"bind_address"`
	LogLevel         *string `toml:"log_level" yaml:"log_level"`
	LogFormat        *string `toml:"log_format" yaml:"log_format"`
	TracePath        *string `toml:"trace" yaml:"trace"`
	ExchangeTimeout  *string `toml:"exchange_timeout" yaml:"exchange_timeout"`
	StatusQueryDelay *string `toml:"status_query_delay" yaml:"status_query_delay"`
	ModeSwitchDelay  *string `toml:"mode_switch_delay" yaml:"mode_switch_delay"`
	Interactive      *bool   `toml:"interactive" yaml:"interactive"`
	Reconnect        *bool   `toml:"reconnect" yaml:"reconnect"`
}

// WithFile loads a TOML (.toml) or YAML (.yaml, .yml) file. An empty path
// is a no-op.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		var raw fileConfig
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".toml":
			if _, err := toml.DecodeFile(path, &raw); err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
		case ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
		default:
			return fmt.Errorf("load config %s: unsupported format %q", path, ext)
		}
		return raw.apply(c)
	}
}

func (f *fileConfig) apply(c *Config) error {
	setString(&c.Address, f.Address)
	setString(&c.Transport, f.Transport)
	setString(&c.SerialPort, f.SerialPort)
	setString(&c.Adapter, f.Adapter)
	setString(&c.BindAddress, f.BindAddress)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFormat, f.LogFormat)
	setString(&c.TracePath, f.TracePath)
	if f.Channel != nil {
		c.Channel = *f.Channel
	}
	if f.BaudRate != nil {
		c.BaudRate = *f.BaudRate
	}
	if f.Interactive != nil {
		c.Interactive = *f.Interactive
	}
	if f.Reconnect != nil {
		c.Reconnect = *f.Reconnect
	}

	durations := []struct {
		key string
		raw *string
		dst *time.Duration
	}{
		{"exchange_timeout", f.ExchangeTimeout, &c.ExchangeTimeout},
		{"status_query_delay", f.StatusQueryDelay, &c.StatusQueryDelay},
		{"mode_switch_delay", f.ModeSwitchDelay, &c.ModeSwitchDelay},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(*d.raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// WithEnv loads configuration from HEADSETCTL_* environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		strs := map[string]*string{
			"ADDRESS":      &c.Address,
			"TRANSPORT":    &c.Transport,
			"SERIAL_PORT":  &c.SerialPort,
			"ADAPTER":      &c.Adapter,
			"BIND_ADDRESS": &c.BindAddress,
			"LOG_LEVEL":    &c.LogLevel,
			"LOG_FORMAT":   &c.LogFormat,
			"TRACE":        &c.TracePath,
		}
		for key, dst := range strs {
			if v := os.Getenv(envPrefix + key); v != "" {
				*dst = v
			}
		}

		ints := map[string]*int{
			"CHANNEL":   &c.Channel,
			"BAUD_RATE": &c.BaudRate,
		}
		for key, dst := range ints {
			if v := os.Getenv(envPrefix + key); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("%s%s: %w", envPrefix, key, err)
				}
				*dst = n
			}
		}

		durations := map[string]*time.Duration{
			"EXCHANGE_TIMEOUT":   &c.ExchangeTimeout,
			"STATUS_QUERY_DELAY": &c.StatusQueryDelay,
			"MODE_SWITCH_DELAY":  &c.ModeSwitchDelay,
		}
		for key, dst := range durations {
			if v := os.Getenv(envPrefix + key); v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("%s%s: %w", envPrefix, key, err)
				}
				*dst = d
			}
		}

		if v := os.Getenv(envPrefix + "RECONNECT"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%sRECONNECT: %w", envPrefix, err)
			}
			c.Reconnect = b
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
// explicitly
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			if err != nil {
				return
			}
			value := f.Value.String()
			switch f.Name {
			case "address":
				c.Address = value
			case "channel":
				c.Channel, err = strconv.Atoi(value)
			case "transport":
				c.Transport = value
			case "serial-port":
				c.SerialPort = value
			case "baud-rate":
				c.BaudRate, err = strconv.Atoi(value)
			case "adapter":
				c.Adapter = value
			case "bind-address":
				c.BindAddress = value
			case "log-level":
				c.LogLevel = value
			case "log-format":
				c.LogFormat = value
			case "trace":
				c.TracePath = value
			case "exchange-timeout":
				c.ExchangeTimeout, err = time.ParseDuration(value)
			case "status-query-delay":
				c.StatusQueryDelay, err = time.ParseDuration(value)
			case "mode-switch-delay":
				c.ModeSwitchDelay, err = time.ParseDuration(value)
			case "interactive":
				c.Interactive, err = strconv.ParseBool(value)
			case "reconnect":
				c.Reconnect, err = strconv.ParseBool(value)
			}
			if err != nil {
				err = fmt.Errorf("flag -%s: %w", f.Name, err)
			}
		})
		return err
	}
}
