package headset

import (
	"fmt"
	"net"
	"time"

	"i4.energy/across/headsetctl/logger"
	"i4.energy/across/headsetctl/trace"
)

const (
	// DefaultAddress is the Crusher ANC 2 this tool was written for.
	DefaultAddress = "8E:5D:79:E0:EE:5B"
	// DefaultChannel is the RFCOMM channel carrying the AT interface.
	DefaultChannel uint8 = 9

	DefaultExchangeTimeout  = 5 * time.Second
	DefaultStatusQueryDelay = 300 * time.Millisecond
	DefaultModeSwitchDelay  = 500 * time.Millisecond
	DefaultMaxResponseSize  = 16 << 10

	// maxChannel is the highest valid RFCOMM server channel.
	maxChannel = 30
)

type Config struct {
	Address     string
	Channel     uint8
	Dialer      Dialer
	Locator     DeviceLocator
	LinkWatcher LinkWatcher
	Logger      logger.Logger
	Tracer      trace.Tracer
	// Dispatcher runs observer callbacks. When nil the session starts a
	// SerialDispatcher and stops it when the loop exits.
	Dispatcher Dispatcher

	ExchangeTimeout  time.Duration
	StatusQueryDelay time.Duration
	ModeSwitchDelay  time.Duration
	MaxResponseSize  int
}

func (c *Config) setDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.Channel == 0 {
		c.Channel = DefaultChannel
	}
	if c.Logger == nil {
		c.Logger = logger.Discard()
	}
	if c.Tracer == nil {
		c.Tracer = trace.NoopTracer{}
	}
	if c.ExchangeTimeout == 0 {
		c.ExchangeTimeout = DefaultExchangeTimeout
	}
	if c.StatusQueryDelay == 0 {
		c.StatusQueryDelay = DefaultStatusQueryDelay
	}
	if c.ModeSwitchDelay == 0 {
		c.ModeSwitchDelay = DefaultModeSwitchDelay
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.Locator == nil {
		return ErrNoLocator
	}
	if _, err := net.ParseMAC(c.Address); err != nil || len(c.Address) != addressLen {
		return fmt.Errorf("%w: address %q", ErrInvalidArgument, c.Address)
	}
	if c.Channel > maxChannel {
		return fmt.Errorf("%w: channel %d out of range 1-%d", ErrInvalidArgument, c.Channel, maxChannel)
	}
	if c.ExchangeTimeout < 0 || c.StatusQueryDelay < 0 || c.ModeSwitchDelay < 0 || c.MaxResponseSize < 0 {
		return fmt.Errorf("%w: negative timing or size", ErrInvalidArgument)
	}
	return nil
}

const addressLen = len("00:00:00:00:00:00")

// ConfigBuilder assembles a Config. Build applies defaults and validates.
type ConfigBuilder struct {
	cfg Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithAddress(address string) *ConfigBuilder {
	b.cfg.Address = address
	return b
}

func (b *ConfigBuilder) WithChannel(channel uint8) *ConfigBuilder {
	b.cfg.Channel = channel
	return b
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.cfg.Dialer = d
	return b
}

func (b *ConfigBuilder) WithLocator(l DeviceLocator) *ConfigBuilder {
	b.cfg.Locator = l
	return b
}

func (b *ConfigBuilder) WithLinkWatcher(w LinkWatcher) *ConfigBuilder {
	b.cfg.LinkWatcher = w
	return b
}

func (b *ConfigBuilder) WithLogger(l logger.Logger) *ConfigBuilder {
	b.cfg.Logger = l
	return b
}

func (b *ConfigBuilder) WithTracer(t trace.Tracer) *ConfigBuilder {
	b.cfg.Tracer = t
	return b
}

func (b *ConfigBuilder) WithDispatcher(d Dispatcher) *ConfigBuilder {
	b.cfg.Dispatcher = d
	return b
}

func (b *ConfigBuilder) WithExchangeTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.ExchangeTimeout = d
	return b
}

func (b *ConfigBuilder) WithStatusQueryDelay(d time.Duration) *ConfigBuilder {
	b.cfg.StatusQueryDelay = d
	return b
}

func (b *ConfigBuilder) WithModeSwitchDelay(d time.Duration) *ConfigBuilder {
	b.cfg.ModeSwitchDelay = d
	return b
}

func (b *ConfigBuilder) WithMaxResponseSize(n int) *ConfigBuilder {
	b.cfg.MaxResponseSize = n
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.cfg
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
