package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so values like "30s" parse from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type UpstreamConfig struct {
	GatewayURL   string   `yaml:"gateway_url"`
	StationsURL  string   `yaml:"stations_url"`
	BookingURL   string   `yaml:"booking_url"`
	DeviceNumber string   `yaml:"device_number"`
	TicketCode   string   `yaml:"ticket_code"`
	Timeout      Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type WatchConfig struct {
	Interval Duration `yaml:"interval"`
}

type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			GatewayURL:   "https://api-gateway.intercity.pl",
			StationsURL:  "https://www.intercity.pl",
			BookingURL:   "https://ebilet.intercity.pl",
			DeviceNumber: "956",
			TicketCode:   "1010",
			Timeout:      Duration(30 * time.Second),
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Watch: WatchConfig{
			Interval: Duration(5 * time.Minute),
		},
	}
}

// Load reads the config file at path, applying defaults for anything unset.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Upstream.GatewayURL == "" || c.Upstream.StationsURL == "" || c.Upstream.BookingURL == "" {
		return fmt.Errorf("upstream: gateway_url, stations_url, and booking_url are required")
	}
	if c.Upstream.DeviceNumber == "" {
		return fmt.Errorf("upstream: device_number is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream: timeout must be positive")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch: interval must be positive")
	}
	return nil
}
