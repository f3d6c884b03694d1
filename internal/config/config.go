package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider   ProviderConfig   `yaml:"provider"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Engine     EngineConfig     `yaml:"engine"`
	Strategies []StrategyConfig `yaml:"strategies"`
}

type ProviderConfig struct {
	Address           string `yaml:"address"`
	APIToken          string `yaml:"-"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

const _requestsPerMinuteDefault = 180

func (c *ProviderConfig) Setup() error {
	if c.Address == "" {
		return fmt.Errorf("provider address is required")
	}
	if _, err := url.Parse(c.Address); err != nil {
		return err
	}

	c.APIToken = os.Getenv("MARKET_DATA_API_TOKEN")
	if c.APIToken == "" {
		return fmt.Errorf("empty market data api token")
	}

	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}

	return nil
}

type FetcherConfig struct {
	Cadence          time.Duration `yaml:"cadence"`
	BatchSize        int           `yaml:"batch_size"`
	BatchCooldown    time.Duration `yaml:"batch_cooldown"`
	BootstrapWindow  time.Duration `yaml:"bootstrap_window"`
	MaxFetchAttempts int           `yaml:"max_fetch_attempts"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
}

func (c *FetcherConfig) Setup() {
	if c.Cadence <= 0 {
		c.Cadence = 60 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.BatchCooldown <= 0 {
		c.BatchCooldown = 2 * time.Second
	}
	if c.BootstrapWindow <= 0 {
		c.BootstrapWindow = 2 * 24 * time.Hour
	}
	if c.MaxFetchAttempts <= 0 {
		c.MaxFetchAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 1 * time.Second
	}
}

type EngineConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	Timezone      string        `yaml:"timezone"`
	MarketOpen    string        `yaml:"market_open"`
	MarketClose   string        `yaml:"market_close"`
	SquareOff     string        `yaml:"square_off"`
	ControlFile   string        `yaml:"control_file"`
	HeartbeatFile string        `yaml:"heartbeat_file"`
	HTTPPort      string        `yaml:"http_port"`

	location              *time.Location
	open, closing, square int // minutes since midnight
}

func (c *EngineConfig) Setup() error {
	if c.TickInterval <= 0 {
		c.TickInterval = 30 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Kolkata"
	}
	if c.MarketOpen == "" {
		c.MarketOpen = "09:15"
	}
	if c.MarketClose == "" {
		c.MarketClose = "15:30"
	}
	if c.SquareOff == "" {
		c.SquareOff = "15:20"
	}
	if c.ControlFile == "" {
		c.ControlFile = "control_signal.txt"
	}
	if c.HeartbeatFile == "" {
		c.HeartbeatFile = "heartbeat.json"
	}
	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: can't load timezone", err)
	}
	c.location = loc

	if c.open, err = parseClock(c.MarketOpen); err != nil {
		return fmt.Errorf("%w: can't parse market_open", err)
	}
	if c.closing, err = parseClock(c.MarketClose); err != nil {
		return fmt.Errorf("%w: can't parse market_close", err)
	}
	if c.square, err = parseClock(c.SquareOff); err != nil {
		return fmt.Errorf("%w: can't parse square_off", err)
	}
	if c.open >= c.closing || c.square > c.closing {
		return fmt.Errorf("invalid session times %s %s %s", c.MarketOpen, c.SquareOff, c.MarketClose)
	}

	return nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (c *EngineConfig) Location() *time.Location {
	return c.location
}

// WithinSession reports whether t falls inside market hours on a weekday.
func (c *EngineConfig) WithinSession(t time.Time) bool {
	local := t.In(c.location)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	m := local.Hour()*60 + local.Minute()
	return m >= c.open && m < c.closing
}

// PastSquareOff reports whether t has reached the forced end-of-day exit
// cutoff.
func (c *EngineConfig) PastSquareOff(t time.Time) bool {
	local := t.In(c.location)
	return local.Hour()*60+local.Minute() >= c.square
}

func (c *Config) ValidateAndSetup() error {
	if err := c.Provider.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup provider cfg", err)
	}
	c.Fetcher.Setup()
	if err := c.Engine.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup engine cfg", err)
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("empty strategies")
	}
	for i := range c.Strategies {
		if err := c.Strategies[i].Setup(); err != nil {
			return fmt.Errorf("%w: can't setup strategy cfg", err)
		}
	}

	return nil
}

// Instruments returns the deduplicated union of all strategy symbols, the
// set the fetcher tracks.
func (c *Config) Instruments() []string {
	seen := make(map[string]struct{})
	instruments := make([]string, 0)
	for _, s := range c.Strategies {
		for _, sym := range s.Symbols {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			instruments = append(instruments, sym)
		}
	}
	return instruments
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
