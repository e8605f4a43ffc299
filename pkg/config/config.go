package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		BodyLimit       string        `yaml:"body_limit" default:"64K"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"5"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Risk struct {
		Benchmark    string `yaml:"benchmark" default:"SPY"`
		Lookback     int    `yaml:"lookback" default:"100"`
		MinOverlap   int    `yaml:"min_overlap" default:"30"`
		MaxAssets    int    `yaml:"max_assets" default:"10"`
		BaseCurrency string `yaml:"base_currency" default:"USD"`
	} `yaml:"risk"`
	PriceFeed struct {
		Source   string        `yaml:"source" default:"http"` // http or clickhouse
		ProxyURL string        `yaml:"proxy_url"`
		FMPURL   string        `yaml:"fmp_url" default:"https://financialmodelingprep.com/api/v3"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" default:"15s"`
		Retries  int           `yaml:"retries" default:"2"` // on 429 and gateway errors
		CacheTTL time.Duration `yaml:"cache_ttl" default:"15m"`
		Archive  bool          `yaml:"archive"` // copy fetched histories into ClickHouse
	} `yaml:"pricefeed"`
	Cache struct {
		Backend       string `yaml:"backend" default:"memory"` // memory, redis, layered
		MemoryMaxSize int    `yaml:"memory_max_size" default:"512"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"coeff"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequestTopic string   `yaml:"request_topic" default:"coeff.analysis.requests"`
		ResultTopic  string   `yaml:"result_topic" default:"coeff.analysis.results"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"coeff-risk"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"coeff"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overlays environment overrides using the given lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("COEFF_PROXY_URL"); v != "" {
		c.PriceFeed.ProxyURL = v
	}
	if v := getenv("FMP_API_KEY"); v != "" {
		c.PriceFeed.APIKey = v
	}
	if v := getenv("BENCHMARK"); v != "" {
		c.Risk.Benchmark = strings.ToUpper(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Cache.Redis.Port = p
			}
		}
		if c.Cache.Backend == "memory" {
			c.Cache.Backend = "layered"
		}
	}
}

// NeedsClickHouse reports whether any component reads or writes ClickHouse.
func (c *Config) NeedsClickHouse() bool {
	return c.PriceFeed.Source == "clickhouse" || c.PriceFeed.Archive
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Risk.Benchmark == "" {
		return fmt.Errorf("risk.benchmark is required")
	}
	if c.Risk.MinOverlap < 2 {
		return fmt.Errorf("risk.min_overlap must be at least 2, got %d", c.Risk.MinOverlap)
	}
	if c.Risk.Lookback < c.Risk.MinOverlap {
		return fmt.Errorf("risk.lookback (%d) must be >= risk.min_overlap (%d)", c.Risk.Lookback, c.Risk.MinOverlap)
	}
	if c.Risk.MaxAssets <= 0 {
		return fmt.Errorf("risk.max_assets must be positive")
	}
	switch c.PriceFeed.Source {
	case "http":
		if c.PriceFeed.ProxyURL == "" && c.PriceFeed.APIKey == "" {
			return fmt.Errorf("pricefeed.proxy_url or pricefeed.api_key is required for the http source")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse source")
		}
	default:
		return fmt.Errorf("pricefeed.source must be 'http' or 'clickhouse', got '%s'", c.PriceFeed.Source)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered", "none":
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, layered, none; got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
