package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup. Values come from
// a YAML file; a few deployment-sensitive fields can be overridden by
// environment variables after loading.
type Config struct {
	Instrument struct {
		Symbol string `yaml:"symbol"`
		// TickSize is the display-price value of one integer tick,
		// e.g. "0.01". All engine prices are multiples of this.
		TickSize string `yaml:"tick_size"`
	} `yaml:"instrument"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		DepthLimit int    `yaml:"depth_limit"`
	} `yaml:"server"`

	WAL struct {
		Dir             string        `yaml:"dir"`
		SegmentSize     uint64        `yaml:"segment_size"`
		SegmentDuration time.Duration `yaml:"segment_duration"`
		FlushInterval   time.Duration `yaml:"flush_interval"`
	} `yaml:"wal"`

	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`

	Kafka struct {
		Brokers    []string      `yaml:"brokers"`
		TradeTopic string        `yaml:"trade_topic"`
		DepthTopic string        `yaml:"depth_topic"`
		Interval   time.Duration `yaml:"broadcast_interval"`
	} `yaml:"kafka"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns a configuration suitable for local runs.
func Default() *Config {
	cfg := &Config{}
	cfg.Instrument.Symbol = "BTC-USD"
	cfg.Instrument.TickSize = "0.01"
	cfg.Server.ListenAddr = ":8080"
	cfg.Server.DepthLimit = 20
	cfg.WAL.Dir = "./data/wal"
	cfg.WAL.SegmentSize = 2 * 1024 * 1024
	cfg.WAL.SegmentDuration = time.Minute
	cfg.WAL.FlushInterval = 2 * time.Second
	cfg.Outbox.Dir = "./data/outbox"
	cfg.Kafka.TradeTopic = "trades"
	cfg.Kafka.DepthTopic = "depth"
	cfg.Kafka.Interval = 250 * time.Millisecond
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads path, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	if c.Instrument.TickSize == "" {
		return fmt.Errorf("instrument.tick_size is required")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.DepthLimit < 0 {
		return fmt.Errorf("server.depth_limit must be >= 0")
	}
	if c.WAL.Dir == "" {
		return fmt.Errorf("wal.dir is required")
	}
	if c.WAL.SegmentSize == 0 {
		return fmt.Errorf("wal.segment_size must be > 0")
	}
	if c.Outbox.Dir == "" {
		return fmt.Errorf("outbox.dir is required")
	}
	if len(c.Kafka.Brokers) > 0 {
		if c.Kafka.TradeTopic == "" || c.Kafka.DepthTopic == "" {
			return fmt.Errorf("kafka topics are required when brokers are set")
		}
	}
	return nil
}
