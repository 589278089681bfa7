package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"` // kafka, clickhouse, or memory
	} `yaml:"backend"`
	Kafka struct {
		Brokers              []string `yaml:"brokers"`
		SalesTopic           string   `yaml:"sales_topic"`
		RecommendationsTopic string   `yaml:"recommendations_topic"`
		RequiredAcks         int      `yaml:"required_acks"`
		Compression          string   `yaml:"compression"`
		Producer             struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		ObservationTable string        `yaml:"observation_table"`
		FeatureTable     string        `yaml:"feature_table"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	POS struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Stores         []string      `yaml:"stores"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         int           `yaml:"max_rps"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"pos"`
	// Generator overrides are pointers so an explicit zero (e.g.
	// promotion_rate: 0) is distinguishable from an absent key.
	Generator struct {
		SeasonalAmplitude *float64 `yaml:"seasonal_amplitude"`
		WeekendFactor     *float64 `yaml:"weekend_factor"`
		HolidayFactor     *float64 `yaml:"holiday_factor"`
		PromotionRate     *float64 `yaml:"promotion_rate"`
		PromotionUplift   *float64 `yaml:"promotion_uplift"`
		NoiseLow          *float64 `yaml:"noise_low"`
		NoiseHigh         *float64 `yaml:"noise_high"`
		PromoDiscount     *float64 `yaml:"promo_discount"`
		StockMin          *int     `yaml:"stock_min"`
		StockMax          *int     `yaml:"stock_max"`
	} `yaml:"generator"`
	Search struct {
		Workers       int `yaml:"workers"`
		Folds         int `yaml:"folds"`
		MaxCandidates int `yaml:"max_candidates"`
	} `yaml:"search"`
	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STOCKCAST_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("STOCKCAST_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("STOCKCAST_SALES_TOPIC"); v != "" {
		c.Kafka.SalesTopic = v
	}
	if v := os.Getenv("STOCKCAST_POS_API_KEY"); v != "" {
		c.POS.APIKey = v
	}
	if v := os.Getenv("STOCKCAST_POS_STORES"); v != "" {
		c.POS.Stores = strings.Split(v, ",")
	}
	if v := os.Getenv("STOCKCAST_MODEL_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("STOCKCAST_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "memory":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'memory', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with kafka backend")
	}
	if c.POS.Enabled && c.POS.APIKey == "" {
		return fmt.Errorf("pos.api_key is required when pos is enabled")
	}
	if c.Models.Dir == "" {
		c.Models.Dir = "data/models"
	}
	return nil
}
