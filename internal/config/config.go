package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultPort is used when PORT is unset or not a valid port number
const DefaultPort = 5000

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Evolution  EvolutionConfig  `mapstructure:"evolution"`
	Directus   DirectusConfig   `mapstructure:"directus"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EvolutionConfig configures the messaging gateway client
type EvolutionConfig struct {
	URL         string        `mapstructure:"url" validate:"required,url"`
	APIKey      string        `mapstructure:"api_key"`
	WebhookURL  string        `mapstructure:"webhook_url" validate:"required,url"`
	Integration string        `mapstructure:"integration"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DirectusConfig configures the record-store client
type DirectusConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig identifies the agent chat turns are recorded for.
// An empty ID leaves the agent unset on persisted turns.
type AgentConfig struct {
	ID string `mapstructure:"id"`
}

type DispatcherConfig struct {
	Workers      int           `mapstructure:"workers" validate:"gt=0"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// PORT=abc and friends: fall back to the default port instead of refusing to start
		v.Set("server.port", DefaultPort)
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = DefaultPort
	}

	return &cfg, nil
}

// Validate checks that the remote systems are configured
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Evolution
	v.SetDefault("evolution.webhook_url", "http://localhost:5000/evolution/webhooks")
	v.SetDefault("evolution.integration", "WHATSAPP-BAILEYS")
	v.SetDefault("evolution.timeout", "30s")

	// Directus
	v.SetDefault("directus.timeout", "30s")

	// Dispatcher
	v.SetDefault("dispatcher.workers", 64)
	v.SetDefault("dispatcher.drain_timeout", "10s")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 10)
	v.SetDefault("security.rate_limit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "PORT")

	// Evolution
	v.BindEnv("evolution.url", "EVOLUTION_API_URL")
	v.BindEnv("evolution.api_key", "EVOLUTION_API_TOKEN")
	v.BindEnv("evolution.webhook_url", "EVOLUTION_WEBHOOK_URL")

	// Directus
	v.BindEnv("directus.url", "DIRECTUS_API_URL")
	v.BindEnv("directus.token", "DIRECTUS_API_TOKEN")

	// Agent
	v.BindEnv("agent.id", "AGENT_ID")

	// Dispatcher
	v.BindEnv("dispatcher.workers", "DISPATCHER_WORKERS")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
	v.BindEnv("logging.file", "LOG_FILE")
}
