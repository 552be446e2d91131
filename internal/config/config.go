// Package config loads application settings from config.yaml and the
// environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/outreach-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Apify      ApifyConfig      `yaml:"apify" mapstructure:"apify"`
	Exa        ExaConfig        `yaml:"exa" mapstructure:"exa"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Jobs       JobsConfig       `yaml:"jobs" mapstructure:"jobs"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Pricing    cost.Rates       `yaml:"pricing" mapstructure:"pricing"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ApifyConfig holds Apify API settings.
type ApifyConfig struct {
	Token           string            `yaml:"token" mapstructure:"token"`
	BaseURL         string            `yaml:"base_url" mapstructure:"base_url"`
	Actors          map[string]string `yaml:"actors" mapstructure:"actors"`
	PageSize        int               `yaml:"page_size" mapstructure:"page_size"`
	PollTimeoutSecs int               `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	WaitSecs        int               `yaml:"wait_secs" mapstructure:"wait_secs"`
	RateLimit       float64           `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ExaConfig holds the Exa key forwarded to the LinkedIn people-search actor.
type ExaConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// ScrapeConfig bounds search sizes.
type ScrapeConfig struct {
	DefaultMaxResults int `yaml:"default_max_results" mapstructure:"default_max_results"`
	MaxResultsLimit   int `yaml:"max_results_limit" mapstructure:"max_results_limit"`
}

// JobsConfig configures the asynchronous job registry and runner.
type JobsConfig struct {
	Backend       string      `yaml:"backend" mapstructure:"backend"`
	MaxConcurrent int         `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	Redis         RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig locates the shared job registry.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID   string `yaml:"client_id" mapstructure:"client_id"`
	Username   string `yaml:"username" mapstructure:"username"`
	KeyPath    string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string `yaml:"login_url" mapstructure:"login_url"`
	LeadSource string `yaml:"lead_source" mapstructure:"lead_source"`
}

// RetryConfig configures provider call retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the per-actor circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml and the environment. Missing
// credentials are not an error here; they surface when a scrape needs them.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. Unlike the default
// ./config.yaml, an explicit file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also accept the provider's conventional variable names.
	for key, envs := range map[string][]string{
		"apify.token": {"OUTREACH_APIFY_TOKEN", "APIFY_API_TOKEN"},
		"exa.key":     {"OUTREACH_EXA_KEY", "EXA_API_KEY"},
	} {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("apify.base_url", "https://api.apify.com")
	v.SetDefault("apify.actors.linkedin", "")
	v.SetDefault("apify.actors.x", "")
	v.SetDefault("apify.actors.tiktok", "")
	v.SetDefault("apify.page_size", 100)
	v.SetDefault("apify.poll_timeout_secs", 300)
	v.SetDefault("apify.wait_secs", 60)
	v.SetDefault("apify.rate_limit", 10)
	v.SetDefault("scrape.default_max_results", 20)
	v.SetDefault("scrape.max_results_limit", 100)
	v.SetDefault("jobs.backend", "memory")
	v.SetDefault("jobs.max_concurrent", 4)
	v.SetDefault("jobs.redis.addr", "localhost:6379")
	v.SetDefault("jobs.redis.prefix", "outreach:job:")
	v.SetDefault("jobs.redis.ttl_hours", 24)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.lead_source", "Outreach Scraper")
	for platform, r := range cost.DefaultRates().Apify {
		prefix := "pricing.apify." + platform + "."
		v.SetDefault(prefix+"per_1k_results", r.PerThousand)
		v.SetDefault(prefix+"overfetch", r.Overfetch)
		v.SetDefault(prefix+"min_items", r.MinItems)
	}
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "serve",
// "search", "notion", "salesforce".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "search":
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			errs = append(errs, "notion.lead_db is required")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" || mode == "search" {
		switch c.Jobs.Backend {
		case "memory", "redis":
		default:
			errs = append(errs, "jobs.backend must be memory or redis")
		}
		if c.Jobs.MaxConcurrent < 1 || c.Jobs.MaxConcurrent > 64 {
			errs = append(errs, "jobs.max_concurrent must be between 1 and 64")
		}
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Scrape.MaxResultsLimit < 1 {
			errs = append(errs, "scrape.max_results_limit must be > 0")
		}
		if c.Scrape.DefaultMaxResults < 1 || c.Scrape.DefaultMaxResults > c.Scrape.MaxResultsLimit {
			errs = append(errs, "scrape.default_max_results must be between 1 and scrape.max_results_limit")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
