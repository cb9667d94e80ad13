package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "GROWTH_RANKER_CONFIG"
	logLevelEnv     = "LOG_LEVEL"
	llmProviderEnv  = "LLM_PROVIDER"
	llmModelEnv     = "LLM_MODEL"
	googleAPIKeyEnv = "GOOGLE_API_KEY"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	openAIAPIKeyEnv = "OPENAI_API_KEY"
	databaseDSNEnv  = "DATABASE_DSN"
	telegramToken   = "TELEGRAM_BOT_TOKEN"
	telegramChatID  = "TELEGRAM_CHAT_ID"
)

// LLM providers understood by the application wiring.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderInference = "inference"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	LLM           LLMConfig          `yaml:"llm"`
	Batch         BatchConfig        `yaml:"batch"`
	Sources       []SourceConfig     `yaml:"sources"`
	Database      DatabaseConfig     `yaml:"database"`
	Export        ExportConfig       `yaml:"export"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LLMConfig describes the moat collaborator. Credentials live here and are
// handed to the client constructors.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Endpoint    string        `yaml:"endpoint"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the collaborator.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	ConsecutiveFailures uint32        `yaml:"consecutiveFailures"`
	OpenTimeout         time.Duration `yaml:"openTimeout"`
}

// BatchConfig controls the batch engine.
type BatchConfig struct {
	Limit       int           `yaml:"limit"`
	Delay       time.Duration `yaml:"delay"`
	Concurrency int           `yaml:"concurrency"`
}

// SourceConfig describes one company source and the loader reading it.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Loader  string            `yaml:"loader"`
	Path    string            `yaml:"path"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// DatabaseConfig describes Postgres connection details. Empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ExportConfig sets where CSV exports are written.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines how often scheduled runs fire.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig sets the listen address of the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration from GROWTH_RANKER_CONFIG (if set) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if non-empty) and applies environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
		if v := os.Getenv(googleAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	case ProviderOpenAI:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.LLM.APIKey = v
		}
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramToken); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatID); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.LLM.Provider != "" && override.LLM.Provider != base.LLM.Provider {
		// endpoint and model defaults belong to the default provider
		base.LLM.Endpoint = ""
		base.LLM.Model = ""
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Temperature != 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}
	if override.LLM.Breaker.Enabled {
		base.LLM.Breaker.Enabled = true
	}
	if override.LLM.Breaker.ConsecutiveFailures > 0 {
		base.LLM.Breaker.ConsecutiveFailures = override.LLM.Breaker.ConsecutiveFailures
	}
	if override.LLM.Breaker.OpenTimeout > 0 {
		base.LLM.Breaker.OpenTimeout = override.LLM.Breaker.OpenTimeout
	}

	if override.Batch.Limit != 0 {
		base.Batch.Limit = override.Batch.Limit
	}
	if override.Batch.Delay != 0 {
		base.Batch.Delay = override.Batch.Delay
	}
	if override.Batch.Concurrency > 0 {
		base.Batch.Concurrency = override.Batch.Concurrency
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Export.Dir != "" {
		base.Export.Dir = override.Export.Dir
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			Timeout:     30 * time.Second,
			Breaker: BreakerConfig{
				Enabled:             false,
				ConsecutiveFailures: 3,
				OpenTimeout:         60 * time.Second,
			},
		},
		Batch: BatchConfig{
			Limit:       20,
			Delay:       500 * time.Millisecond,
			Concurrency: 1,
		},
		Sources: []SourceConfig{
			{Name: "companies", Loader: "json", Path: "data/companies.json"},
		},
		Database:  DatabaseConfig{DSN: ""},
		Export:    ExportConfig{Dir: "data/output"},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Metrics:   MetricsConfig{Addr: ":9108"},
	}
}
