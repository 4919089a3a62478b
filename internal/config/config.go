package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/leofalp/antitok/core/cost"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultOpenAIModel    = "gpt-4"
	defaultAnthropicModel = "claude-3-opus-20240229"
)

// Config is the full runtime configuration of the service.
type Config struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`

	OpenAI    Credentials `toml:"openai"`
	Anthropic Credentials `toml:"anthropic"`

	// Cost prices the configured model; zero disables cost estimates.
	Cost cost.ModelCost `toml:"cost"`

	Client  ClientConfig  `toml:"client"`
	Server  ServerConfig  `toml:"server"`
	Cache   CacheConfig   `toml:"cache"`
	Content ContentConfig `toml:"content"`
	Log     LogConfig     `toml:"log"`
}

// Credentials are the key and endpoint of one provider.
type Credentials struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// ClientConfig tunes the model client middleware.
type ClientConfig struct {
	Timeout    time.Duration `toml:"timeout"`
	MaxRetries int           `toml:"max_retries"`
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	RateLimit       float64       `toml:"rate_limit"` // requests per second per client
	RateBurst       int           `toml:"rate_burst"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// CacheConfig selects Redis when RedisAddr is set, in-memory otherwise.
type CacheConfig struct {
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	TTL           time.Duration `toml:"ttl"`
}

// ContentConfig holds the content service defaults.
type ContentConfig struct {
	FeedCount       int    `toml:"feed_count"`
	SimilarCount    int    `toml:"similar_count"`
	DefaultLanguage string `toml:"default_language"`
}

// LogConfig is passed to slogobs; empty fields defer to LOG_LEVEL/LOG_FORMAT.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		Temperature: 0.7,
		MaxTokens:   1000,
		Client: ClientConfig{
			Timeout:    2 * time.Minute,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimit:       2,
			RateBurst:       10,
			AllowedOrigins:  []string{"*"},
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Content: ContentConfig{
			FeedCount:       2,
			SimilarCount:    5,
			DefaultLanguage: "English",
		},
	}
}

// Load builds the configuration in layers: defaults, then the TOML file at
// path (or $ANTITOK_CONFIG), then variables from .env, then the process
// environment. Variables already in the environment win over .env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ANTITOK_CONFIG")
	}
	if path != "" {
		if err := cfg.LoadTOML(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes path over the current values. Unknown keys are an error so
// typos do not pass silently.
func (c *Config) LoadTOML(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides copies recognised environment variables into c:
//
//	AI_PROVIDER, ANTITOK_MODEL, ANTITOK_TEMPERATURE, ANTITOK_MAX_TOKENS
//	OPENAI_API_KEY, OPENAI_API_BASE_URL, ANTHROPIC_API_KEY, ANTHROPIC_API_BASE_URL
//	ANTITOK_ADDR (or PORT), ANTITOK_RATE_LIMIT, ANTITOK_ALLOWED_ORIGINS
//	REDIS_ADDR, REDIS_PASSWORD, ANTITOK_LOG_LEVEL, ANTITOK_LOG_FORMAT
func (c *Config) ApplyEnvOverrides() error {
	setString(&c.Provider, "AI_PROVIDER")
	setString(&c.Model, "ANTITOK_MODEL")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_API_BASE_URL")
	setString(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.Anthropic.BaseURL, "ANTHROPIC_API_BASE_URL")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Log.Level, "ANTITOK_LOG_LEVEL")
	setString(&c.Log.Format, "ANTITOK_LOG_FORMAT")

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	setString(&c.Server.Addr, "ANTITOK_ADDR")

	if origins := os.Getenv("ANTITOK_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	if raw := os.Getenv("ANTITOK_TEMPERATURE"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("ANTITOK_TEMPERATURE: %w", err)
		}
		c.Temperature = value
	}
	if raw := os.Getenv("ANTITOK_MAX_TOKENS"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("ANTITOK_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = value
	}
	if raw := os.Getenv("ANTITOK_RATE_LIMIT"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("ANTITOK_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = value
	}
	return nil
}

func (c *Config) fillDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
}

// DefaultModel is the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return defaultAnthropicModel
	}
	return defaultOpenAIModel
}

// Credentials returns the key and base URL of the selected provider.
func (c *Config) Credentials() Credentials {
	if c.Provider == ProviderAnthropic {
		return c.Anthropic
	}
	return c.OpenAI
}

func setString(target *string, env string) {
	if value := os.Getenv(env); value != "" {
		*target = value
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks ranges and enumerations. API keys are not required here;
// the provider reports a missing key on the first request, as the health
// endpoint must still come up.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !slices.Contains([]string{ProviderOpenAI, ProviderAnthropic}, c.Provider) {
		add("provider", "unknown provider %q, must be one of: openai, anthropic", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		add("temperature", "must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		add("max_tokens", "must be positive, got %d", c.MaxTokens)
	}
	if c.Cost.InputPerMillion < 0 || c.Cost.OutputPerMillion < 0 {
		add("cost", "prices must not be negative")
	}
	if c.Client.Timeout < 0 {
		add("client.timeout", "must not be negative")
	}
	if c.Client.MaxRetries < 0 {
		add("client.max_retries", "must not be negative")
	}
	if c.Server.Addr == "" {
		add("server.addr", "must not be empty")
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		add("server.rate_burst", "must be positive when rate_limit is set")
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes", "must be positive")
	}
	if c.Cache.TTL < 0 {
		add("cache.ttl", "must not be negative")
	}
	if c.Content.FeedCount <= 0 || c.Content.FeedCount > 20 {
		add("content.feed_count", "must be between 1 and 20, got %d", c.Content.FeedCount)
	}
	if c.Content.SimilarCount <= 0 || c.Content.SimilarCount > 20 {
		add("content.similar_count", "must be between 1 and 20, got %d", c.Content.SimilarCount)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
