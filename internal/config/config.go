package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	NewsAPIKey     string `envconfig:"NEWS_API_KEY"`
	NewsAPIBaseURL string `envconfig:"NEWS_API_BASE_URL" default:"https://newsapi.org/v2"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// CacheTTL bounds the outer (display) tier. ModuleCacheTTL bounds the
	// inner tier; zero keeps entries until an explicit clear.
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	ModuleCacheTTL  time.Duration `envconfig:"MODULE_CACHE_TTL" default:"0s"`
	CleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"1h"`

	TokenWarnThreshold int  `envconfig:"TOKEN_WARN_THRESHOLD" default:"8000"`
	DefaultMaxArticles int  `envconfig:"DEFAULT_MAX_ARTICLES" default:"20"`
	SingleFlight       bool `envconfig:"SINGLE_FLIGHT" default:"true"`

	ServerPort         string        `envconfig:"SERVER_PORT" default:"8080"`
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"2h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// ConfigurationError reports required settings that are missing or invalid.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: missing required environment variables: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Load reads the given .env files, then processes the environment. With no
// files given, ./.env is read when present; an explicitly named file must
// exist.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigurationError{Err: fmt.Errorf("failed to load env file: %w", err)}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to process config: %w", err)}
	}

	return &cfg, nil
}

// Validate checks that both upstream API keys are present.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.NewsAPIKey) == "" {
		missing = append(missing, "NEWS_API_KEY")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}

	if c.CacheTTL < 0 || c.ModuleCacheTTL < 0 {
		return &ConfigurationError{Err: errors.New("cache TTLs must not be negative")}
	}
	if c.TokenWarnThreshold <= 0 {
		return &ConfigurationError{Err: fmt.Errorf("TOKEN_WARN_THRESHOLD must be positive, got %d", c.TokenWarnThreshold)}
	}

	return nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
