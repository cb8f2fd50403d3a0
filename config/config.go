package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "DISPATCH_CONFIG"

// Config holds all settings for the engine. It is built once at startup and
// passed into component constructors; nothing mutates it afterwards.
type Config struct {
	Port        string          `yaml:"port"`
	LogLevel    string          `yaml:"logLevel"`
	DatabaseURL string          `yaml:"databaseUrl"`
	Mail        MailConfig      `yaml:"mail"`
	Quotes      QuotesConfig    `yaml:"quotes"`
	Dispatch    DispatchConfig  `yaml:"dispatch"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
}

// MailConfig selects and parameterizes the outbound mail transport.
type MailConfig struct {
	Provider      string         `yaml:"provider"` // "smtp" or "sendgrid"
	FromEmail     string         `yaml:"fromEmail"`
	FromName      string         `yaml:"fromName"`
	OperatorEmail string         `yaml:"operatorEmail"` // daily summary recipient
	SMTP          SMTPConfig     `yaml:"smtp"`
	SendGrid      SendGridConfig `yaml:"sendgrid"`
}

type SMTPConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	SkipTLSVerify bool   `yaml:"skipTlsVerify"`
}

type SendGridConfig struct {
	APIKey string `yaml:"apiKey"`
}

// QuotesConfig describes the external content provider.
type QuotesConfig struct {
	URL            string `yaml:"url"`
	FetchLimit     int    `yaml:"fetchLimit"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

func (q QuotesConfig) Timeout() time.Duration {
	return time.Duration(q.TimeoutSeconds) * time.Second
}

// DispatchConfig bounds a run's retry policy and concurrency.
type DispatchConfig struct {
	MaxAttempts      int `yaml:"maxAttempts"`
	BaseDelaySeconds int `yaml:"baseDelaySeconds"`
	Workers          int `yaml:"workers"`
	RatePerSec       int `yaml:"ratePerSec"`
}

func (d DispatchConfig) BaseDelay() time.Duration {
	return time.Duration(d.BaseDelaySeconds) * time.Second
}

// SchedulerConfig enables the optional in-process schedule. Leave Cron empty
// when an external scheduler triggers runs over HTTP.
type SchedulerConfig struct {
	Cron string `yaml:"cron"`
}

// Load builds the configuration: defaults, then an optional YAML file, then
// environment variables (a local .env file is honored). Later sources win.
func Load() (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		Mail: MailConfig{
			Provider: "smtp",
			FromName: "MindFuel",
			SMTP:     SMTPConfig{Port: 587},
		},
		Quotes: QuotesConfig{
			URL:            "https://zenquotes.io/api/quotes",
			FetchLimit:     20,
			TimeoutSeconds: 10,
		},
		Dispatch: DispatchConfig{
			MaxAttempts:      3,
			BaseDelaySeconds: 2,
			Workers:          4,
		},
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.DatabaseURL, "DATABASE_URL")

	setString(&c.Mail.Provider, "MAIL_PROVIDER")
	setString(&c.Mail.FromEmail, "FROM_EMAIL")
	setString(&c.Mail.FromName, "FROM_NAME")
	setString(&c.Mail.OperatorEmail, "ADMIN_EMAIL")
	setString(&c.Mail.SMTP.Host, "SMTP_HOST")
	setInt(&c.Mail.SMTP.Port, "SMTP_PORT")
	setString(&c.Mail.SMTP.Username, "SMTP_USER")
	setString(&c.Mail.SMTP.Password, "SMTP_PASSWORD")
	if os.Getenv("SMTP_SKIP_TLS_VERIFY") == "YES" {
		c.Mail.SMTP.SkipTLSVerify = true
	}
	setString(&c.Mail.SendGrid.APIKey, "SENDGRID_API_KEY")

	setString(&c.Quotes.URL, "QUOTES_API_URL")
	setInt(&c.Quotes.FetchLimit, "QUOTES_FETCH_LIMIT")
	setInt(&c.Quotes.TimeoutSeconds, "QUOTES_TIMEOUT_SECONDS")

	setInt(&c.Dispatch.MaxAttempts, "EMAIL_MAX_RETRIES")
	setInt(&c.Dispatch.BaseDelaySeconds, "EMAIL_RETRY_BASE_SECONDS")
	setInt(&c.Dispatch.Workers, "DISPATCH_WORKERS")
	setInt(&c.Dispatch.RatePerSec, "DISPATCH_RATE_PER_SEC")

	setString(&c.Scheduler.Cron, "DISPATCH_CRON")
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Mail.FromEmail == "" {
		return fmt.Errorf("FROM_EMAIL is required")
	}
	if c.Mail.OperatorEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}
	switch c.Mail.Provider {
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp provider")
		}
	case "sendgrid":
		if c.Mail.SendGrid.APIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("unsupported mail provider: %s", c.Mail.Provider)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
