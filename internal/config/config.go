package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Credential sources reported at startup.
const (
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceMissing = "missing"
)

// Config holds process settings read from the environment and flags.
type Config struct {
	Host string `env:"CHAT_API_HOST" env-default:"0.0.0.0" env-description:"listen host"`
	Port string `env:"CHAT_API_PORT" env-default:"8000" env-description:"listen port"`

	OpenAIKey          string `env:"OPENAI_API_KEY" env-description:"completion provider credential; empty disables /chat/openai"`
	OpenAIKeyFile      string `env:"OPENAI_API_KEY_FILE" env-description:"file holding the credential, read when OPENAI_API_KEY is unset"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1" env-description:"completion provider base URL"`
	OpenAISystemPrompt string `env:"OPENAI_SYSTEM_PROMPT" env-default:"You are a helpful assistant." env-description:"system prompt sent before the user turn"`

	LogDir   string `env:"LOG_DIR" env-default:"logs" env-description:"directory for rotated log files"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"logrus level"`

	MetricsToken     string `env:"METRICS_TOKEN" env-description:"bearer token required on /metrics"`
	MetricsAllowlist string `env:"METRICS_ALLOWLIST" env-description:"comma separated CIDRs allowed on /metrics"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s" env-description:"graceful shutdown deadline"`

	// CredentialSource is set by Finalize: "env", "file" or "missing".
	CredentialSource string
}

// Load reads an optional .env file, then the environment. Call Finalize once flags are parsed.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		desc, _ := cleanenv.GetDescription(&cfg, nil)
		return Config{}, fmt.Errorf("config: %w; %s", err, desc)
	}
	return cfg, nil
}

// BindFlags registers command-line overrides for the most common settings.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "host to listen on")
	fs.StringVar(&c.Port, "port", c.Port, "port to listen on")
	fs.StringVar(&c.OpenAIKey, "openai-key", c.OpenAIKey, "OpenAI API key")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base", c.OpenAIBaseURL, "OpenAI base URL")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "log directory")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
}

// Finalize resolves the provider credential. A missing credential is not an error;
// it only disables the completion proxy.
func (c *Config) Finalize() error {
	return c.resolveCredential()
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strings.TrimPrefix(c.Port, ":"))
}

// ProviderEnabled reports whether a completion provider credential is configured.
func (c Config) ProviderEnabled() bool {
	return strings.TrimSpace(c.OpenAIKey) != ""
}

func (c *Config) resolveCredential() error {
	c.OpenAIKey = strings.TrimSpace(c.OpenAIKey)
	if c.OpenAIKey != "" {
		c.CredentialSource = SourceEnv
		return nil
	}
	if c.OpenAIKeyFile == "" {
		c.CredentialSource = SourceMissing
		return nil
	}

	raw, err := os.ReadFile(c.OpenAIKeyFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.CredentialSource = SourceMissing
			return nil
		}
		return fmt.Errorf("read credential file: %w", err)
	}
	c.OpenAIKey = strings.TrimSpace(string(raw))
	if c.OpenAIKey == "" {
		c.CredentialSource = SourceMissing
		return nil
	}
	c.CredentialSource = SourceFile
	return nil
}
