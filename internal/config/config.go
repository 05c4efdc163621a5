// Package config loads quizforge settings from a YAML file, QUIZFORGE_*
// environment variables and command-line flags, in that increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/logging"
	"github.com/abhisek/quizforge/internal/quizgen"
)

// EnvPrefix is prepended to every environment override, e.g.
// QUIZFORGE_LLM_PROVIDER for llm.provider.
const EnvPrefix = "QUIZFORGE"

// Config is the complete application configuration.
type Config struct {
	// DB is the SQLite file path. Empty means store.DefaultDBPath.
	DB string `mapstructure:"db"`

	LLM        llm.Config     `mapstructure:"llm"`
	Generation quizgen.Config `mapstructure:"generation"`
	Log        logging.Config `mapstructure:"log"`
	Server     ServerConfig   `mapstructure:"server"`

	// source records where the config file came from, if any.
	source string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AutoSave persists every quiz generated through the API.
	AutoSave bool `mapstructure:"auto_save"`
}

// Source returns the config file that was read, or "" when none was found.
func (c *Config) Source() string {
	return c.source
}

// New returns a viper instance with defaults and environment bindings
// installed. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and decodes the merged settings. An explicit
// file set with v.SetConfigFile must exist; otherwise quizforge.yaml is
// searched for in the working directory and $XDG_CONFIG_HOME/quizforge,
// and a missing file is not an error.
//
// When the configured provider has no credentials, the standard
// *_API_KEY variables are probed via llm.DiscoverConfig.
func Load(v *viper.Viper) (*Config, error) {
	explicit := v.ConfigFileUsed() != ""
	if !explicit {
		v.SetConfigName("quizforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.source = v.ConfigFileUsed()

	if !cfg.LLM.HasCredentials() && !providerChosen(v) {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.RateLimit = cfg.LLM.RateLimit
			discovered.MaxTokens = cfg.LLM.MaxTokens
			discovered.Temperature = cfg.LLM.Temperature
			cfg.LLM = discovered
		}
	}

	if err := cfg.Generation.Validate(); err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}
	return &cfg, nil
}

// providerChosen reports whether the provider was named explicitly rather
// than left at its default.
func providerChosen(v *viper.Viper) bool {
	if v.InConfig("llm.provider") {
		return true
	}
	_, ok := os.LookupEnv(EnvPrefix + "_LLM_PROVIDER")
	return ok
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "quizforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quizforge")
}

// setDefaults registers every key so that environment variables are seen
// by Unmarshal even when the config file does not mention the key.
func setDefaults(v *viper.Viper) {
	l := llm.DefaultConfig()
	v.SetDefault("db", "")

	v.SetDefault("llm.provider", l.Provider)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", l.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", l.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", l.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", l.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.openrouter.app_name", l.OpenRouter.AppName)
	v.SetDefault("llm.openrouter.site_url", "")
	v.SetDefault("llm.ollama.server_url", l.Ollama.ServerURL)
	v.SetDefault("llm.ollama.model", l.Ollama.Model)
	v.SetDefault("llm.rate_limit.requests_per_second", l.RateLimit.RequestsPerSecond)
	v.SetDefault("llm.rate_limit.burst", l.RateLimit.Burst)
	v.SetDefault("llm.max_tokens", l.MaxTokens)
	v.SetDefault("llm.temperature", l.Temperature)

	g := quizgen.DefaultConfig()
	v.SetDefault("generation.max_attempts", g.MaxAttempts)
	v.SetDefault("generation.initial_wait", g.InitialWait)
	v.SetDefault("generation.max_wait", g.MaxWait)
	v.SetDefault("generation.multiplier", g.Multiplier)
	v.SetDefault("generation.call_timeout", g.CallTimeout)
	v.SetDefault("generation.debounce_window", g.DebounceWindow)
	v.SetDefault("generation.max_avoid_prompts", g.MaxAvoidPrompts)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.auto_save", true)
}
