package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/user/convo/internal/errors"
)

// Loader loads configuration from layered sources.
// Precedence: CLI overrides > ./.convo/config.yaml > ~/.convo.yaml > env > defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	// Load .env if present
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("CONVO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_character", "default")
	v.SetDefault("session.max_rounds", 5)
	v.SetDefault("session.max_parallel_tools", 4)
	v.SetDefault("session.enable_tools", true)
	v.SetDefault("session.stream_timeout", 300)
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.multiplier", 1)
	v.SetDefault("retry.max_wait_per_attempt", 60)
	v.SetDefault("retry.max_total_wait", 300)
	v.SetDefault("logging.file_level", "info")
	v.SetDefault("logging.console_level", "warn")
	v.SetDefault("logging.console", false)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".convo/convo.db"
	}
	return filepath.Join(home, ".convo", "convo.db")
}

// Load reads all configuration layers and decodes them
func (l *Loader) Load(cliOverrides map[string]interface{}) (*GlobalConfig, error) {
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}
	if err := l.loadProjectConfig(); err != nil {
		return nil, err
	}
	for key, value := range cliOverrides {
		if value != nil {
			l.v.Set(key, value)
		}
	}

	cfg := &GlobalConfig{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapError(err, "Failed to decode configuration", errors.ExitConfigError)
	}

	if cfg.Characters == nil {
		cfg.Characters = map[string]Character{}
	}
	if _, ok := cfg.Characters["default"]; !ok {
		cfg.Characters["default"] = DefaultCharacter()
	}
	return cfg, nil
}

// DefaultCharacter returns the built-in persona used when none is configured
func DefaultCharacter() Character {
	return Character{
		Temperature: 0.7,
		TopP:        1.0,
		MaxTokens:   4096,
	}
}

// loadGlobalConfig loads ~/.convo.yaml if it exists
func (l *Loader) loadGlobalConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".convo.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return errors.NewConfigFileError(path, err)
	}
	return nil
}

// loadProjectConfig merges ./.convo/config.yaml if it exists
func (l *Loader) loadProjectConfig() error {
	path := filepath.Join(".convo", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(path, err)
	}
	return nil
}
