package config

import (
	"time"
)

// Character holds a persona's system prompt and sampling defaults. Extra
// fields are carried through to the request payload verbatim, to tolerate
// provider-specific extensions.
type Character struct {
	SystemPrompt     string                 `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	Temperature      float64                `mapstructure:"temperature" yaml:"temperature"`
	TopP             float64                `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens        int                    `mapstructure:"max_tokens" yaml:"max_tokens"`
	PresencePenalty  float64                `mapstructure:"presence_penalty" yaml:"presence_penalty"`
	FrequencyPenalty float64                `mapstructure:"frequency_penalty" yaml:"frequency_penalty"`
	PreferredKey     string                 `mapstructure:"preferred_key" yaml:"preferred_key,omitempty"`
	Extra            map[string]interface{} `mapstructure:"extra" yaml:"extra,omitempty"`
}

// SessionConfig bounds the tool loop and the tool surface
type SessionConfig struct {
	MaxRounds        int    `mapstructure:"max_rounds" yaml:"max_rounds"`
	MaxParallelTools int    `mapstructure:"max_parallel_tools" yaml:"max_parallel_tools"`
	EnableTools      bool   `mapstructure:"enable_tools" yaml:"enable_tools"`
	WorkDir          string `mapstructure:"work_dir" yaml:"work_dir,omitempty"`
	// StreamTimeout bounds how long a non-interactive turn may stay open
	// waiting on a stalled stream, in seconds. 0 means no deadline.
	StreamTimeout int `mapstructure:"stream_timeout" yaml:"stream_timeout"`
}

// StoreConfig locates the sqlite database
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// RetryConfig holds HTTP retry configuration, in seconds where durations apply
type RetryConfig struct {
	MaxAttempts       int `mapstructure:"max_attempts" yaml:"max_attempts"`
	Multiplier        int `mapstructure:"multiplier" yaml:"multiplier"`
	MaxWaitPerAttempt int `mapstructure:"max_wait_per_attempt" yaml:"max_wait_per_attempt"`
	MaxTotalWait      int `mapstructure:"max_total_wait" yaml:"max_total_wait"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	LogDir       string `mapstructure:"log_dir" yaml:"log_dir,omitempty"`
	FileLevel    string `mapstructure:"file_level" yaml:"file_level"`
	ConsoleLevel string `mapstructure:"console_level" yaml:"console_level"`
	Console      bool   `mapstructure:"console" yaml:"console"`
}

// GlobalConfig is the top-level configuration
type GlobalConfig struct {
	DefaultCharacter string               `mapstructure:"default_character" yaml:"default_character"`
	Characters       map[string]Character `mapstructure:"characters" yaml:"characters,omitempty"`
	Session          SessionConfig        `mapstructure:"session" yaml:"session"`
	Store            StoreConfig          `mapstructure:"store" yaml:"store"`
	Retry            RetryConfig          `mapstructure:"retry" yaml:"retry"`
	Logging          LoggingConfig        `mapstructure:"logging" yaml:"logging"`
}

// StreamTimeout returns the configured stream deadline as a duration
func (c SessionConfig) StreamTimeoutDuration() time.Duration {
	return time.Duration(c.StreamTimeout) * time.Second
}

// Character resolves a character by name, falling back to the default.
// The boolean reports whether the name (or default) was actually configured.
func (c *GlobalConfig) Character(name string) (Character, string, bool) {
	if name == "" {
		name = c.DefaultCharacter
	}
	if name == "" {
		name = "default"
	}
	ch, ok := c.Characters[name]
	return ch, name, ok
}
