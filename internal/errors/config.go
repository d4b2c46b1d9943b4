package errors

import (
	"fmt"
)

// ConfigurationError is raised when configuration is invalid or missing.
// Nothing has been streamed when this fires, so there is no partial state.
type ConfigurationError struct {
	*ConvoError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		ConvoError: &ConvoError{
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap returns the embedded base error
func (e *ConfigurationError) Unwrap() error {
	return e.ConvoError
}

// NewMissingAPIKeyError is raised when no API key could be resolved, neither
// from the request nor from the character's preferred key.
func NewMissingAPIKeyError(character string) *ConfigurationError {
	return &ConfigurationError{
		ConvoError: &ConvoError{
			Message: "No API key available for this request",
			Context: &ErrorContext{
				Operation: "Resolving API key",
				Component: "Session",
				Details: map[string]interface{}{
					"character": character,
				},
				Suggestions: []string{
					"Add a key: convo keys add <name> --model <model> --endpoint <url>",
					"Pass one explicitly with --key <name>",
					"Set preferred_key on the character in your config",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// NewUnknownCharacterError is raised when the requested character is not configured
func NewUnknownCharacterError(name string) *ConfigurationError {
	return &ConfigurationError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Unknown character: %s", name),
			Context: &ErrorContext{
				Operation: "Loading character",
				Component: "Config",
				Suggestions: []string{
					"List configured characters with: convo config show",
					"Add the character under characters.<name> in ~/.convo.yaml",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// MissingEnvVarError is raised when a required environment variable is not set
type MissingEnvVarError struct {
	*ConvoError
}

// NewMissingEnvVarError creates a new missing environment variable error
func NewMissingEnvVarError(varName, description string) *MissingEnvVarError {
	return &MissingEnvVarError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Required environment variable '%s' is not set", varName),
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Environment",
				Details: map[string]interface{}{
					"variable":    varName,
					"description": description,
				},
				Suggestions: []string{
					fmt.Sprintf("Export the variable: export %s='your-value'", varName),
					"Add it to your .env file",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap returns the embedded base error
func (e *MissingEnvVarError) Unwrap() error {
	return e.ConvoError
}

// ConfigFileError is raised when a configuration file cannot be read or parsed
type ConfigFileError struct {
	*ConvoError
}

// NewConfigFileError creates a new config file error
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		ConvoError: &ConvoError{
			Message: fmt.Sprintf("Failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Config File",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"Check that the file exists and is readable",
					"Validate YAML syntax",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// Unwrap returns the embedded base error
func (e *ConfigFileError) Unwrap() error {
	return e.ConvoError
}
