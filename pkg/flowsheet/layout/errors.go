package layout

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned for configuration files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown layout file format")

// ErrUnknownPreset is returned when a preset name is not defined.
var ErrUnknownPreset = errors.New("unknown layout preset")

// ConfigError represents an invalid setting in a layout configuration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("layout config: %v", e.Err)
	}
	return fmt.Sprintf("layout config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{
		Field: field,
		Err:   err,
	}
}
