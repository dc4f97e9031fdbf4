package config

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is returned by Get and Set for settings that do not exist.
var ErrUnknownKey = errors.New("unknown setting")

// LoadError reports a settings file that exists but could not be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load settings from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
