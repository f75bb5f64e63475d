package env

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrEnvMissing = errors.New("environment variable missing")
	ErrEnvParsing = errors.New("environment variable parsing failed")
)

// EnvError represents an environment variable related error.
// Cause carries the underlying parser failure when there is one.
type EnvError struct {
	Key   string
	Err   error
	Cause error
}

func (e *EnvError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("environment variable %s: %v: %v", e.Key, e.Err, e.Cause)
	}
	return fmt.Sprintf("environment variable %s: %v", e.Key, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}
