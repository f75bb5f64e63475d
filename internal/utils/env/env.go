// Package env provides type-safe environment variable parsing with validation.
package env

import "os"

// Get retrieves an environment variable with a default value.
// If the variable is not set or parsing fails, returns the default value.
func Get[T any](key string, defaultValue T, parser func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	parsed, err := parser(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetOptional retrieves an optional environment variable.
// Returns the default value when the variable is not set, and an error when
// it is set but cannot be parsed.
func GetOptional[T any](key string, defaultValue T, parser func(string) (T, error)) (T, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}

	parsed, err := parser(value)
	if err != nil {
		return defaultValue, &EnvError{
			Key:   key,
			Err:   ErrEnvParsing,
			Cause: err,
		}
	}
	return parsed, nil
}

// GetRequired retrieves a required environment variable.
// Returns an error if the variable is not set or parsing fails.
func GetRequired[T any](key string, parser func(string) (T, error)) (T, error) {
	var zero T

	value, ok := os.LookupEnv(key)
	if !ok {
		return zero, &EnvError{
			Key: key,
			Err: ErrEnvMissing,
		}
	}

	parsed, err := parser(value)
	if err != nil {
		return zero, &EnvError{
			Key:   key,
			Err:   ErrEnvParsing,
			Cause: err,
		}
	}
	return parsed, nil
}
