package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("config: failed to parse environment variables")

	// ErrLoadingEnvFile is returned when an explicitly requested dotenv file cannot be read.
	ErrLoadingEnvFile = errors.New("config: failed to load env file")
)
