package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option adjusts how Load reads the environment.
type Option func(*options)

type options struct {
	files    []string
	optional bool
	prefix   string
	environ  map[string]string
}

// WithEnvFiles loads the given dotenv files before parsing. Variables that
// are already set in the process environment win over file values.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = append(o.files, files...) }
}

// WithOptionalEnvFiles is like WithEnvFiles but ignores missing files.
func WithOptionalEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
		o.optional = true
	}
}

// WithPrefix only considers variables starting with prefix and strips it
// before matching tags.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnviron parses from the given map instead of the process
// environment. Mainly useful in tests.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// Load parses environment variables into a new T.
func Load[T any](opts ...Option) (T, error) {
	var cfg T
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	for _, file := range o.files {
		if err := godotenv.Load(file); err != nil {
			if o.optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return cfg, errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", file, err))
		}
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad works like Load but panics on failure. Intended for process
// startup where a broken configuration should stop the binary.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
