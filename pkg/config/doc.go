// Package config loads typed configuration from environment variables.
//
// Structs declare their variables with caarlos0/env tags:
//
//	type Config struct {
//		BatchSize int           `env:"EMAIL_BATCH_SIZE" envDefault:"25"`
//		Delay     time.Duration `env:"EMAIL_QUEUE_DELAY" envDefault:"1s"`
//	}
//
//	cfg, err := config.Load[Config]()
//
// Load optionally reads dotenv files first (WithEnvFiles) and can restrict
// parsing to a variable prefix (WithPrefix). Every call parses afresh; there
// is no process-wide cache, so tests can construct independent configs.
package config
