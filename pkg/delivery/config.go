package delivery

import (
	"time"

	"github.com/daoboard/notifier/pkg/email"
)

// Config holds engine knobs and the provider configuration.
type Config struct {
	Disabled      bool          `env:"EMAIL_DISABLED"`
	DryRun        bool          `env:"EMAIL_DRY_RUN"`
	RoundDelay    time.Duration `env:"EMAIL_QUEUE_DELAY" envDefault:"1s"`
	MaxConcurrent int           `env:"EMAIL_MAX_CONCURRENT" envDefault:"3"`
	MaxRetry      int           `env:"EMAIL_MAX_RETRY" envDefault:"3"`
	RetryDelay    time.Duration `env:"EMAIL_RETRY_DELAY" envDefault:"2s"`
	BatchSize     int           `env:"EMAIL_BATCH_SIZE" envDefault:"25"`
	BatchDelay    time.Duration `env:"EMAIL_BATCH_DELAY" envDefault:"500ms"`
	BatchAttempts int           `env:"EMAIL_BATCH_ATTEMPTS" envDefault:"3"`
	QueueFile     string        `env:"EMAIL_QUEUE_FILE" envDefault:"data/email-queue.json"`

	Providers email.Config
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = 1
	}
	if c.MaxRetry < 1 {
		c.MaxRetry = 1
	}
	if c.BatchSize < 1 {
		c.BatchSize = 25
	}
	if c.BatchAttempts < 1 {
		c.BatchAttempts = 1
	}
	return c
}
