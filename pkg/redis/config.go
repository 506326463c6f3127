package redis

import "time"

// Config selects the Redis server holding the email job snapshot. An
// empty URL disables Redis and the file snapshot is used instead.
type Config struct {
	URL            string        `env:"REDIS_URL"`
	SnapshotKey    string        `env:"REDIS_SNAPSHOT_KEY" envDefault:"notifier:email-queue"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool { return c.URL != "" }
