package notifications

import "time"

// Config controls the store and its email mirror.
type Config struct {
	Capacity       int           `env:"NOTIFY_CAPACITY" envDefault:"1000"`
	AdminEmail     string        `env:"NOTIFY_ADMIN_EMAIL"`
	BroadcastAll   bool          `env:"NOTIFY_BROADCAST_ALL" envDefault:"false"`
	ErrorCooldown  time.Duration `env:"NOTIFY_ERROR_COOLDOWN" envDefault:"5m"`
	MirrorEmail    bool          `env:"NOTIFY_MIRROR_EMAIL" envDefault:"true"`
	MirrorAttempts int           `env:"NOTIFY_MIRROR_ATTEMPTS" envDefault:"3"`
	QueueSize      int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
}

const (
	defaultCapacity  = 1000
	defaultCooldown  = 5 * time.Minute
	defaultQueueSize = 256

	// ListLimit caps the entries returned by ListForUser.
	ListLimit = 200
)

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	if c.ErrorCooldown <= 0 {
		c.ErrorCooldown = defaultCooldown
	}
	if c.MirrorAttempts <= 0 {
		c.MirrorAttempts = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	return c
}
