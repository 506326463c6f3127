package redis

import "errors"

var (
	ErrNotConfigured     = errors.New("redis: REDIS_URL is not set")
	ErrInvalidURL        = errors.New("redis: invalid connection URL")
	ErrNotReady          = errors.New("redis: server did not become ready")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
