package mongo

import "errors"

var (
	ErrNotConfigured     = errors.New("mongo: MONGODB_URL is not set")
	ErrConnect           = errors.New("mongo: failed to connect")
	ErrHealthcheckFailed = errors.New("mongo: healthcheck failed")
)
