// Package opsapi exposes delivery diagnostics, the auto-user audit log
// and per-user notification inboxes over HTTP.
//
//	r := opsapi.Router(opsapi.Options{
//		Delivery:  engine,
//		Inbox:     store,
//		AutoUsers: auditLog,
//		Checks:    []opsapi.Check{{Name: "mongo", Fn: mongo.Healthcheck(db)}},
//		Logger:    log,
//	})
//
// Routes:
//
//	GET    /healthz
//	GET    /readyz
//	GET    /ops/email
//	GET    /ops/auto-users
//	DELETE /ops/auto-users
//	POST   /ops/records/{recordID}/sync-team
//	GET    /users/{userID}/notifications
//	POST   /users/{userID}/notifications/read-all
//	POST   /users/{userID}/notifications/{notificationID}/read
package opsapi
