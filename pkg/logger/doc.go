// Package logger builds the slog loggers used across the notifier and keeps
// attribute keys consistent through small constructor helpers.
//
//	log := logger.New(logger.WithEnvironment(environment.Production, "notifier"))
//	log.InfoContext(ctx, "job delivered",
//	    logger.Component("delivery"),
//	    logger.JobID(job.ID),
//	    logger.Recipients(len(job.Recipients)),
//	)
//
// Helpers such as Error return an empty attribute for nil input, so
//
//	log.Warn("persist failed", logger.Error(err))
//
// needs no nil check. Recipient helpers only ever take counts; raw addresses
// are never logged.
package logger
