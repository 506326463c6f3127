// Package mongo opens the MongoDB database backing notification
// persistence and the user and record directories.
//
//	cfg, err := config.Load[mongo.Config]()
//	if err != nil {
//		return err
//	}
//	if cfg.Enabled() {
//		db, err := mongo.Open(ctx, cfg, log)
//		if err != nil {
//			return err
//		}
//		defer mongo.Close(context.Background(), db)
//	}
//
// Healthcheck adapts the connection into a readiness probe.
package mongo
