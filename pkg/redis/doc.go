// Package redis connects to the Redis server that can hold the email
// delivery job snapshot.
//
//	cfg, err := config.Load[redis.Config]()
//	if err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	snapshot := delivery.NewRedisSnapshot(client, cfg.SnapshotKey, log)
package redis
