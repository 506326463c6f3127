// Package notifications is the in-app notification store.
//
// A Store keeps the most recent notifications in memory, newest first,
// bounded by Config.Capacity. Each notification is addressed either to
// every user (All) or to an explicit set of user ids (Users). Readers see
// a notification as soon as Add returns:
//
//	store := notifications.NewStore(cfg,
//		notifications.WithStorage(notifications.NewMongoStorage(db, "")),
//		notifications.WithMailer(engine),
//		notifications.WithDirectory(users, records),
//	)
//	if err := store.Start(ctx); err != nil {
//		return err
//	}
//	defer store.Shutdown(context.Background())
//
//	n, err := store.Broadcast(ctx, changes.RenderCreated(record, changes.Context{}))
//
// Persistence and email mirroring run on a background worker and never
// fail the caller. When mirroring gives up, the store adds one system
// notification per error code and cooldown window; that notification
// carries DataSkipEmail so it is never mirrored itself.
package notifications
