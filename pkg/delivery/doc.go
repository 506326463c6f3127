// Package delivery is the email delivery engine.
//
// An Engine accepts send requests, filters recipients, persists each job
// to a SnapshotStore and hands it to a single queue drainer. The drainer
// claims up to Config.MaxConcurrent jobs per round and processes them in
// parallel. For each job it:
//
//  1. resolves a transport from the provider chain (primary SMTP, then the
//     configured fallbacks), skipping incomplete credentials, failed
//     probes and hosts that already failed for this job
//  2. splits pending recipients into blind-copied batches of
//     Config.BatchSize and sends them in order
//  3. retries a batch on transient failure, switching provider when the
//     current host failed, and skips it on permanent failure
//  4. retries the whole job with linear backoff, re-sending only
//     recipients that were not delivered
//
// Jobs are removed from the snapshot once resolved. Jobs restored on
// Start have no waiting caller; their outcome is only logged and
// recorded in the diagnostics event log.
//
// Usage:
//
//	eng, err := delivery.NewEngine(cfg,
//	    delivery.WithLogger(log),
//	    delivery.WithSnapshot(delivery.NewFileSnapshot(cfg.QueueFile)),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Shutdown(context.Background())
//
//	err = eng.Send(ctx, []string{"a@x.com", "b@x.com"}, "Sujet", "Corps", "dao_updated")
//	var de *delivery.DeliveryError
//	if errors.As(err, &de) {
//	    log.Warn("partial delivery", "sent", de.Summary.Sent, "failed", de.Summary.Failed)
//	}
package delivery
