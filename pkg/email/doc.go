// Package email is the transport boundary of the delivery pipeline.
//
// A Transport sends one Message to a batch of blind-copied recipients
// through a single provider. Providers form a closed set (Provider) and
// each is configured by a ProviderConfig variant that knows whether its
// credentials are complete and how to build its Transport:
//
//	cfg, _ := config.Load[email.Config]()
//	for _, pc := range cfg.Chain() {         // primary first, then fallbacks
//	    if !pc.Complete() {
//	        continue
//	    }
//	    t, err := pc.Build(cfg.Settings())
//	    ...
//	}
//
// Supported variants:
//   - smtp / backup_smtp: SMTPConfig, sent with emersion/go-smtp, bodies
//     composed as multipart/alternative with emersion/go-message
//   - postmark: PostmarkConfig, sent through the Postmark API
//   - file: FileConfig, writes messages to a directory for local work
//
// # Errors
//
// Every Transport returns failures as *Error, classified once at this
// boundary into a closed Kind. Callers decide whether to retry with
// (*Error).Transient and never inspect provider-specific error shapes:
//
//	var e *email.Error
//	if errors.As(err, &e) && e.Transient() {
//	    // back off and retry the same batch
//	}
package email
