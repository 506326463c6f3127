// Package autouser keeps an audit trail of user accounts provisioned
// automatically from case-file teams.
//
// Log is a fixed-size ring of the latest entries. Email addresses are
// masked before they are stored, so entries are safe to expose on an
// operations surface. Syncer walks a record's team, makes sure each
// member with an email has an active account and records the outcome.
package autouser
