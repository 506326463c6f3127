// Package dao holds the case-file ("DAO") domain types shared by change
// detection, notification routing and team synchronization.
//
// Progress of a record is always computed with ComputeProgress so that
// creation summaries and update diffs agree on the same number.
package dao
