// Package relationship derives how the current user relates to each search
// candidate.
//
// Three collections feed the derivation: accepted friends, outgoing pending
// requests, and incoming pending requests. Fetcher pulls them concurrently,
// Ledger holds them as one immutable Snapshot, and Classify maps a snapshot
// plus a candidate id to a single RelationshipStatus.
//
// # Consistency
//
// A Snapshot is never mutated after construction. Ledger swaps whole
// snapshots under a mutex, so a reader always sees friends, incoming and
// outgoing from the same moment. Local mutations are copy-on-write.
//
// Every write advances the ledger's version. A fetch captures the version
// when it starts (Begin) and is applied only if nothing else wrote since,
// so a slow fetch issued before a local mutation cannot undo it.
package relationship
