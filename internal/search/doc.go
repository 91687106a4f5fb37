// Package search turns a rapidly changing query text into at most one
// outstanding user search per quiet period.
//
// The Debouncer runs on a loop.Loop. Each query change stamps a new epoch;
// the debounce timer and the network completion both carry the epoch they
// were issued under, and anything whose epoch is no longer current is
// dropped. A late response for "al" therefore never overwrites results
// already shown for "alice".
package search
