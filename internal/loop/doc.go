// Package loop implements the single-writer event loop the interactive
// client runs on.
//
// ARCHITECTURE:
//
// All client-side state that reacts to input (the search debouncer's query,
// results, timer and epoch) is owned by exactly one goroutine, the one
// calling Loop.Run. Everything else talks to that state by posting events:
//
//   - Input events: a new query text arrived.
//   - Timer events: a debounce timer fired.
//   - Completion events: a network call returned.
//
// Goroutines only perform network I/O and post their completion back; they
// never touch loop-owned state. Events run strictly one at a time in FIFO
// order, so handlers need no locks, and between events the loop stays
// responsive to further input.
//
// No ordering is assumed between completions of concurrently issued calls.
// Handlers compare the epoch an event was issued under (from Clock) with the
// current epoch and drop stale events.
package loop
