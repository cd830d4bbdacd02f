// Package id provides monotonically increasing stream entry identifiers.
//
// # Format
//
// An EntryID is a pair of millisecond timestamp and per-millisecond
// sequence, rendered "ms-seq". Chronological order and lexical order of
// the pair coincide, so ids double as cursors.
//
// # Monotonicity
//
// The Generator guarantees per-process monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond
//     and increments the sequence instead of going backwards.
//   - If the sequence would overflow within a millisecond, it waits for
//     the next millisecond before emitting the next id.
package id
