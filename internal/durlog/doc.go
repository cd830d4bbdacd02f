// Package durlog abstracts the durable, consumer-group-aware log that the
// buffering pipeline writes to and reads from.
//
// The Log interface covers exactly the four operations the pipeline
// needs: durable append with an assigned entry id, idempotent group
// creation, group-scoped bounded-blocking reads, and ack by id. Two
// backends implement it:
//
//   - RedisLog speaks to a Redis Stream and is the production backend.
//   - Embedded is a single-node Pebble-backed log with the same
//     semantics, used for development and as the hermetic test fixture.
//
// Both are safe for concurrent use; components receive a Log at
// construction rather than reaching for process-wide state.
package durlog
