package durlog

import (
	"context"
	"time"
)

// Entry is one appended unit in the durable log: the id assigned at
// append time plus a field map. The buffering pipeline stores the
// serialized canonical request under FieldPayload.
type Entry struct {
	ID     string
	Fields map[string][]byte
}

// FieldPayload is the field name carrying the serialized canonical request.
const FieldPayload = "payload"

// ReadArgs parameterizes one group-scoped read.
type ReadArgs struct {
	Stream   string
	Group    string
	Consumer string
	// Count caps the number of entries returned; 0 means 1.
	Count int
	// Block bounds how long the read may wait for new entries when none
	// are visible. Zero or negative returns immediately.
	Block time.Duration
}

// Log is the client contract for an append-only, consumer-group-aware
// durable log. Implementations are safe for concurrent use; producer and
// consumer components receive a Log at construction.
type Log interface {
	// Append creates one entry with the given field map and returns the
	// id the log assigned to it. Append returns only after the entry is
	// durably committed.
	Append(ctx context.Context, stream string, fields map[string][]byte) (string, error)

	// EnsureGroup creates the consumer group on the stream, reading from
	// the beginning of the log. Creating a group that already exists is
	// not an error.
	EnsureGroup(ctx context.Context, stream, group string) error

	// ReadGroup returns zero or more entries newly visible to this
	// group/consumer pair. An empty result is not an error.
	ReadGroup(ctx context.Context, args ReadArgs) ([]Entry, error)

	// Ack retires the given entry ids from the group's pending set.
	Ack(ctx context.Context, stream, group string, ids ...string) error

	Close() error
}
