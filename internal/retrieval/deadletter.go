package retrieval

import (
	"context"

	"github.com/Lotargo/Q-Bridge/internal/durlog"
)

// DeadLetter receives entries the consumer gave up on, currently only
// undecodable payloads. The entry is acknowledged on the source stream
// regardless of the Send outcome.
type DeadLetter interface {
	Send(ctx context.Context, e durlog.Entry, cause error) error
}

// StreamDeadLetter copies rejected entries onto another stream of the
// same durable log, preserving the original fields and recording the
// source entry id and the failure.
type StreamDeadLetter struct {
	log    durlog.Log
	stream string
}

// NewStreamDeadLetter writes rejected entries to the named stream.
func NewStreamDeadLetter(l durlog.Log, stream string) *StreamDeadLetter {
	return &StreamDeadLetter{log: l, stream: stream}
}

func (d *StreamDeadLetter) Send(ctx context.Context, e durlog.Entry, cause error) error {
	fields := make(map[string][]byte, len(e.Fields)+2)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields["source_id"] = []byte(e.ID)
	fields["error"] = []byte(cause.Error())
	_, err := d.log.Append(ctx, d.stream, fields)
	return err
}
