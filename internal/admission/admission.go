package admission

import (
	"context"

	"github.com/google/uuid"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	"github.com/Lotargo/Q-Bridge/internal/durlog"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// StatusAccepted is the status reported once an append is durable.
const StatusAccepted = "accepted"

// SubmitResult reports the identity and disposition of an admitted request.
type SubmitResult struct {
	RequestID string
	Status    string
}

// SerializationError means the in-memory request could not be encoded.
// Well-formed callers should never see it.
type SerializationError struct{ Err error }

func (e *SerializationError) Error() string { return "admission: serialize request: " + e.Err.Error() }
func (e *SerializationError) Unwrap() error { return e.Err }

// LogUnavailableError means the durable log rejected or could not take the
// append. The request was not buffered; retry policy belongs to the caller.
type LogUnavailableError struct{ Err error }

func (e *LogUnavailableError) Error() string { return "admission: durable log: " + e.Err.Error() }
func (e *LogUnavailableError) Unwrap() error { return e.Err }

// Admitter is the producer side of the buffering pipeline. It assigns
// request identity, serializes the canonical request, and appends it to
// the durable log. Safe for concurrent use.
type Admitter struct {
	log    durlog.Log
	stream string
	logger logpkg.Logger
}

// New constructs an Admitter writing to the given stream.
func New(l durlog.Log, stream string, logger logpkg.Logger) *Admitter {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &Admitter{log: l, stream: stream, logger: logger}
}

// Submit admits one canonical request. An empty request_id is replaced
// with a fresh UUID before serialization; a caller-supplied id is kept
// unchanged. The result is returned only after the durable log has
// acknowledged the append, so "accepted" always means buffered.
//
// Resubmitting the same request_id appends a new, distinct entry; the
// admission path does not deduplicate.
func (a *Admitter) Submit(ctx context.Context, req *gatewayv1.InternalRequest) (SubmitResult, error) {
	if req.RequestId == "" {
		req.RequestId = uuid.NewString()
	}
	a.logger.Debug("admitting request",
		logpkg.Str("request_id", req.RequestId),
		logpkg.Str("agent_id", req.AgentId),
	)

	payload, err := req.MarshalWire()
	if err != nil {
		a.logger.Error("serialize request failed", logpkg.Str("request_id", req.RequestId), logpkg.Err(err))
		return SubmitResult{}, &SerializationError{Err: err}
	}

	entryID, err := a.log.Append(ctx, a.stream, map[string][]byte{durlog.FieldPayload: payload})
	if err != nil {
		a.logger.Error("append to durable log failed", logpkg.Str("request_id", req.RequestId), logpkg.Err(err))
		return SubmitResult{}, &LogUnavailableError{Err: err}
	}

	a.logger.Info("request accepted",
		logpkg.Str("request_id", req.RequestId),
		logpkg.Str("entry_id", entryID),
	)
	return SubmitResult{RequestID: req.RequestId, Status: StatusAccepted}, nil
}
