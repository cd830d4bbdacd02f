package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	gatewayv1 "github.com/Lotargo/Q-Bridge/api/gateway/v1"
	"github.com/Lotargo/Q-Bridge/internal/durlog"
	logpkg "github.com/Lotargo/Q-Bridge/pkg/log"
)

// state names the phase the consumer loop is in. Transitions:
// polling -> backoff on a read error, backoff -> polling after the
// error wait, any -> draining once the context is cancelled.
type state int

const (
	statePolling state = iota
	stateBackoff
	stateDraining
)

func (s state) String() string {
	switch s {
	case statePolling:
		return "polling"
	case stateBackoff:
		return "backoff"
	case stateDraining:
		return "draining"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler receives each successfully decoded request. A handler error is
// logged but does not block acknowledgement; the pipeline is at-least-once
// up to the handler and the handler owns its own retries.
type Handler func(ctx context.Context, req *gatewayv1.InternalRequest) error

// Options configures a Consumer. Stream, Group and Consumer are required.
type Options struct {
	Stream   string
	Group    string
	Consumer string

	// BatchSize is the max entries claimed per poll. Zero means 1.
	BatchSize int
	// ReadBlock bounds how long a poll blocks waiting for entries.
	ReadBlock time.Duration
	// EmptyWait is the pause after a poll that returned nothing and
	// could not block. ErrorWait is the pause after a failed poll.
	EmptyWait time.Duration
	ErrorWait time.Duration

	Handler    Handler
	DeadLetter DeadLetter
	Logger     logpkg.Logger
}

// Consumer drains the durable log for one consumer group member:
// claim, decode, hand off, acknowledge. Entries that fail to decode are
// acknowledged anyway so one poison entry cannot wedge the stream.
type Consumer struct {
	log  durlog.Log
	opts Options

	logger logpkg.Logger
}

// New constructs a Consumer. It does not touch the log until Run.
func New(l durlog.Log, opts Options) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.EmptyWait <= 0 {
		opts.EmptyWait = 500 * time.Millisecond
	}
	if opts.ErrorWait <= 0 {
		opts.ErrorWait = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNop()
	}
	logger = logger.With(
		logpkg.Str("stream", opts.Stream),
		logpkg.Str("group", opts.Group),
		logpkg.Str("consumer", opts.Consumer),
	)
	return &Consumer{log: l, opts: opts, logger: logger}
}

// Run creates the consumer group if needed, then loops claiming and
// processing entries until ctx is cancelled. In-flight entries finish
// processing and are acknowledged before Run returns. The only error
// Run returns is a group-creation failure at startup.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.log.EnsureGroup(ctx, c.opts.Stream, c.opts.Group); err != nil {
		return fmt.Errorf("ensure group %q on %q: %w", c.opts.Group, c.opts.Stream, err)
	}
	c.logger.Info("consumer started")

	st := statePolling
	for {
		select {
		case <-ctx.Done():
			st = stateDraining
		default:
		}

		switch st {
		case statePolling:
			entries, err := c.log.ReadGroup(ctx, durlog.ReadArgs{
				Stream:   c.opts.Stream,
				Group:    c.opts.Group,
				Consumer: c.opts.Consumer,
				Count:    c.opts.BatchSize,
				Block:    c.opts.ReadBlock,
			})
			if err != nil {
				if ctx.Err() != nil {
					st = stateDraining
					continue
				}
				c.logger.Error("read from durable log failed", logpkg.Err(err))
				st = stateBackoff
				continue
			}
			if len(entries) == 0 {
				if c.opts.ReadBlock <= 0 {
					c.sleep(ctx, c.opts.EmptyWait)
				}
				continue
			}
			c.processBatch(entries)

		case stateBackoff:
			c.sleep(ctx, c.opts.ErrorWait)
			st = statePolling

		case stateDraining:
			c.logger.Info("consumer stopped")
			return nil
		}
	}
}

// processBatch handles claimed entries concurrently and waits for all of
// them. Acks happen per entry, even when decoding failed.
func (c *Consumer) processBatch(entries []durlog.Entry) {
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e durlog.Entry) {
			defer wg.Done()
			c.processEntry(e)
		}(e)
	}
	wg.Wait()
}

func (c *Consumer) processEntry(e durlog.Entry) {
	// Processing and acks run on a background context so a shutdown
	// signal cannot strand a claimed entry half-processed.
	ctx := context.Background()

	var req gatewayv1.InternalRequest
	if err := req.UnmarshalWire(e.Fields[durlog.FieldPayload]); err != nil {
		c.logger.Error("undecodable entry, acknowledging to skip",
			logpkg.Str("entry_id", e.ID),
			logpkg.Err(err),
		)
		if c.opts.DeadLetter != nil {
			if dlErr := c.opts.DeadLetter.Send(ctx, e, err); dlErr != nil {
				c.logger.Error("dead letter send failed", logpkg.Str("entry_id", e.ID), logpkg.Err(dlErr))
			}
		}
		c.ack(ctx, e.ID)
		return
	}

	c.logger.Debug("entry claimed",
		logpkg.Str("entry_id", e.ID),
		logpkg.Str("request_id", req.RequestId),
	)
	if c.opts.Handler != nil {
		if err := c.opts.Handler(ctx, &req); err != nil {
			c.logger.Error("handler failed",
				logpkg.Str("entry_id", e.ID),
				logpkg.Str("request_id", req.RequestId),
				logpkg.Err(err),
			)
		}
	}
	c.ack(ctx, e.ID)
}

// ack acknowledges one entry. On failure the entry stays pending and the
// visibility timeout will redeliver it, so failure is logged, not fatal.
func (c *Consumer) ack(ctx context.Context, entryID string) {
	if err := c.log.Ack(ctx, c.opts.Stream, c.opts.Group, entryID); err != nil {
		c.logger.Error("ack failed, entry will be redelivered",
			logpkg.Str("entry_id", entryID),
			logpkg.Err(err),
		)
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
