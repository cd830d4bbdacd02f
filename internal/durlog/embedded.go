package durlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	pebbledb "github.com/cockroachdb/pebble"

	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
	"github.com/Lotargo/Q-Bridge/pkg/id"
)

// EmbeddedOptions configures the single-node Pebble-backed log.
type EmbeddedOptions struct {
	// DataDir is the Pebble directory.
	DataDir string
	// Fsync selects the durability mode (default: always).
	Fsync pebblestore.FsyncMode
	// Visibility is how long a delivered-but-unacked entry stays invisible
	// before it is redelivered to a consumer in the group. Default 30s.
	Visibility time.Duration
}

// Embedded is a single-node Log backed by Pebble. It provides the same
// contract as the Redis backend: monotonic entry ids, idempotent groups,
// bounded blocking group reads, ack by id, and visibility-timeout
// redelivery for at-least-once semantics.
type Embedded struct {
	db         *pebblestore.DB
	visibility time.Duration

	mu      sync.Mutex
	closed  bool
	streams map[string]*streamState
}

type streamState struct {
	mu     sync.Mutex
	gen    *id.Generator
	notify chan struct{}
}

// OpenEmbedded opens (or creates) the embedded log at opts.DataDir.
func OpenEmbedded(opts EmbeddedOptions) (*Embedded, error) {
	if opts.Fsync == pebblestore.FsyncModeUnspecified {
		opts.Fsync = pebblestore.FsyncModeAlways
	}
	if opts.Visibility <= 0 {
		opts.Visibility = 30 * time.Second
	}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, fmt.Errorf("durlog: open embedded store: %w", err)
	}
	return &Embedded{db: db, visibility: opts.Visibility, streams: map[string]*streamState{}}, nil
}

// Close closes the underlying store. Further calls are no-ops.
func (e *Embedded) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}

// state returns the per-stream generator/notifier, restoring the last
// assigned id from stream metadata on first use.
func (e *Embedded) state(stream string) (*streamState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.streams[stream]; ok {
		return st, nil
	}
	last := id.EntryID{}
	meta, err := e.db.Get(metaKey(stream))
	switch {
	case err == nil && len(meta) >= 16:
		last = idFromBytes(meta[:16])
	case err != nil && !errors.Is(err, pebblestore.ErrNotFound):
		return nil, fmt.Errorf("durlog: load stream meta: %w", err)
	}
	st := &streamState{gen: id.NewGenerator(last), notify: make(chan struct{})}
	e.streams[stream] = st
	return st, nil
}

// Append implements Log.
func (e *Embedded) Append(ctx context.Context, stream string, fields map[string][]byte) (string, error) {
	st, err := e.state(stream)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	eid := st.gen.Next()
	b := e.db.NewBatch()
	defer b.Close()
	if err := b.Set(entryKey(stream, eid), encodeFields(fields), nil); err != nil {
		return "", err
	}
	if err := b.Set(metaKey(stream), idToBytes(eid), nil); err != nil {
		return "", err
	}
	if err := e.db.CommitBatch(b); err != nil {
		return "", fmt.Errorf("durlog: append: %w", err)
	}

	// wake blocked readers
	close(st.notify)
	st.notify = make(chan struct{})
	return eid.String(), nil
}

// EnsureGroup implements Log. A new group starts at the beginning of the
// stream; an existing group is left untouched.
func (e *Embedded) EnsureGroup(ctx context.Context, stream, group string) error {
	key := groupCursorKey(stream, group)
	_, err := e.db.Get(key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pebblestore.ErrNotFound) {
		return fmt.Errorf("durlog: ensure group: %w", err)
	}
	return e.db.Set(key, idToBytes(id.EntryID{}))
}

// ReadGroup implements Log. Redeliveries of expired pending entries come
// first, then entries past the group cursor. When nothing is visible and
// args.Block is positive, the call waits up to that bound for an append
// and rescans once.
func (e *Embedded) ReadGroup(ctx context.Context, args ReadArgs) ([]Entry, error) {
	if args.Count <= 0 {
		args.Count = 1
	}
	st, err := e.state(args.Stream)
	if err != nil {
		return nil, err
	}

	// The lock serializes claims on the stream so two consumers in the
	// same group never read the cursor (or the pending set) before the
	// other's claim commits. The notifier is snapshotted under the same
	// lock so an append racing the scan still wakes the wait below.
	st.mu.Lock()
	ch := st.notify
	entries, err := e.claim(args)
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 || args.Block <= 0 {
		return entries, nil
	}

	select {
	case <-ch:
	case <-time.After(args.Block):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	st.mu.Lock()
	entries, err = e.claim(args)
	st.mu.Unlock()
	return entries, err
}

// claim performs one non-blocking delivery pass for the group. The
// caller must hold the stream lock.
func (e *Embedded) claim(args ReadArgs) ([]Entry, error) {
	nowMs := time.Now().UnixMilli()

	b := e.db.NewBatch()
	defer b.Close()

	out, err := e.reclaimExpired(b, args, nowMs)
	if err != nil {
		return nil, err
	}
	if len(out) < args.Count {
		fresh, err := e.deliverNew(b, args, nowMs, args.Count-len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, fresh...)
	}
	if len(out) == 0 {
		return nil, nil
	}
	if err := e.db.CommitBatch(b); err != nil {
		return nil, fmt.Errorf("durlog: claim: %w", err)
	}
	return out, nil
}

// reclaimExpired redelivers pending entries whose visibility window has
// lapsed, bumping their delivery count.
func (e *Embedded) reclaimExpired(b *pebbledb.Batch, args ReadArgs, nowMs int64) ([]Entry, error) {
	prefix := pendingPrefix(args.Stream, args.Group)
	iter, err := e.db.NewIter(&pebbledb.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Entry
	for ok := iter.First(); ok && len(out) < args.Count; ok = iter.Next() {
		k := iter.Key()
		if len(k) != len(prefix)+16 {
			continue
		}
		deliveries, deliveredMs, ok2 := decodePending(iter.Value())
		if !ok2 || nowMs-deliveredMs < e.visibility.Milliseconds() {
			continue
		}
		eid := idFromBytes(k[len(prefix):])
		val, err := e.db.Get(entryKey(args.Stream, eid))
		if err != nil {
			if errors.Is(err, pebblestore.ErrNotFound) {
				// entry trimmed out from under the group; drop the orphan
				_ = b.Delete(append([]byte(nil), k...), nil)
				continue
			}
			return nil, err
		}
		fields, ok2 := decodeFields(val)
		if !ok2 {
			return nil, fmt.Errorf("durlog: corrupt entry %s", eid)
		}
		if err := b.Set(append([]byte(nil), k...), encodePending(deliveries+1, nowMs, args.Consumer), nil); err != nil {
			return nil, err
		}
		out = append(out, Entry{ID: eid.String(), Fields: fields})
	}
	return out, nil
}

// deliverNew hands out entries past the group cursor and records them as
// pending for the consumer.
func (e *Embedded) deliverNew(b *pebbledb.Batch, args ReadArgs, nowMs int64, limit int) ([]Entry, error) {
	cur, err := e.db.Get(groupCursorKey(args.Stream, args.Group))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, fmt.Errorf("durlog: group %q not created on stream %q", args.Group, args.Stream)
		}
		return nil, err
	}
	cursor := idFromBytes(cur[:16])

	prefix := entryPrefix(args.Stream)
	lower := entryKey(args.Stream, cursor)
	// first key strictly after the cursor
	lower = append(lower, 0x00)
	iter, err := e.db.NewIter(&pebbledb.IterOptions{LowerBound: lower, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Entry
	for ok := iter.First(); ok && len(out) < limit; ok = iter.Next() {
		k := iter.Key()
		if len(k) != len(prefix)+16 {
			continue
		}
		eid := idFromBytes(k[len(prefix):])
		fields, ok2 := decodeFields(iter.Value())
		if !ok2 {
			return nil, fmt.Errorf("durlog: corrupt entry %s", eid)
		}
		if err := b.Set(pendingKey(args.Stream, args.Group, eid), encodePending(1, nowMs, args.Consumer), nil); err != nil {
			return nil, err
		}
		cursor = eid
		out = append(out, Entry{ID: eid.String(), Fields: fields})
	}
	if len(out) > 0 {
		if err := b.Set(groupCursorKey(args.Stream, args.Group), idToBytes(cursor), nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Ack implements Log. Acknowledging an id that is not pending is a no-op,
// matching stream-server semantics.
func (e *Embedded) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	b := e.db.NewBatch()
	defer b.Close()
	for _, s := range ids {
		eid, err := id.Parse(s)
		if err != nil {
			return fmt.Errorf("durlog: ack: %w", err)
		}
		if err := b.Delete(pendingKey(stream, group, eid), nil); err != nil {
			return err
		}
	}
	if err := e.db.CommitBatch(b); err != nil {
		return fmt.Errorf("durlog: ack: %w", err)
	}
	return nil
}

// Pending record: uvarint deliveries | 8-byte big-endian deliveredMs | consumer

func encodePending(deliveries uint64, deliveredMs int64, consumer string) []byte {
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], deliveries)
	out := make([]byte, 0, n+8+len(consumer))
	out = append(out, tmp[:n]...)
	var ms [8]byte
	binary.BigEndian.PutUint64(ms[:], uint64(deliveredMs))
	out = append(out, ms[:]...)
	return append(out, consumer...)
}

func decodePending(b []byte) (deliveries uint64, deliveredMs int64, ok bool) {
	d, n := binary.Uvarint(b)
	if n <= 0 || len(b[n:]) < 8 {
		return 0, 0, false
	}
	return d, int64(binary.BigEndian.Uint64(b[n : n+8])), true
}
