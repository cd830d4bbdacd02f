package durlog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	pebblestore "github.com/Lotargo/Q-Bridge/internal/storage/pebble"
	"github.com/Lotargo/Q-Bridge/pkg/id"
)

func openTestLog(t *testing.T, visibility time.Duration) *Embedded {
	t.Helper()
	l, err := OpenEmbedded(EmbeddedOptions{
		DataDir:    t.TempDir(),
		Fsync:      pebblestore.FsyncModeAlways,
		Visibility: visibility,
	})
	if err != nil {
		t.Fatalf("open embedded: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	a, err := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("a")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	b, err := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("b")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if a == "" || b == "" || a == b {
		t.Fatalf("ids: %q %q", a, b)
	}
}

func TestEnsureGroupIdempotent(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	if err := l.EnsureGroup(ctx, "st", "g"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := l.EnsureGroup(ctx, "st", "g"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

func TestExistingGroupCursorSurvivesEnsure(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	if err := l.EnsureGroup(ctx, "st", "g"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	id1, _ := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("x")})
	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if err != nil || len(got) != 1 || got[0].ID != id1 {
		t.Fatalf("read: %v %v", got, err)
	}
	_ = l.Ack(ctx, "st", "g", id1)

	// re-ensuring must not rewind the cursor
	if err := l.EnsureGroup(ctx, "st", "g"); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	got, err = l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cursor rewound, redelivered %v", got)
	}
}

func TestReadGroupDeliversOnce(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	id1, _ := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("p1")})

	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].ID != id1 || string(got[0].Fields[FieldPayload]) != "p1" {
		t.Fatalf("entries: %+v", got)
	}

	// delivered but unacked: not visible again before the window lapses
	got, err = l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c2"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("delivered twice inside visibility window: %+v", got)
	}
}

func TestAckedEntryNeverRedelivered(t *testing.T) {
	l := openTestLog(t, 20*time.Millisecond)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	id1, _ := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("p")})

	got, _ := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if len(got) != 1 {
		t.Fatalf("want 1 entry, got %d", len(got))
	}
	if err := l.Ack(ctx, "st", "g", id1); err != nil {
		t.Fatalf("ack: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c2"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("acked entry redelivered: %+v", got)
	}
}

func TestUnackedEntryRedeliveredAfterVisibility(t *testing.T) {
	l := openTestLog(t, 20*time.Millisecond)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	id1, _ := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("p")})

	// consumer c1 claims and "crashes" without acking
	got, _ := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if len(got) != 1 {
		t.Fatalf("want initial delivery")
	}
	time.Sleep(40 * time.Millisecond)
	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c2"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].ID != id1 {
		t.Fatalf("expected redelivery of %s, got %+v", id1, got)
	}
}

func TestConcurrentReadersNeverShareAnEntry(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")

	const total = 40
	for i := 0; i < total; i++ {
		if _, err := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte{byte(i)}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// several consumers in the same group drain concurrently; within the
	// visibility window every entry must go to exactly one of them
	const readers = 4
	results := make(chan string, total*2)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(consumer string) {
			defer wg.Done()
			for {
				got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: consumer, Count: 3})
				if err != nil {
					t.Errorf("read: %v", err)
					return
				}
				if len(got) == 0 {
					return
				}
				for _, e := range got {
					results <- e.ID
				}
			}
		}(fmt.Sprintf("c%d", i))
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for id := range results {
		if seen[id] {
			t.Fatalf("entry %s delivered to two consumers", id)
		}
		seen[id] = true
	}
	if len(seen) != total {
		t.Fatalf("delivered %d of %d entries", len(seen), total)
	}
}

func TestEmptyPollReturnsNothing(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty read, got %+v", got)
	}
}

func TestBlockingReadWokenByAppend(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")

	done := make(chan []Entry, 1)
	go func() {
		got, _ := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1", Block: 2 * time.Second})
		done <- got
	}()
	time.Sleep(30 * time.Millisecond)
	id1, err := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("p")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	select {
	case got := <-done:
		if len(got) != 1 || got[0].ID != id1 {
			t.Fatalf("blocked read got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("blocked read never woke")
	}
}

func TestBlockingReadTimesOutClean(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	start := time.Now()
	got, err := l.ReadGroup(ctx, ReadArgs{Stream: "st", Group: "g", Consumer: "c1", Block: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected timeout with no entries")
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("returned before the block bound")
	}
}

func TestAckUnknownIDIsNoop(t *testing.T) {
	l := openTestLog(t, time.Minute)
	ctx := context.Background()
	_ = l.EnsureGroup(ctx, "st", "g")
	if err := l.Ack(ctx, "st", "g", "12345-0"); err != nil {
		t.Fatalf("ack unknown: %v", err)
	}
}

func TestIDsResumeAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	l, err := OpenEmbedded(EmbeddedOptions{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first, _ := l.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("a")})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l2, err := OpenEmbedded(EmbeddedOptions{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()
	second, _ := l2.Append(ctx, "st", map[string][]byte{FieldPayload: []byte("b")})
	a, err := id.Parse(first)
	if err != nil {
		t.Fatalf("parse %q: %v", first, err)
	}
	b, err := id.Parse(second)
	if err != nil {
		t.Fatalf("parse %q: %v", second, err)
	}
	if b.Compare(a) <= 0 {
		t.Fatalf("id regressed across restart: %s then %s", first, second)
	}
}
