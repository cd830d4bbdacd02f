package id

import (
	"sync"
	"testing"
)

func TestStringAndParseRoundTrip(t *testing.T) {
	e := EntryID{Ms: 1526919030474, Seq: 55}
	s := e.String()
	if s != "1526919030474-55" {
		t.Fatalf("string: %q", s)
	}
	got, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != e {
		t.Fatalf("round trip: %+v != %+v", got, e)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "123", "-5", "123-", "a-b", "1-2-3x"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestNextMonotonicWithinSameMs(t *testing.T) {
	orig := NowMs
	defer func() { NowMs = orig }()
	NowMs = func() int64 { return 42 }

	g := NewGenerator(EntryID{})
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		cur := g.Next()
		if cur.Compare(prev) <= 0 {
			t.Fatalf("not increasing: %v then %v", prev, cur)
		}
		prev = cur
	}
}

func TestNextPinsOnClockRegression(t *testing.T) {
	orig := NowMs
	defer func() { NowMs = orig }()

	now := int64(100)
	NowMs = func() int64 { return now }
	g := NewGenerator(EntryID{})
	a := g.Next()
	now = 50 // clock goes backwards
	b := g.Next()
	if b.Compare(a) <= 0 {
		t.Fatalf("regressed: %v then %v", a, b)
	}
	if b.Ms != a.Ms {
		t.Fatalf("expected pinned ms, got %d vs %d", b.Ms, a.Ms)
	}
}

func TestNextConcurrentUnique(t *testing.T) {
	g := NewGenerator(EntryID{})
	const n = 64
	out := make(chan EntryID, n*16)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				out <- g.Next()
			}
		}()
	}
	wg.Wait()
	close(out)
	seen := map[EntryID]bool{}
	for e := range out {
		if seen[e] {
			t.Fatalf("duplicate id %v", e)
		}
		seen[e] = true
	}
}
