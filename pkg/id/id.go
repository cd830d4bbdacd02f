package id

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EntryID identifies one appended log entry. It is ordered first by the
// millisecond timestamp of the append, then by a per-millisecond sequence.
type EntryID struct {
	Ms  int64
	Seq uint64
}

// String renders the id in the conventional "ms-seq" stream form.
func (e EntryID) String() string {
	return strconv.FormatInt(e.Ms, 10) + "-" + strconv.FormatUint(e.Seq, 10)
}

// IsZero reports whether the id is the zero id (before any entry).
func (e EntryID) IsZero() bool { return e.Ms == 0 && e.Seq == 0 }

// Compare returns -1, 0, 1 ordering ids chronologically.
func (e EntryID) Compare(other EntryID) int {
	if e.Ms != other.Ms {
		if e.Ms < other.Ms {
			return -1
		}
		return 1
	}
	if e.Seq != other.Seq {
		if e.Seq < other.Seq {
			return -1
		}
		return 1
	}
	return 0
}

// Parse parses an id in "ms-seq" form.
func Parse(s string) (EntryID, error) {
	dash := strings.IndexByte(s, '-')
	if dash <= 0 || dash == len(s)-1 {
		return EntryID{}, fmt.Errorf("id: malformed entry id %q", s)
	}
	ms, err := strconv.ParseInt(s[:dash], 10, 64)
	if err != nil {
		return EntryID{}, fmt.Errorf("id: malformed entry id %q", s)
	}
	seq, err := strconv.ParseUint(s[dash+1:], 10, 64)
	if err != nil {
		return EntryID{}, fmt.Errorf("id: malformed entry id %q", s)
	}
	return EntryID{Ms: ms, Seq: seq}, nil
}

// Generator produces strictly increasing EntryIDs per process.
type Generator struct {
	mu     sync.Mutex
	lastMs int64
	seq    uint64
}

// NewGenerator creates a Generator. Pass the highest id already present
// so restarts never reissue an id; the zero EntryID starts fresh.
func NewGenerator(last EntryID) *Generator {
	return &Generator{lastMs: last.Ms, seq: last.Seq}
}

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new EntryID. If the clock regresses it pins to the last
// seen millisecond and keeps incrementing the sequence. If the sequence
// would overflow within one millisecond it waits for the next one.
func (g *Generator) Next() EntryID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		if g.seq == math.MaxUint64 {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.seq = 0
		} else {
			g.seq++
		}
	} else {
		g.seq = 0
	}

	g.lastMs = ms
	return EntryID{Ms: ms, Seq: g.seq}
}
