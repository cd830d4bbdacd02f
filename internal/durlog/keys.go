package durlog

import (
	"encoding/binary"
	"fmt"

	"github.com/Lotargo/Q-Bridge/pkg/id"
)

// Embedded key layout (all keys under one Pebble keyspace):
//
//	s/{stream}/e/{16-byte id}              entry field map
//	s/{stream}/meta                        last assigned id (16 bytes)
//	s/{stream}/g/{group}/cursor            last delivered id (16 bytes)
//	s/{stream}/g/{group}/p/{16-byte id}    pending record
//
// Ids are encoded 8-byte big-endian ms then 8-byte big-endian seq so a
// byte-wise scan walks entries in append order.

func idToBytes(e id.EntryID) []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(e.Ms))
	binary.BigEndian.PutUint64(b[8:16], e.Seq)
	return b[:]
}

func idFromBytes(b []byte) id.EntryID {
	return id.EntryID{
		Ms:  int64(binary.BigEndian.Uint64(b[0:8])),
		Seq: binary.BigEndian.Uint64(b[8:16]),
	}
}

func entryPrefix(stream string) []byte {
	return []byte(fmt.Sprintf("s/%s/e/", stream))
}

func entryKey(stream string, e id.EntryID) []byte {
	return append(entryPrefix(stream), idToBytes(e)...)
}

func metaKey(stream string) []byte {
	return []byte(fmt.Sprintf("s/%s/meta", stream))
}

func groupCursorKey(stream, group string) []byte {
	return []byte(fmt.Sprintf("s/%s/g/%s/cursor", stream, group))
}

func pendingPrefix(stream, group string) []byte {
	return []byte(fmt.Sprintf("s/%s/g/%s/p/", stream, group))
}

func pendingKey(stream, group string, e id.EntryID) []byte {
	return append(pendingPrefix(stream, group), idToBytes(e)...)
}

// prefixEnd returns the smallest key greater than every key with the
// prefix, or nil when no such key exists (unbounded scan).
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
