package durlog

import (
	"encoding/binary"
	"hash/crc32"
	"sort"
)

// Field-map encoding for embedded entries:
// uvarint nFields | (uvarint klen | key | uvarint vlen | value)* | crc32c

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeFields(fields map[string][]byte) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tmp [10]byte
	out := make([]byte, 0, 16)
	n := binary.PutUvarint(tmp[:], uint64(len(keys)))
	out = append(out, tmp[:n]...)
	for _, k := range keys {
		n = binary.PutUvarint(tmp[:], uint64(len(k)))
		out = append(out, tmp[:n]...)
		out = append(out, k...)
		v := fields[k]
		n = binary.PutUvarint(tmp[:], uint64(len(v)))
		out = append(out, tmp[:n]...)
		out = append(out, v...)
	}

	crc := crc32.Checksum(out, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

func decodeFields(b []byte) (map[string][]byte, bool) {
	if len(b) < 1+4 {
		return nil, false
	}
	body, tail := b[:len(b)-4], b[len(b)-4:]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(tail) {
		return nil, false
	}

	count, n := binary.Uvarint(body)
	if n <= 0 {
		return nil, false
	}
	body = body[n:]
	fields := make(map[string][]byte, count)
	for i := uint64(0); i < count; i++ {
		klen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body[n:])) < klen {
			return nil, false
		}
		k := string(body[n : n+int(klen)])
		body = body[n+int(klen):]

		vlen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body[n:])) < vlen {
			return nil, false
		}
		fields[k] = append([]byte(nil), body[n:n+int(vlen)]...)
		body = body[n+int(vlen):]
	}
	if len(body) != 0 {
		return nil, false
	}
	return fields, true
}
