package durlog

import (
	"bytes"
	"testing"
)

func TestFieldsRoundTrip(t *testing.T) {
	in := map[string][]byte{
		"payload": []byte("some bytes"),
		"trace":   []byte("t-9"),
		"empty":   nil,
	}
	enc := encodeFields(in)
	out, ok := decodeFields(enc)
	if !ok {
		t.Fatalf("decode failed")
	}
	if len(out) != len(in) {
		t.Fatalf("field count: %d", len(out))
	}
	for k, v := range in {
		if !bytes.Equal(out[k], v) {
			t.Fatalf("field %q: %q != %q", k, out[k], v)
		}
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	enc := encodeFields(map[string][]byte{"payload": []byte("x")})
	enc[2] ^= 0xFF
	if _, ok := decodeFields(enc); ok {
		t.Fatalf("accepted corrupt record")
	}
	if _, ok := decodeFields(enc[:3]); ok {
		t.Fatalf("accepted truncated record")
	}
	if _, ok := decodeFields(nil); ok {
		t.Fatalf("accepted empty record")
	}
}
