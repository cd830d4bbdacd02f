package gatewayv1

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func sampleRequest() *InternalRequest {
	return &InternalRequest{
		RequestId: "req-123",
		AgentId:   "agent-7",
		Payload:   []byte("hello world"),
		Metadata:  map[string]string{"origin": "http", "trace": "t-1"},
	}
}

func TestRequestRoundTrip(t *testing.T) {
	in := sampleRequest()
	b, err := in.MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out InternalRequest
	if err := out.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RequestId != in.RequestId || out.AgentId != in.AgentId {
		t.Fatalf("ids differ: %+v", out)
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Fatalf("payload differs: %q", out.Payload)
	}
	if len(out.Metadata) != len(in.Metadata) {
		t.Fatalf("metadata size: %d", len(out.Metadata))
	}
	for k, v := range in.Metadata {
		if out.Metadata[k] != v {
			t.Fatalf("metadata[%s] = %q", k, out.Metadata[k])
		}
	}
}

func TestSerializeAfterDeserializeIsStable(t *testing.T) {
	b, err := sampleRequest().MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var mid InternalRequest
	if err := mid.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, err := mid.MarshalWire()
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(b, again) {
		t.Fatalf("encoding not canonical:\n%x\n%x", b, again)
	}
}

func TestEmptyFieldsAllowed(t *testing.T) {
	in := &InternalRequest{RequestId: "only-id"}
	b, err := in.MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out InternalRequest
	if err := out.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.RequestId != "only-id" || out.AgentId != "" || len(out.Payload) != 0 || out.Metadata != nil {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	b, err := sampleRequest().MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// A future producer version appends field 9 (string) and field 10 (varint).
	b = protowire.AppendTag(b, 9, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	b = protowire.AppendTag(b, 10, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)

	var out InternalRequest
	if err := out.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if out.RequestId != "req-123" || string(out.Payload) != "hello world" {
		t.Fatalf("known fields lost: %+v", out)
	}
}

func TestUnmarshalRejectsTruncated(t *testing.T) {
	b, err := sampleRequest().MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out InternalRequest
	if err := out.UnmarshalWire(b[:len(b)-3]); err == nil {
		t.Fatalf("expected error for truncated bytes")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	in := &SubmitRequestResponse{RequestId: "r", Status: "accepted"}
	b, err := in.MarshalWire()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out SubmitRequestResponse
	if err := out.UnmarshalWire(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != *in {
		t.Fatalf("round trip: %+v", out)
	}
}

func TestCodecDispatch(t *testing.T) {
	c := Codec{}
	in := sampleRequest()
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("codec marshal: %v", err)
	}
	var out InternalRequest
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("codec unmarshal: %v", err)
	}
	if out.RequestId != in.RequestId {
		t.Fatalf("request id: %q", out.RequestId)
	}
	if _, err := c.Marshal(struct{}{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
