package gatewayv1

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// InternalRequest is the canonical buffered request. Its wire form is the
// protobuf encoding of:
//
//	message InternalRequest {
//	  string request_id          = 1;
//	  string agent_id            = 2;
//	  bytes  payload             = 3;
//	  map<string,string> metadata = 4;
//	}
//
// Producer and consumer may run different versions, so decoding skips
// unknown fields. Encoding is canonical: fields in tag order, empty
// fields omitted, metadata keys sorted.
type InternalRequest struct {
	RequestId string
	AgentId   string
	Payload   []byte
	Metadata  map[string]string
}

// SubmitRequestResponse is returned by GatewayService.SubmitRequest.
type SubmitRequestResponse struct {
	RequestId string
	Status    string
}

// HealthCheckRequest is the empty liveness probe request.
type HealthCheckRequest struct{}

// HealthCheckResponse carries the liveness status string.
type HealthCheckResponse struct {
	Status string
}

const (
	fieldRequestID = 1
	fieldAgentID   = 2
	fieldPayload   = 3
	fieldMetadata  = 4

	mapFieldKey   = 1
	mapFieldValue = 2
)

// MarshalWire encodes the request into its canonical wire form.
func (m *InternalRequest) MarshalWire() ([]byte, error) {
	var b []byte
	if m.RequestId != "" {
		b = protowire.AppendTag(b, fieldRequestID, protowire.BytesType)
		b = protowire.AppendString(b, m.RequestId)
	}
	if m.AgentId != "" {
		b = protowire.AppendTag(b, fieldAgentID, protowire.BytesType)
		b = protowire.AppendString(b, m.AgentId)
	}
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	if len(m.Metadata) > 0 {
		keys := make([]string, 0, len(m.Metadata))
		for k := range m.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var kv []byte
			kv = protowire.AppendTag(kv, mapFieldKey, protowire.BytesType)
			kv = protowire.AppendString(kv, k)
			kv = protowire.AppendTag(kv, mapFieldValue, protowire.BytesType)
			kv = protowire.AppendString(kv, m.Metadata[k])
			b = protowire.AppendTag(b, fieldMetadata, protowire.BytesType)
			b = protowire.AppendBytes(b, kv)
		}
	}
	return b, nil
}

// UnmarshalWire decodes the request from wire bytes, ignoring unknown fields.
func (m *InternalRequest) UnmarshalWire(b []byte) error {
	*m = InternalRequest{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("gatewayv1: decode request: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldRequestID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("gatewayv1: decode request_id: %w", protowire.ParseError(n))
			}
			m.RequestId = string(v)
			b = b[n:]
		case num == fieldAgentID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("gatewayv1: decode agent_id: %w", protowire.ParseError(n))
			}
			m.AgentId = string(v)
			b = b[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("gatewayv1: decode payload: %w", protowire.ParseError(n))
			}
			m.Payload = append([]byte(nil), v...)
			b = b[n:]
		case num == fieldMetadata && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("gatewayv1: decode metadata: %w", protowire.ParseError(n))
			}
			k, val, err := consumeMapEntry(v)
			if err != nil {
				return err
			}
			if m.Metadata == nil {
				m.Metadata = make(map[string]string)
			}
			m.Metadata[k] = val
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("gatewayv1: skip field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func consumeMapEntry(b []byte) (key, value string, err error) {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", fmt.Errorf("gatewayv1: decode metadata entry: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == mapFieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", "", fmt.Errorf("gatewayv1: decode metadata key: %w", protowire.ParseError(n))
			}
			key = string(v)
			b = b[n:]
		case num == mapFieldValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", "", fmt.Errorf("gatewayv1: decode metadata value: %w", protowire.ParseError(n))
			}
			value = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", "", fmt.Errorf("gatewayv1: skip metadata field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return key, value, nil
}

// MarshalWire encodes the response.
func (m *SubmitRequestResponse) MarshalWire() ([]byte, error) {
	var b []byte
	if m.RequestId != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, m.RequestId)
	}
	if m.Status != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, m.Status)
	}
	return b, nil
}

// UnmarshalWire decodes the response, ignoring unknown fields.
func (m *SubmitRequestResponse) UnmarshalWire(b []byte) error {
	*m = SubmitRequestResponse{}
	return consumeTwoStrings(b, &m.RequestId, &m.Status, "gatewayv1: decode submit response")
}

// MarshalWire encodes the empty probe request.
func (m *HealthCheckRequest) MarshalWire() ([]byte, error) { return nil, nil }

// UnmarshalWire accepts any bytes for forward compatibility.
func (m *HealthCheckRequest) UnmarshalWire([]byte) error { return nil }

// MarshalWire encodes the probe response.
func (m *HealthCheckResponse) MarshalWire() ([]byte, error) {
	var b []byte
	if m.Status != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, m.Status)
	}
	return b, nil
}

// UnmarshalWire decodes the probe response, ignoring unknown fields.
func (m *HealthCheckResponse) UnmarshalWire(b []byte) error {
	*m = HealthCheckResponse{}
	var unused string
	return consumeTwoStrings(b, &m.Status, &unused, "gatewayv1: decode health response")
}

// consumeTwoStrings decodes string fields 1 and 2 into the given targets.
func consumeTwoStrings(b []byte, first, second *string, errCtx string) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%s: %w", errCtx, protowire.ParseError(n))
		}
		b = b[n:]
		if (num == 1 || num == 2) && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%s: %w", errCtx, protowire.ParseError(n))
			}
			if num == 1 {
				*first = string(v)
			} else {
				*second = string(v)
			}
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return fmt.Errorf("%s: %w", errCtx, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
