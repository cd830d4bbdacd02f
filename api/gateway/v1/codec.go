package gatewayv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// wireMessage is implemented by all hand-maintained wire types in this
// package.
type wireMessage interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire([]byte) error
}

// Codec is a grpc codec for the gateway wire types. Ordinary protobuf
// messages (from other registered services) fall through to proto.Marshal,
// so the codec can be forced server-wide.
type Codec struct{}

// Name implements grpc encoding.Codec. Keeping the standard name means no
// content-subtype negotiation is required.
func (Codec) Name() string { return "proto" }

// Marshal implements grpc encoding.Codec.
func (Codec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.MarshalWire()
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("gatewayv1: cannot marshal %T", v)
}

// Unmarshal implements grpc encoding.Codec.
func (Codec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case wireMessage:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("gatewayv1: cannot unmarshal %T", v)
}
