// Package gatewayv1 defines the gateway wire contract: the canonical
// InternalRequest representation shared by the admission (producer) and
// retrieval (consumer) sides, and the gRPC surface of the gateway.
//
// The wire types are maintained by hand against the schema in
// proto/gateway.proto and encode with the protobuf wire format, so the
// bytes interoperate with any protobuf implementation of the same schema.
// Unknown fields are skipped on decode; producers and consumers may run
// different versions.
package gatewayv1
