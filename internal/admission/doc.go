// Package admission implements the producer side of the buffering
// pipeline: request identity assignment, canonical serialization, and
// the durable append that backs an "accepted" response.
package admission
