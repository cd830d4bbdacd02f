// Package retrieval implements the consumer side of the buffering
// pipeline: a consumer-group poll loop that claims entries from the
// durable log, decodes the canonical request, hands it to a processing
// hook, and acknowledges. Undecodable entries are acknowledged and
// optionally dead-lettered so the stream keeps moving.
package retrieval
