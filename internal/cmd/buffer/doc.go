// Package bufferrun boots the buffer process: the consumer-group poll
// loop that drains buffered requests from the durable log.
package bufferrun
