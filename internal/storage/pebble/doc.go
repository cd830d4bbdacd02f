// Package pebblestore wraps Pebble with the durability policy used by the
// embedded log backend. The wrapper keeps the API surface small: open with
// an fsync mode, batch commits honoring that mode, and point/iterator
// reads.
package pebblestore
