// Package config loads Q-Bridge configuration: built-in defaults, an
// optional JSON file, an optional .env file, and a QBRIDGE_* environment
// overlay, in that order of precedence (later wins).
package config
