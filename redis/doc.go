// Package redis wraps go-redis with spindle logging, key prefixing and
// component lifecycle support. It backs the "redis" variable store.
package redis
