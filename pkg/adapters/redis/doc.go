// Package redis provides a shared distribution cache and a distributed locker backed by Redis.
package redis
