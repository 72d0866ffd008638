// Package memory provides an in-process distribution cache.
package memory
