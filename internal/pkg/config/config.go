package config

import (
	"io"
	"time"
)

// Config is the read-only view of runtime settings used across the service.
//
// Keys are dotted paths (for example "modules.otp.delivery.mode"). Missing keys
// return the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetArray reads a list. Both YAML sequences and "a,b,c" strings are accepted;
	// blank entries are dropped.
	GetArray(key string) []string
	// GetMap reads "k:v,k:v" pairs.
	GetMap(key string) map[string]string
}
