package database

import (
	"github.com/objectlite/objectlite/internal/diag"
	"github.com/objectlite/objectlite/internal/oblog"
)

// LogLevel re-exports oblog's level enum at the database package's public
// surface, since Options is the configuration type client code constructs.
type LogLevel = oblog.Level

const (
	LogDefault LogLevel = oblog.LevelDefault
	LogDebug   LogLevel = oblog.LevelDebug
	LogInfo    LogLevel = oblog.LevelInfo
	LogNotice  LogLevel = oblog.LevelNotice
	LogWarn    LogLevel = oblog.LevelWarn
	LogError   LogLevel = oblog.LevelError
	LogNone    LogLevel = oblog.LevelNone
)

// Build-time constants (spec §6).
const (
	DefaultStubDepth    = 4
	DefaultGrowthSize   = 4096 // words
	DefaultCacheBuckets = 1021
	DefaultCacheMaxSize = 4096 // entries in the address-map lookup cache (spec §4.C)
)

// Options is the typed configuration surface for Open and Create (spec §6).
type Options struct {
	Filename         string
	LogLevel         LogLevel
	LogFile          string
	DefaultStubDepth int
	GrowthSize       int
	AllowCreation    bool
	Observers        []diag.Observer
}

func (o Options) withDefaults() Options {
	if o.DefaultStubDepth == 0 {
		o.DefaultStubDepth = DefaultStubDepth
	}
	if o.GrowthSize == 0 {
		o.GrowthSize = DefaultGrowthSize
	}
	return o
}
