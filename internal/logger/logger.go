// Package logger provides the process-wide structured logger.
//
// Call sites use key/value pairs:
//
//	logger.Info("movie created", "id", movie.ID, "tconst", movie.ImdbTconst)
//
// Components that want their own prefix take a named child with Named.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.RWMutex
	root hclog.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "moviedb",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// Options controls how the root logger is built.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // "json" or "text"
	Output io.Writer
}

// Configure replaces the root logger. Named loggers taken before the call keep
// their previous settings.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := hclog.New(&hclog.LoggerOptions{
		Name:       "moviedb",
		Level:      ParseLevel(opts.Level),
		Output:     out,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
	})

	mu.Lock()
	root = l
	mu.Unlock()
}

// ParseLevel maps a level name to an hclog level, defaulting to info.
func ParseLevel(level string) hclog.Level {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}

// SetLevel changes the level of the root logger in place.
func SetLevel(level string) {
	Get().SetLevel(ParseLevel(level))
}

// Get returns the root logger.
func Get() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Named returns a sub-logger for a component.
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// Info logs informational messages
func Info(msg string, keyvals ...interface{}) {
	Get().Info(msg, keyvals...)
}

// Warn logs warning messages
func Warn(msg string, keyvals ...interface{}) {
	Get().Warn(msg, keyvals...)
}

// Error logs error messages
func Error(msg string, keyvals ...interface{}) {
	Get().Error(msg, keyvals...)
}

// Debug logs debug messages
func Debug(msg string, keyvals ...interface{}) {
	Get().Debug(msg, keyvals...)
}
