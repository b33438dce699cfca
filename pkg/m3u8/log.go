package m3u8

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMu     sync.RWMutex
	pkgLogger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// ConfigureLogging replaces the package logger. Verbose enables debug output.
func ConfigureLogging(w io.Writer, verbose bool) {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	logMu.Lock()
	pkgLogger = zerolog.New(w).With().Timestamp().Logger().Level(level)
	logMu.Unlock()
}

// Logger returns the package logger
func Logger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return pkgLogger
}

func withComponent(l *zerolog.Logger, component string) zerolog.Logger {
	if l == nil {
		b := Logger()
		l = &b
	}
	return l.With().Str("component", component).Logger()
}
