package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the logging surface used across the application.
// Key-value pairs are passed as alternating key, value arguments.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Fatal(msg string, kv ...interface{})
}

type zerologLogger struct {
	log zerolog.Logger
}

// New builds a Logger writing JSON to stderr at the given level
// (debug, info, warn, error). Unknown levels fall back to info.
func New(level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{log: l}
}

func (z *zerologLogger) Debug(msg string, kv ...interface{}) {
	z.emit(z.log.Debug(), msg, kv)
}

func (z *zerologLogger) Info(msg string, kv ...interface{}) {
	z.emit(z.log.Info(), msg, kv)
}

func (z *zerologLogger) Warn(msg string, kv ...interface{}) {
	z.emit(z.log.Warn(), msg, kv)
}

func (z *zerologLogger) Error(msg string, kv ...interface{}) {
	z.emit(z.log.Error(), msg, kv)
}

func (z *zerologLogger) Fatal(msg string, kv ...interface{}) {
	z.emit(z.log.Fatal(), msg, kv)
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
