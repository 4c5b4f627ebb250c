package logging

import "github.com/asc1/imagemosaic-load/pkg/mosaic"

// NullLogger discards all log messages.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(format string, args ...any)    {}
func (l *NullLogger) Info(format string, args ...any)     {}
func (l *NullLogger) Warn(format string, args ...any)     {}
func (l *NullLogger) Error(format string, args ...any)    {}
func (l *NullLogger) Critical(format string, args ...any) {}

func (l *NullLogger) With(key string, value any) mosaic.Logger { return l }
