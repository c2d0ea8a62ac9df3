// Package jllog defines the log-sink collaborator spec.md §6 pulls out of
// the joint-limit core ("One operation: log(level, message). Used only on
// init and parameter-update paths.") and ships a zap-backed reference
// implementation in the style of go.viam.com/rdk/logging.
package jllog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors spec.md's log(level, message) operation's level parameter.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sink is the pluggable collaborator the Limiter Frontend logs through. It
// is never reached from the Enforce hot path (spec.md §4.2: "No allocation,
// no logging, no I/O inside enforce"), only from Init and the
// parameter-update callback.
type Sink interface {
	Log(level Level, msg string, keysAndValues ...interface{})
}

// Infof, Warnf, and Errorf below are convenience helpers callers use against
// any Sink, matching the leveled convenience methods on
// go.viam.com/rdk/logging.Logger.

// Infof logs msg formatted with args at Info level.
func Infof(s Sink, template string, args ...interface{}) {
	s.Log(Info, sprintf(template, args...))
}

// Warnf logs msg formatted with args at Warn level.
func Warnf(s Sink, template string, args ...interface{}) {
	s.Log(Warn, sprintf(template, args...))
}

// Errorf logs msg formatted with args at Error level.
func Errorf(s Sink, template string, args ...interface{}) {
	s.Log(Error, sprintf(template, args...))
}

// zapSink adapts a *zap.Logger to Sink.
type zapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps a *zap.Logger as a Sink.
func NewZapSink(logger *zap.Logger) Sink {
	return &zapSink{logger: logger}
}

// NewDefaultSink returns a Sink backed by a production zap config logging
// to stderr, matching go.viam.com/rdk/logging.NewLogger's defaults.
func NewDefaultSink(name string) Sink {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op core rather than panicking from a
		// logging constructor.
		logger = zap.NewNop()
	}
	return NewZapSink(logger.Named(name))
}

func (s *zapSink) Log(level Level, msg string, keysAndValues ...interface{}) {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	ce := s.logger.Check(level.zapLevel(), msg)
	if ce != nil {
		ce.Write(fields...)
	}
}

func sprintf(template string, args ...interface{}) string {
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}
