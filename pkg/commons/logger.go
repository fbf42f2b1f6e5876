// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the leveled logger passed into every component.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Benchmark logs how long an operation took.
	Benchmark(functionName string, duration time.Duration)

	// With returns a child logger carrying the given key/value pairs.
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

type applicationLogger struct {
	*zap.SugaredLogger
}

type loggerConfig struct {
	name  string
	level string
	path  string
}

// LoggerOption configures NewApplicationLogger.
type LoggerOption func(*loggerConfig)

// Name sets the logger name attached to every entry.
func Name(name string) LoggerOption {
	return func(c *loggerConfig) { c.name = name }
}

// Level sets the minimum level (debug, info, warn, error).
func Level(level string) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

// Path enables a rotated log file in addition to stdout.
func Path(path string) LoggerOption {
	return func(c *loggerConfig) { c.path = path }
}

// NewApplicationLogger builds a zap-backed Logger writing JSON to stdout and,
// when a path is configured, to a lumberjack-rotated file.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	cfg := &loggerConfig{name: "intake-relay", level: "debug"}
	for _, opt := range opts {
		opt(cfg)
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.level))); err != nil {
		level.SetLevel(zapcore.DebugLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), level),
	}
	if cfg.path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.path,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), level))
	}

	lg := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).Named(cfg.name)
	return &applicationLogger{lg.Sugar()}, nil
}

func (l *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	l.SugaredLogger.Debugw("benchmark", "function", functionName, "duration", duration.String())
}

func (l *applicationLogger) With(keysAndValues ...interface{}) Logger {
	return &applicationLogger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *applicationLogger) Sync() error {
	return l.SugaredLogger.Sync()
}
