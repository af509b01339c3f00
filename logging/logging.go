// Package logging builds the zap loggers used by the server and the
// terminal client.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a console-encoded logger writing to a rotating file, or to
// stderr when filePath is empty. level is one of debug|info|warn|error.
func New(filePath, level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	sink := zapcore.Lock(os.Stderr)
	if filePath != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, lvl)
	return zap.New(core, zap.AddCaller()).Sugar(), nil
}

// Nop discards everything.
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
