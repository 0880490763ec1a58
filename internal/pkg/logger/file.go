package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Development switches to the human readable console encoder at debug level
	Development bool
}

// NewWithFile returns a logger writing to stdout and to a size-rotated file
func NewWithFile(fopts *FileOptions, opts ...zap.Option) *zap.Logger {
	rotator := &lumberjack.Logger{
		Filename:   fopts.Filename,
		MaxSize:    fopts.MaxSizeMB,
		MaxBackups: fopts.MaxBackups,
		MaxAge:     fopts.MaxAgeDays,
	}

	level := zapcore.InfoLevel
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if fopts.Development {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(rotator), level),
	)

	return zap.New(core, append([]zap.Option{zap.AddCaller()}, opts...)...)
}
