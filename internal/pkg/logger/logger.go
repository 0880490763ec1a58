// Package logger is the standardized (zap based) logger used across the app
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ContextFields extracts the fields (e.g. env, trace id) which should be part of every log
// written with a context
type ContextFields func(ctx context.Context) []zap.Field

var (
	logHandler          *zap.Logger
	contextFieldsSetter ContextFields
)

func init() { //nolint:gochecknoinits // it is essential for this package
	logHandler, _ = zap.NewProduction(zap.AddCallerSkip(1))
	zap.ReplaceGlobals(logHandler)
}

// SetGlobal overwrites the logger used by all the functions of this package
func SetGlobal(zl *zap.Logger) {
	logHandler = zl
}

func SetContextFieldsSetter(fn ContextFields) {
	contextFieldsSetter = fn
}

func withContextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if contextFieldsSetter == nil || ctx == nil {
		return fields
	}
	return append(fields, contextFieldsSetter(ctx)...)
}

// ErrWithStacktrace logs an error along with its stacktrace, if available
func ErrWithStacktrace(err error) {
	logHandler.Error(fmt.Sprintf("%+v", err))
}

// ErrWithStacktraceCtx is ErrWithStacktrace with the context fields added
func ErrWithStacktraceCtx(ctx context.Context, err error) {
	logHandler.Error(fmt.Sprintf("%+v", err), withContextFields(ctx, nil)...)
}

// Info is meant for startup & clean exit messages, which have no context
func Info(msg string, fields ...zap.Field) {
	logHandler.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	logHandler.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logHandler.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logHandler.Error(msg, fields...)
}

// Fatal logs and then exits the app with os.Exit(1)
func Fatal(msg string, fields ...zap.Field) {
	logHandler.Fatal(msg, fields...)
}

func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	logHandler.Info(msg, withContextFields(ctx, fields)...)
}

func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	logHandler.Debug(msg, withContextFields(ctx, fields)...)
}

func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	logHandler.Warn(msg, withContextFields(ctx, fields)...)
}

func ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	logHandler.Error(msg, withContextFields(ctx, fields)...)
}

func FatalCtx(ctx context.Context, msg string, fields ...zap.Field) {
	logHandler.Fatal(msg, withContextFields(ctx, fields)...)
}
