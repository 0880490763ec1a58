package kafka

import (
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// kgoLogger writes the franz-go client logs with the app's logger
type kgoLogger struct {
	level kgo.LogLevel
}

func (kl *kgoLogger) Level() kgo.LogLevel {
	return kl.level
}

func (kl *kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	fields := keyvalFields(keyvals)
	msg = "[kafka] " + msg
	switch level {
	case kgo.LogLevelError:
		logger.Error(msg, fields...)
	case kgo.LogLevelWarn:
		logger.Warn(msg, fields...)
	case kgo.LogLevelInfo:
		logger.Info(msg, fields...)
	case kgo.LogLevelDebug:
		logger.Debug(msg, fields...)
	case kgo.LogLevelNone:
	}
}

func keyvalFields(keyvals []any) []zap.Field {
	fields := make([]zap.Field, 0, len(keyvals)/2+1)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprintf("%v", keyvals[i]), keyvals[i+1]))
	}
	if len(keyvals)%2 != 0 {
		fields = append(fields, zap.Any("extra", keyvals[len(keyvals)-1]))
	}
	return fields
}
