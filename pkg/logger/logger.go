package logger

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init — собирает production-конфиг zap.
// Вызывать один раз из main до любых Info/Error.
func Init() func() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	base = l

	return func() { _ = base.Sync() }
}

func Info(format string, args ...interface{}) {
	if base == nil {
		panic("logger is not initialized")
	}

	msg := fmt.Sprintf(format, args...)
	base.With(
		zap.String("service", serviceName),
	).Info(msg)
}

func Error(format string, args ...interface{}) {
	if base == nil {
		panic("logger is not initialized")
	}

	msg := fmt.Sprintf(format, args...)
	base.With(
		zap.String("service", serviceName),
	).Error(msg)
}

func Fatal(format string, args ...interface{}) {
	if base == nil {
		panic("logger is not initialized")
	}

	msg := fmt.Sprintf(format, args...)
	base.With(
		zap.String("service", serviceName),
	).Fatal(msg)
}
