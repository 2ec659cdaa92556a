package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logLevelEnv = "LOG_LEVEL"

func NewProductionLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(levelFromEnv(zap.DebugLevel))
	return config.Build()
}

func Suggar(logger *zap.Logger) *zap.SugaredLogger {
	return logger.Sugar()
}

func levelFromEnv(fallback zapcore.Level) zapcore.Level {
	value, ok := os.LookupEnv(logLevelEnv)
	if !ok || value == "" {
		return fallback
	}

	level, err := zapcore.ParseLevel(value)
	if err != nil {
		return fallback
	}
	return level
}
