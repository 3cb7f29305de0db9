package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger собирает zap логгер: stdout и, при необходимости, файл
func NewLogger(env, level, file string) (*zap.Logger, error) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		if err := config.Level.UnmarshalText([]byte(level)); err != nil {
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config.OutputPaths = []string{"stdout"}
	if file != "" {
		// Цветные уровни в файле не нужны
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.OutputPaths = append(config.OutputPaths, file)
	}

	return config.Build()
}
