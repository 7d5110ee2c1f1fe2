package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-optics-engine/pkg/core"
)

// New builds a zap logger writing to stderr with the given level and encoding ("json" or "console")
func New(level, encoding string) (*zap.Logger, error) {
	return NewWithOutput(level, encoding, "stderr")
}

// NewWithOutput builds a zap logger writing to the given path, or "stderr"/"stdout"
func NewWithOutput(level, encoding, output string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if encoding == "" {
		encoding = "console"
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// printer adapts a zap logger to the Printf-style core.Logger
type printer struct {
	logger *zap.Logger
	level  zapcore.Level
}

// Printer returns a core.Logger that writes every message at the given level
func Printer(logger *zap.Logger, level zapcore.Level) core.Logger {
	return &printer{logger: logger, level: level}
}

func (p *printer) Printf(format string, args ...interface{}) {
	if ce := p.logger.Check(p.level, ""); ce != nil {
		ce.Message = strings.TrimRight(fmt.Sprintf(format, args...), "\n")
		ce.Write()
	}
}
