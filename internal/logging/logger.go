package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger that writes JSON to the given log file path
// and also writes to stderr. Session name and PID are included as
// initial fields.
func New(logPath, sessionName string) (*zap.Logger, error) {
	fileCore, err := fileCore(logPath)
	if err != nil {
		return nil, err
	}

	encoderCfg := encoderConfig()
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	stderrCore := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)

	return build(zapcore.NewTee(fileCore, stderrCore), sessionName), nil
}

// NewFileOnly creates a logger writing JSON to the log file only, for
// processes that own the terminal.
func NewFileOnly(logPath, sessionName string) (*zap.Logger, error) {
	core, err := fileCore(logPath)
	if err != nil {
		return nil, err
	}
	return build(core, sessionName), nil
}

func fileCore(logPath string) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig())
	return zapcore.NewCore(jsonEncoder, zapcore.AddSync(file), zapcore.InfoLevel), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func build(core zapcore.Core, sessionName string) *zap.Logger {
	return zap.New(core,
		zap.Fields(
			zap.String("session", sessionName),
			zap.Int("pid", os.Getpid()),
		),
	)
}
