package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "interrogator.log"

// NewLogger writes JSON lines to a rotating file under logDir and, when
// console is non-nil, human-readable colored lines to console as well.
func NewLogger(logDir string, console io.Writer) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel),
	}

	if console != nil {
		ccfg := zap.NewDevelopmentEncoderConfig()
		ccfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ccfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(ccfg),
			zapcore.Lock(zapcore.AddSync(console)),
			zap.InfoLevel,
		))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}
