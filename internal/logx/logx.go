// Package logx sets up fsch's logging. Structured event logging (one
// log call per dispatch, archive, hit, or stop) goes through a
// *zap.Logger, the teacher's choice in thread_pool.go. Global level
// control is a small zerolog-based switch generalized from
// logsetup.go's setLogLevel/SetupZeroLog, kept as its own concern
// because the teacher itself kept the two libraries separate.
package logx

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logLevelsMap = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"disabled": zerolog.Disabled,
}

// SetLevel sets the global zerolog level fsch's level-sensitive helpers
// consult, returning an error for an unrecognized level name.
func SetLevel(level string) error {
	lv, exists := logLevelsMap[strings.ToLower(level)]
	if !exists {
		return fmt.Errorf("logx: undefined log level: %v", level)
	}
	zerolog.SetGlobalLevel(lv)
	return nil
}

func zapLevelFor(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds the *zap.Logger every participant (Coordinator,
// each Worker) logs through, honoring the same level string SetLevel
// accepts.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevelFor(level))
	return cfg.Build()
}

// HumanSize formats a byte count for log lines, generalized from
// common.go's KiB/MiB/GiB helpers.
func HumanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
