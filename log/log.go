package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to w.
// Format must be one of: console or json.
// Level is any zap level name; unknown levels fall back to info.
func New(w zapcore.WriteSyncer, format string, level string) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	}
	config.LevelKey = "lvl"

	enc := zapcore.NewConsoleEncoder(config)
	if format == "json" {
		enc = zapcore.NewJSONEncoder(config)
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zap.New(zapcore.NewCore(enc, w, lvl))
}

// Nop returns a no-op logger
func Nop() *zap.Logger {
	return zap.NewNop()
}

// LoggerCloser is a logger together with the file it writes to, if any.
type LoggerCloser struct {
	*zap.Logger
	io.Closer
	FilePath string
}

// Open returns a logger writing to dest, which is "stderr", "stdout" or a file path.
// An empty dest means stderr. Parent directories of a file are created.
func Open(dest, format, level string) (lc LoggerCloser, _ error) {
	var w zapcore.WriteSyncer
	switch dest {
	case "stderr", "":
		w = os.Stderr
		lc.FilePath = "stderr"
	case "stdout":
		w = os.Stdout
		lc.FilePath = "stdout"
	default:
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return lc, fmt.Errorf("mkdirall: %w", err)
		}
		file, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return lc, fmt.Errorf("create log file: %w", err)
		}
		w = file
		lc.Closer = file
		lc.FilePath = file.Name()
	}
	lc.Logger = New(w, format, level)
	return lc, nil
}

func (lc LoggerCloser) Close() error {
	// ignore error because of https://github.com/uber-go/zap/issues/880 with stderr/stdout
	_ = lc.Logger.Sync()
	if lc.Closer == nil {
		return nil
	}
	return lc.Closer.Close()
}
