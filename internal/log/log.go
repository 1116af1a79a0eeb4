// Package log builds the zap logger used across w3canvas.
//
// The terminal belongs to the TUI, so entries go to a rotating file under the
// config directory instead of stderr.
package log

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFile = "w3canvas.log"

// Options configures New.
type Options struct {
	Dir        string // directory for w3canvas.log
	Level      string // debug | info | warn | error
	MaxSizeMB  int
	MaxBackups int
}

// New returns a JSON logger writing into a lumberjack-rotated file.
func New(opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, err
	}
	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, logFile),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), writer, ParseLevel(opts.Level))
	return zap.New(core, zap.AddCaller()), nil
}

// ParseLevel maps a config string to a zap level. Unknown values mean info.
func ParseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Nop returns a logger that discards everything (tests, --help).
func Nop() *zap.Logger { return zap.NewNop() }
