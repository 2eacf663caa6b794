package logging

import (
	"os"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fuel-reconcile/internal/config"
)

// Error is the class of logger construction errors.
var Error = errs.Class("logging")

// New builds the process logger. Production uses JSON on stderr, anything
// else a console encoder with caller info.
func New(cfg config.LogConfig, production bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		level = l
	}

	encoding := cfg.Format
	if encoding == "" {
		encoding = "console"
		if production {
			encoding = "json"
		}
	}

	levelEncoder := zapcore.CapitalLevelEncoder
	if encoding == "console" && !production {
		levelEncoder = zapcore.CapitalColorLevelEncoder
	}

	timeKey := "T"
	if os.Getenv("LOG_NOTIME") != "" {
		timeKey = ""
	}

	logger, err := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       !production,
		DisableCaller:     production,
		DisableStacktrace: production,
		Encoding:          encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        timeKey,
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return logger, nil
}
