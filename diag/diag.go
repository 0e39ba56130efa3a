// Package diag is the process-visible diagnostic sink. Every component
// reports the success or failure of its steps through a Reporter, which
// writes leveled, colorized lines carrying the caller's file, function and
// line.
package diag

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// NewLogger builds the console logger. format "json" selects the production
// JSON encoder; anything else gives the human console layout, colorized when
// stdout is a terminal.
func NewLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if term.IsTerminal(int(os.Stdout.Fd())) {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.EncoderConfig.ConsoleSeparator = "  "
		cfg.DisableStacktrace = true
	}
	cfg.EncoderConfig.FunctionKey = "func"
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Reporter writes Info and Error lines in printf style. A nil *Reporter
// discards everything, so it may be used before logging is configured.
type Reporter struct {
	log   *zap.Logger
	sugar *zap.SugaredLogger
}

// New wraps l. The caller reported on each line is the code calling the
// Reporter, not the Reporter itself.
func New(l *zap.Logger) *Reporter {
	if l == nil {
		l = zap.NewNop()
	}
	l = l.WithOptions(zap.AddCallerSkip(1))
	return &Reporter{log: l, sugar: l.Sugar()}
}

// Nop returns a Reporter that discards everything.
func Nop() *Reporter {
	return New(zap.NewNop())
}

func (r *Reporter) Info(format string, args ...any) {
	if r == nil {
		return
	}
	r.sugar.Infof(format, args...)
}

func (r *Reporter) Error(format string, args ...any) {
	if r == nil {
		return
	}
	r.sugar.Errorf(format, args...)
}

// With returns a Reporter that adds fields to every line.
func (r *Reporter) With(fields ...zap.Field) *Reporter {
	if r == nil {
		return nil
	}
	l := r.log.With(fields...)
	return &Reporter{log: l, sugar: l.Sugar()}
}

// Skip returns a Reporter that attributes lines n frames further up the
// stack, for helpers that report on behalf of their caller.
func (r *Reporter) Skip(n int) *Reporter {
	if r == nil {
		return nil
	}
	l := r.log.WithOptions(zap.AddCallerSkip(n))
	return &Reporter{log: l, sugar: l.Sugar()}
}

// Logger exposes the underlying logger without the caller adjustment.
func (r *Reporter) Logger() *zap.Logger {
	if r == nil {
		return zap.NewNop()
	}
	return r.log.WithOptions(zap.AddCallerSkip(-1))
}

func (r *Reporter) Sync() error {
	if r == nil {
		return nil
	}
	return r.log.Sync()
}
