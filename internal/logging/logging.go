// Package logging builds the zap loggers used across axiom.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names, so log lines from different packages line up.
const (
	FieldComponent = "component"
	FieldCode      = "code"
	FieldStrategy  = "strategy"
	FieldPath      = "path"
	FieldCount     = "count"
)

// ErrLevel is returned for an unrecognized level name.
var ErrLevel = errors.New("unknown log level")

// ParseLevel maps debug|info|warn|error to a zap level. Case-insensitive.
func ParseLevel(name string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return lvl, errors.Wrapf(ErrLevel, "%q", name)
	}
	return lvl, nil
}

// New builds a logger writing to w at the named level. json selects the
// production JSON encoder; otherwise a console encoder without timestamps.
// A nil w means stderr, keeping stdout free for command output.
func New(level string, json bool, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// Component tags l with a component name.
func Component(l *zap.Logger, name string) *zap.Logger {
	return l.With(zap.String(FieldComponent, name))
}
