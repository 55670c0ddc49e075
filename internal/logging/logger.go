package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys shared by the encoder, the injector and the CLI
const (
	KeyScript      = "script"
	KeyInjectionID = "injection_id"
	KeyStages      = "stages"
	KeyEncoded     = "encoded"
	KeyBytes       = "bytes"
)

// Logger wraps zap.Logger with the fields scriptenc components attach.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// Output receives encoded entries; nil means stderr
	Output zapcore.WriteSyncer
}

// DefaultConfig logs JSON at info level.
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// DevelopmentConfig logs colored console lines at debug level.
func DevelopmentConfig() Config {
	return Config{Level: "debug", Development: true}
}

// New creates a logger. Logs go to stderr so stdout stays reserved for payloads.
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var enc zapcore.Encoder
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.MessageKey = "message"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeDuration = zapcore.MillisDurationEncoder
		enc = zapcore.NewJSONEncoder(ec)
	}

	return &Logger{Logger: zap.New(zapcore.NewCore(enc, out, level), opts...)}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.Named(component)}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// ForScript tags every entry with the script label.
func (l *Logger) ForScript(label string) *Logger {
	return l.With(Script(label))
}

// ForInjection tags every entry with an injection ID.
func (l *Logger) ForInjection(id string) *Logger {
	return l.With(InjectionID(id))
}

func Script(label string) zap.Field { return zap.String(KeyScript, label) }

func InjectionID(id string) zap.Field { return zap.String(KeyInjectionID, id) }

func Encoded(encoded bool) zap.Field { return zap.Bool(KeyEncoded, encoded) }

func Bytes(n int) zap.Field { return zap.Int(KeyBytes, n) }

// Stages records pipeline stage names in the order they ran.
func Stages[S ~string](stages []S) zap.Field {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return zap.Strings(KeyStages, names)
}

// Elapsed records a duration under "duration".
func Elapsed(d time.Duration) zap.Field { return zap.Duration("duration", d) }
