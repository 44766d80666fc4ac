package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	NoColor       bool
	Writer        io.Writer
}

// Logger wraps zerolog behind the small surface the rest of the program
// uses. The zero-value pointer is safe: every method no-ops on nil.
type Logger struct {
	zl zerolog.Logger
}

// New creates a configured Logger. Level defaults to info, writer to
// stdout. HumanReadable switches to the console writer; structured JSON
// otherwise.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		console.NoColor = opts.NoColor
		output = console
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything. Handy default for
// library constructors handed a nil logger.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithFields returns a derived logger that always writes the supplied
// fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}

	builder := l.zl.With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}

	derived := Logger{zl: builder.Logger()}
	return &derived
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.zl.Debug().Msg(msg)
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.zl.Info().Msg(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.zl.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.zl.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
