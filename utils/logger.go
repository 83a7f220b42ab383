package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerOptions mirrors the logging section of the production config
type LoggerOptions struct {
	Level      string
	Format     string // json, console
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	WithCaller bool
}

// SetupLogger configures the global zerolog logger and returns a closer for the rotating file, if any
func SetupLogger(opts LoggerOptions) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var stdout io.Writer = os.Stdout
	if opts.Format == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	var rotator *lumberjack.Logger
	if (opts.Output == "file" || opts.Output == "both") && opts.FilePath != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
	}

	var w io.Writer
	switch {
	case rotator != nil && opts.Output == "both":
		w = zerolog.MultiLevelWriter(stdout, rotator)
	case rotator != nil:
		w = rotator
	default:
		w = stdout
	}

	ctx := zerolog.New(w).With().Timestamp()
	if opts.WithCaller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if rotator == nil {
		return io.NopCloser(nil)
	}
	return rotator
}
