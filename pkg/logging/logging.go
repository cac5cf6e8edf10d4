package logging

import (
	"io"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/config"
)

const (
	maxLogFileSizeMB  = 50
	maxLogFileBackups = 5
	maxLogFileAgeDays = 14
)

// Setup points the global zerolog logger at out, and at a rotating log file
// when one is configured. The returned closer releases the log file.
func Setup(cfg config.LoggingConfig, out io.Writer) io.Closer {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Format == "JSON" {
		writers = append(writers, out)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxLogFileSizeMB,
			MaxBackups: maxLogFileBackups,
			MaxAge:     maxLogFileAgeDays,
			Compress:   true,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger().Level(level)

	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
