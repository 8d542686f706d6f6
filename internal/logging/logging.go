package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"career-bingo/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
)

// Init configures the global zerolog logger. When cfg.File is set, logs are
// written to stdout and to a size-capped file.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var raw io.Writer = os.Stdout
	if f := strings.TrimSpace(cfg.File); f != "" {
		w, err := newSizeLimitedWriter(f, cfg.MaxMB)
		if err != nil {
			log.Error().Err(err).Str("file", f).Msg("open log file failed; logging to stdout only")
		} else {
			raw = io.MultiWriter(os.Stdout, w)
		}
	}
	mu.Lock()
	output = raw
	mu.Unlock()

	var console io.Writer = raw
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: raw}
	}

	zerolog.SetGlobalLevel(level)
	lctx := zerolog.New(console).With().Timestamp()
	if svc := strings.TrimSpace(cfg.Service); svc != "" {
		lctx = lctx.Str("service", svc)
	}
	logger := lctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer is the raw destination chosen by Init, for loggers that do their own
// encoding such as the HTTP request logger.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}
