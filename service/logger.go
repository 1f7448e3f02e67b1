package service

import (
	"io"
	"os"
	"strings"

	"github.com/activebook/lulu/internal/ui"
	log "github.com/sirupsen/logrus"
)

var (
	logger          *log.Logger
	indicatorActive bool // Tracks if indicator was active before logging
	quietIndicator  bool // Dashboard mode: the spinner is never touched
)

func NewLogger() *log.Logger {
	logger = log.New()
	return logger
}

func GetLogger() *log.Logger {
	if logger == nil {
		logger = NewLogger()
	}
	return logger
}

func InitLogger() {
	GetLogger()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.InfoLevel) // Default to Info level initially
	logger.SetFormatter(&log.TextFormatter{
		DisableColors:    false,
		DisableTimestamp: true,
	})
}

// SetLogLevel parses a level name (debug, info, warn, error); unknown
// names leave the level unchanged.
func SetLogLevel(name string) {
	lvl, err := log.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		Warnf("Unknown log level %q, keeping %s", name, GetLogger().GetLevel())
		return
	}
	GetLogger().SetLevel(lvl)
}

// RedirectLog sends log output to w with timestamps and without colours.
// The full-screen dashboard owns the terminal, so it logs to a file instead.
func RedirectLog(w io.Writer) {
	GetLogger().SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	quietIndicator = true
}

func BeforeLog() {
	if logger != nil && !quietIndicator {
		// Stop indicator to avoid overlap
		indicatorActive = ui.GetIndicator().IsActive()
		ui.GetIndicator().Stop()
	}
}

func AfterLog() {
	if logger != nil && !quietIndicator {
		if indicatorActive {
			ui.GetIndicator().Resume()
		}
	}
}

func Infof(format string, args ...interface{}) {
	if logger != nil {
		BeforeLog()
		logger.Infof(format, args...)
		AfterLog()
	}
}

func Debugf(format string, args ...interface{}) {
	if logger != nil {
		if logger.Level == log.DebugLevel {
			BeforeLog()
		}
		logger.Debugf(format, args...)
		if logger.Level == log.DebugLevel {
			AfterLog()
		}
	}
}

func Warnf(format string, args ...interface{}) {
	if logger != nil {
		BeforeLog()
		logger.Warnf(format, args...)
		AfterLog()
	}
}

func Errorf(format string, args ...interface{}) {
	if logger != nil {
		BeforeLog()
		logger.Errorf(format, args...)
		AfterLog()
	}
}
