// Package logger provides structured logging with colored console output
// and optional file output using log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorGray    = "\033[90m"
)

// coloredAttrKeys maps slog attribute keys to ANSI color codes for value highlighting.
var coloredAttrKeys = map[string]string{
	"channel": colorMagenta,
	"user":    colorCyan,
	"event":   colorMagenta,
}

// Config holds logger configuration options.
type Config struct {
	Level     slog.Level
	FileLevel slog.Level
	Colored   bool
	LogDir    string
	Name      string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		FileLevel: slog.LevelDebug,
		Colored:   true,
	}
}

// Logger wraps slog.Logger with a named prefix for console output.
type Logger struct {
	*slog.Logger
	cfg Config
}

// Setup creates a new Logger based on the provided configuration.
// It sets up console and optional file handlers.
func Setup(cfg Config) (*Logger, error) {
	var handlers []slog.Handler

	consoleHandler := newColorHandler(os.Stdout, cfg.Level, cfg.Colored, cfg.Name)
	handlers = append(handlers, consoleHandler)

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", cfg.LogDir, err)
		}

		filename := "twipsybot.log"
		if cfg.Name != "" {
			filename = cfg.Name + ".log"
		}

		logFile, err := os.OpenFile(
			filepath.Join(cfg.LogDir, filename),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o644,
		)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: cfg.FileLevel,
		})
		handlers = append(handlers, fileHandler)
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = &multiHandler{handlers: handlers}
	}

	return &Logger{
		Logger: slog.New(handler),
		cfg:    cfg,
	}, nil
}

// WithName returns a new Logger with the console prefix set.
func (l *Logger) WithName(name string) *Logger {
	newCfg := l.cfg
	newCfg.Name = name
	newLogger, _ := Setup(newCfg)
	return newLogger
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type colorHandler struct {
	mu      sync.Mutex
	writer  io.Writer
	level   slog.Level
	colored bool
	name    string
	attrs   []slog.Attr
}

func newColorHandler(w io.Writer, level slog.Level, colored bool, name string) *colorHandler {
	return &colorHandler{
		writer:  w,
		level:   level,
		colored: colored,
		name:    name,
	}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := record.Time.Format("02/01/06 15:04:05")
	levelStr := record.Level.String()
	msg := record.Message

	prefix := ""
	if h.name != "" {
		prefix = fmt.Sprintf("[%s] ", h.name)
	}

	if h.colored {
		levelColor := h.levelColor(record.Level)
		fmt.Fprintf(h.writer, "%s%s - %s%s%s - %s%s",
			colorGray, timeStr,
			levelColor, levelStr, colorReset,
			prefix, msg,
		)
	} else {
		fmt.Fprintf(h.writer, "%s - %s - %s%s", timeStr, levelStr, prefix, msg)
	}

	for _, a := range h.attrs {
		h.writeAttr(a)
	}

	record.Attrs(func(a slog.Attr) bool {
		h.writeAttr(a)
		return true
	})

	fmt.Fprintln(h.writer)
	return nil
}

func (h *colorHandler) writeAttr(a slog.Attr) {
	if h.colored {
		if color, ok := coloredAttrKeys[a.Key]; ok {
			fmt.Fprintf(h.writer, " %s=%s%v%s", a.Key, color, a.Value, colorReset)
			return
		}
	}
	fmt.Fprintf(h.writer, " %s=%v", a.Key, a.Value)
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorHandler{
		writer:  h.writer,
		level:   h.level,
		colored: h.colored,
		name:    h.name,
		attrs:   append(copyAttrs(h.attrs), attrs...),
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return &colorHandler{
		writer:  h.writer,
		level:   h.level,
		colored: h.colored,
		name:    h.name,
		attrs:   copyAttrs(h.attrs),
	}
}

func copyAttrs(attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	cp := make([]slog.Attr, len(attrs))
	copy(cp, attrs)
	return cp
}

func (h *colorHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorCyan
	}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (handler *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range handler.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handler *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range handler.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handler *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(handler.handlers))
	for i, h := range handler.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (handler *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(handler.handlers))
	for i, h := range handler.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
