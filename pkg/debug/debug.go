// Package debug controls log verbosity for letsplay.
//
// Categories select WHAT gets debug output and the level selects HOW MUCH:
//
//	LETSPLAY_DEBUG=auth,ratelimit LETSPLAY_LOG_LEVEL=TRACE ./server
//
// Both may also come from the logging section of the config file; the
// environment wins. At TRACE every rate limiter decision is logged.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
)

// Category names a subsystem with its own debug switch.
type Category string

// Known categories. All enables every category.
const (
	Auth      Category = "auth"
	RateLimit Category = "ratelimit"
	Storage   Category = "storage"
	Transport Category = "transport"
	Config    Category = "config"
	All       Category = "all"
)

var known = []Category{Auth, RateLimit, Storage, Transport, Config, All}

// LevelTrace is below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// Options configures Init. Empty fields fall back to the environment and
// then to the defaults (no categories, INFO, text).
type Options struct {
	Categories string
	Level      string
	Format     string // "text" or "json"
}

var enabled atomic.Pointer[map[Category]bool]

func init() {
	set(parseCategories(os.Getenv("LETSPLAY_DEBUG")))
}

func set(m map[Category]bool) {
	enabled.Store(&m)
}

// Init installs the default slog logger on stderr and enables the
// requested categories. Unknown category names are reported with a warning
// and otherwise ignored.
func Init(opts Options) {
	cats := envOr("LETSPLAY_DEBUG", opts.Categories)
	level := envOr("LETSPLAY_LOG_LEVEL", opts.Level)
	format := envOr("LETSPLAY_LOG_FORMAT", opts.Format)

	parsed := parseCategories(cats)
	set(parsed)
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, ParseLevel(level))))

	for c := range parsed {
		if !slices.Contains(known, c) {
			slog.Warn("unknown debug category", "category", string(c))
		}
	}
}

// NewHandler returns a JSON handler when format is "json" and a text
// handler otherwise.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Enabled reports whether debug output is active for category.
func Enabled(category Category) bool {
	m := *enabled.Load()
	return m[All] || m[category]
}

// Log emits a debug message tagged with category when it is enabled.
func Log(category Category, msg string, args ...any) {
	emit(slog.LevelDebug, category, msg, args)
}

// Trace is Log at LevelTrace.
func Trace(category Category, msg string, args ...any) {
	emit(LevelTrace, category, msg, args)
}

func emit(level slog.Level, category Category, msg string, args []any) {
	if !Enabled(category) {
		return
	}
	logger := slog.Default()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.Log(ctx, level, msg, append([]any{"debug", string(category)}, args...)...)
}

// ParseLevel converts a level name to a slog.Level. Unknown names yield INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []Category {
	m := *enabled.Load()
	out := make([]Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func parseCategories(s string) map[Category]bool {
	m := make(map[Category]bool)
	for cat := range strings.SplitSeq(s, ",") {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat != "" {
			m[Category(cat)] = true
		}
	}
	return m
}
