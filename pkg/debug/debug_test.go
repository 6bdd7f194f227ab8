package debug

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// withCategories enables s for the duration of the test.
func withCategories(t *testing.T, s string) {
	t.Helper()
	orig := enabled.Load()
	set(parseCategories(s))
	t.Cleanup(func() { enabled.Store(orig) })
}

// captureDefault routes the default logger into a buffer at level.
func captureDefault(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	orig := slog.Default()
	var buf bytes.Buffer
	slog.SetDefault(slog.New(NewHandler(&buf, "text", level)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Category
	}{
		{"empty", "", nil},
		{"single", "auth", []Category{Auth}},
		{"multiple", "auth,ratelimit", []Category{Auth, RateLimit}},
		{"spaces and case", " AUTH , Storage ", []Category{Auth, Storage}},
		{"empty segments", "auth,,storage,", []Category{Auth, Storage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for _, c := range tt.want {
				if !got[c] {
					t.Errorf("%q missing from %v", c, got)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	withCategories(t, "auth,ratelimit")

	tests := []struct {
		category Category
		want     bool
	}{
		{Auth, true},
		{RateLimit, true},
		{Storage, false},
		{All, false},
	}
	for _, tt := range tests {
		if got := Enabled(tt.category); got != tt.want {
			t.Errorf("Enabled(%q) = %v, want %v", tt.category, got, tt.want)
		}
	}
}

func TestAllEnablesEverything(t *testing.T) {
	withCategories(t, "all")

	for _, c := range []Category{Auth, Storage, "custom"} {
		if !Enabled(c) {
			t.Errorf("%s should be enabled via all", c)
		}
	}
}

func TestCategoriesSorted(t *testing.T) {
	withCategories(t, "transport,auth")

	got := Categories()
	if len(got) != 2 || got[0] != Auth || got[1] != Transport {
		t.Errorf("Categories() = %v, want [auth transport]", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogTagsCategory(t *testing.T) {
	withCategories(t, "auth")
	buf := captureDefault(t, slog.LevelDebug)

	Log(Auth, "token rejected", "reason", "expired")
	Log(Storage, "hidden")

	out := buf.String()
	if !strings.Contains(out, "debug=auth") || !strings.Contains(out, "reason=expired") {
		t.Errorf("output = %q, want category and args", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("disabled category logged: %q", out)
	}
}

func TestTraceNeedsTraceLevel(t *testing.T) {
	withCategories(t, "ratelimit")

	buf := captureDefault(t, slog.LevelDebug)
	Trace(RateLimit, "window hit")
	if buf.Len() != 0 {
		t.Errorf("trace logged at DEBUG: %q", buf.String())
	}

	buf = captureDefault(t, LevelTrace)
	Trace(RateLimit, "window hit")
	if !strings.Contains(buf.String(), "window hit") {
		t.Errorf("trace missing at TRACE: %q", buf.String())
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "JSON", slog.LevelInfo)).Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}
}

func TestInitEnvironmentWins(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })
	withCategories(t, "")

	t.Setenv("LETSPLAY_DEBUG", "storage")
	t.Setenv("LETSPLAY_LOG_LEVEL", "")
	t.Setenv("LETSPLAY_LOG_FORMAT", "")

	Init(Options{Categories: "auth", Level: "DEBUG"})

	if !Enabled(Storage) || Enabled(Auth) {
		t.Errorf("Categories() = %v, want [storage]", Categories())
	}
	if !slog.Default().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("config level DEBUG not applied")
	}
}
