package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewHandler_Formats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(newHandler(&buf, "info", "")).Info("server.start", "addr", ":8080")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("default format is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "server.start" || rec["addr"] != ":8080" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["source"]; !ok {
		t.Fatalf("expected source attribute")
	}

	buf.Reset()
	slog.New(newHandler(&buf, "info", "TEXT")).Info("server.start")
	if !strings.Contains(buf.String(), "msg=server.start") {
		t.Fatalf("text format: %q", buf.String())
	}

	buf.Reset()
	slog.New(newHandler(&buf, "info", "pretty")).Info("server.start")
	if !strings.Contains(buf.String(), "msg=server.start") || !strings.Contains(buf.String(), "lvl=[INFO]") {
		t.Fatalf("pretty format: %q", buf.String())
	}
}
