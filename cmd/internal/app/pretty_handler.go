package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one key=value line per record for local development
// (SAMPLEAPP_LOG_FORMAT=pretty). The http.request fields and the ids the
// handlers log get short labels and, when color is on, ANSI colors.
type prettyHandler struct {
	w      io.Writer
	level  slog.Leveler
	prefix string // dotted group path for attrs added after WithGroup
	attrs  []byte // pre-rendered WithAttrs output
	color  bool
	mu     *sync.Mutex
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) slog.Handler {
	h := &prettyHandler{w: w, level: slog.LevelInfo, color: color, mu: &sync.Mutex{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, "ts="...)
	buf = append(buf, h.paint(ts.Format("15:04:05.000"), ansiDim)...)
	buf = append(buf, " lvl="...)
	buf = append(buf, h.levelTag(r.Level)...)
	buf = append(buf, " msg="...)
	buf = append(buf, h.paint(r.Message, ansiBright)...)
	buf = append(buf, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		cp.attrs = h.appendAttr(cp.attrs, h.prefix, a)
	}
	return &cp
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	name = strings.TrimSpace(name)
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = joinKey(h.prefix, name)
	return &cp
}

func (h *prettyHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) || strings.TrimSpace(a.Key) == "" {
		return buf
	}
	key := joinKey(prefix, strings.TrimSpace(a.Key))

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, key, ga)
		}
		return buf
	}

	label, value := key, quoteIfNeeded(a.Value.String())
	if f, ok := prettyFields[key]; ok {
		label, value = f.label, f.render(h, a.Value)
	}
	buf = append(buf, ' ')
	buf = append(buf, label...)
	buf = append(buf, '=')
	return append(buf, value...)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

type prettyField struct {
	label  string
	render func(h *prettyHandler, v slog.Value) string
}

// prettyFields covers the top-level keys of http.request records plus the
// ids and errors the API, feed and stores attach.
var prettyFields = map[string]prettyField{
	"method": {"method", func(h *prettyHandler, v slog.Value) string {
		m := strings.ToUpper(strings.TrimSpace(v.String()))
		return h.paint(m, methodColors[m])
	}},
	"path": {"path", func(h *prettyHandler, v slog.Value) string {
		return h.paint(quoteIfNeeded(v.String()), ansiCyan)
	}},
	"status": {"status", func(h *prettyHandler, v slog.Value) string {
		code, ok := intValue(v)
		if !ok {
			return quoteIfNeeded(v.String())
		}
		return h.paint(strconv.FormatInt(code, 10), statusColor(int(code)))
	}},
	"status_class": {"class", func(h *prettyHandler, v slog.Value) string {
		class := v.String()
		code := 0
		if class != "" {
			code = int(class[0]-'0') * 100
		}
		return h.paint(class, statusColor(code))
	}},
	"duration_ms": {"duration", func(h *prettyHandler, v slog.Value) string {
		ms, ok := intValue(v)
		if !ok {
			return quoteIfNeeded(v.String())
		}
		color := ansiDim
		switch {
		case ms >= 1000:
			color = ansiRed
		case ms >= 250:
			color = ansiYellow
		}
		return h.paint(strconv.FormatInt(ms, 10)+"ms", color)
	}},
	"result": {"result", func(h *prettyHandler, v slog.Value) string {
		r := strings.ToLower(v.String())
		return h.paint(r, resultColors[r])
	}},
	"err":          {"err", renderError},
	"request_id":   {"request_id", renderID},
	"user_id":      {"user", renderID},
	"micropost_id": {"micropost", renderID},
	"client_id":    {"client", renderID},
}

func intValue(v slog.Value) (int64, bool) {
	if v.Kind() == slog.KindInt64 {
		return v.Int64(), true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
	return n, err == nil
}

func renderID(h *prettyHandler, v slog.Value) string {
	return h.paint(quoteIfNeeded(v.String()), ansiDim)
}

func renderError(h *prettyHandler, v slog.Value) string {
	return h.paint(quoteIfNeeded(v.String()), ansiRed)
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

const (
	ansiReset   = "\x1b[0m"
	ansiBright  = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

var methodColors = map[string]string{
	http.MethodGet:    ansiBlue,
	http.MethodHead:   ansiBlue,
	http.MethodPost:   ansiGreen,
	http.MethodPut:    ansiYellow,
	http.MethodPatch:  ansiYellow,
	http.MethodDelete: ansiRed,
}

var resultColors = map[string]string{
	"success":      ansiGreen,
	"redirect":     ansiCyan,
	"client_error": ansiYellow,
	"server_error": ansiRed,
}

func (h *prettyHandler) levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.paint("[ERROR]", ansiRed)
	case level >= slog.LevelWarn:
		return h.paint("[WARN]", ansiYellow)
	case level >= slog.LevelInfo:
		return h.paint("[INFO]", ansiBlue)
	default:
		return h.paint("[DEBUG]", ansiMagenta)
	}
}

func statusColor(code int) string {
	switch {
	case code >= 500:
		return ansiRed
	case code >= 400:
		return ansiYellow
	case code >= 300:
		return ansiCyan
	default:
		return ansiGreen
	}
}

// paint wraps s in code. Unknown values (code == "") stay plain.
func (h *prettyHandler) paint(s, code string) string {
	if !h.color || code == "" {
		return s
	}
	return code + s + ansiReset
}

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes color sequences.
func stripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}
