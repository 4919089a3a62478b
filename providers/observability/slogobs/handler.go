package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// Handler is a slog.Handler rendering compact, pretty or JSON output.
// Handlers derived through WithAttrs and WithGroup share the parent's writer
// lock so lines never interleave.
type Handler struct {
	format Format
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	Output io.Writer // defaults to os.Stdout
	Colors bool      // ignored for FormatJSON
}

// NewHandler builds a Handler. Colors are switched on automatically when the
// output is a terminal and the format is not JSON.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	handler := &Handler{
		format: opts.Format,
		level:  opts.Level,
		output: opts.Output,
		colors: opts.Colors,
		mu:     &sync.Mutex{},
	}
	if handler.output == nil {
		handler.output = os.Stdout
	}
	if handler.format == "" {
		handler.format = FormatCompact
	}
	if handler.level == nil {
		handler.level = slog.LevelInfo
	}
	if handler.format == FormatJSON {
		handler.colors = false
	} else if !handler.colors {
		if f, ok := handler.output.(*os.File); ok {
			handler.colors = isTerminal(f)
		}
	}

	return handler
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var line []byte
	var err error

	switch h.format {
	case FormatPretty:
		line = h.renderPretty(r)
	case FormatJSON:
		line, err = h.renderJSON(r)
	default:
		line = h.renderCompact(r)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clone(h.attrs), attrs...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

func (h *Handler) renderCompact(r slog.Record) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(time.DateTime)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, fmt.Sprintf("%5s", levelString(r.Level)))
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		buf = append(buf, " → "...)
		encoded, err := json.Marshal(attrs)
		if err != nil {
			buf = append(buf, "[unencodable attributes]"...)
		} else {
			buf = append(buf, encoded...)
		}
	}

	return append(buf, '\n')
}

// renderPretty writes the header line followed by one attribute per line in
// key order, drawn as a small tree.
func (h *Handler) renderPretty(r slog.Record) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(time.DateTime)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, fmt.Sprintf("%-5s", levelString(r.Level)))
	buf = append(buf, "  "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	attrs := h.collectAttrs(r)
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for i, key := range keys {
		branch := "├─ "
		if i == len(keys)-1 {
			branch = "└─ "
		}
		buf = append(buf, "                    "...)
		buf = append(buf, branch...)
		buf = append(buf, key...)
		buf = append(buf, ": "...)
		buf = append(buf, fmt.Sprintf("%v", attrs[key])...)
		buf = append(buf, '\n')
	}

	return buf
}

func (h *Handler) renderJSON(r slog.Record) ([]byte, error) {
	data := h.collectAttrs(r)
	data["time"] = r.Time.Format(time.RFC3339)
	data["level"] = levelString(r.Level)
	data["msg"] = r.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) appendLevel(buf []byte, level string) []byte {
	if !h.colors {
		return append(buf, level...)
	}
	buf = append(buf, colorForLevel(level)...)
	buf = append(buf, level...)
	return append(buf, colorReset...)
}

// collectAttrs flattens handler and record attributes into one map. Group
// names prefix the key with dots; durations and errors are stringified so
// JSON output stays readable.
func (h *Handler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		h.addAttr(attrs, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.addAttr(attrs, attr)
		return true
	})
	return attrs
}

func (h *Handler) addAttr(attrs map[string]any, attr slog.Attr) {
	key := attr.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindDuration:
		attrs[key] = value.Duration().String()
	case slog.KindGroup:
		for _, member := range value.Group() {
			h.addAttr(attrs, slog.Attr{Key: attr.Key + "." + member.Key, Value: member.Value})
		}
	default:
		if err, ok := value.Any().(error); ok {
			attrs[key] = err.Error()
			return
		}
		attrs[key] = value.Any()
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level string) string {
	switch strings.TrimSpace(level) {
	case "TRACE":
		return colorGray
	case "DEBUG":
		return colorBlue
	case "INFO":
		return colorGreen
	case "WARN":
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
