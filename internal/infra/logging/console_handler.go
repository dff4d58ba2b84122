package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// ConsoleHandler renders records as single human readable lines followed by
// the calling function.
type ConsoleHandler struct {
	Output io.Writer
	Level  slog.Leveler
	// PkgLevels maps logger name prefixes to minimum levels. The longest
	// matching prefix wins; the empty key applies to every logger.
	PkgLevels map[string]slog.Level
	NoColor   bool

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

func (h *ConsoleHandler) color(code string) string {
	if h.NoColor {
		return ""
	}

	return code
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if !h.pkgEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(h.color(ansiCodeGray) + r.Time.Format("15:04:05.000000") + h.color(ansiCodeReset))
	sb.WriteString(" " + h.color(ansiCodeMap[r.Level]) + "[" + r.Level.String() + "]" + h.color(ansiCodeReset))
	sb.WriteString(" " + r.Message)

	var prefix string
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(attrs) > 0 {
		sb.WriteString(" " + h.color(ansiCodeGray) + "|" + h.color(ansiCodeReset))
		h.renderAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		fn := strings.Split(frame.Function, string(os.PathSeparator))

		sb.WriteString("\n-> " + h.color(ansiCodeGray) + fn[len(fn)-1] + "()")
		sb.WriteString(" in " + h.color(ansiCodeUnderline) + frame.File + ":" + strconv.Itoa(frame.Line) + h.color(ansiCodeReset))
	}

	_, err := fmt.Fprintln(h.Output, sb.String())

	//nolint:wrapcheck
	return err
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			return attr.Value.String()
		}
	}

	return ""
}

func (h *ConsoleHandler) pkgEnabled(name string, level slog.Level) bool {
	parts := strings.Split(name, ".")

	for i := len(parts); i >= 0; i-- {
		threshold, ok := h.PkgLevels[strings.Join(parts[:i], ".")]
		if ok {
			return level >= threshold
		}
	}

	return level >= h.Level.Level()
}

func (h *ConsoleHandler) renderAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			h.renderAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key)
		sb.WriteString("=" + h.color(ansiCodeGray) + attr.Value.String() + h.color(ansiCodeReset))
	}
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		NoColor:   h.NoColor,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	c := h.clone()
	c.attrs = append(c.attrs, attrs...)

	return c
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	c := h.clone()
	c.groups = append(c.groups, name)

	return c
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if len(h.PkgLevels) > 0 {
		// per-package overrides may lower the threshold, decided in Handle
		return true
	}

	return h.Level.Level() <= level
}
