package log

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
)

// handler adapts slog records to the Entry pipeline of a BaseLogger: redaction
// and sampling first, then the logger's formatter and every output.
type handler struct {
	base   *BaseLogger
	attrs  []slog.Attr
	prefix string
	redact map[string]bool
	sample *sampler
}

func newHandler(base *BaseLogger, redact []string, initial, thereafter int) *handler {
	h := &handler{base: base}
	if len(redact) > 0 {
		h.redact = make(map[string]bool, len(redact))
		for _, k := range redact {
			h.redact[k] = true
		}
	}
	if thereafter > 0 {
		h.sample = newSampler(initial, thereafter)
	}
	return h
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.base.level.get() <= fromSlogLevel(level)
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	if h.sample != nil && !h.sample.allow(r.Level, r.Message) {
		return nil
	}

	fields := make(Fields, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		h.put(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(fields, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
		return true
	})

	entry := &Entry{
		Level:     fromSlogLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
		Timestamp: r.Time,
		Caller:    callerOf(r.PC),
	}
	if err, ok := fields["error"].(error); ok {
		entry.Error = err
	}

	b, err := h.base.formatter.Format(entry)
	if err != nil {
		return err
	}
	for _, out := range h.base.outputs {
		_ = out.Write(entry, b)
	}
	return nil
}

func (h *handler) put(fields Fields, a slog.Attr) {
	if h.redact[a.Key] {
		fields[a.Key] = "[REDACTED]"
		return
	}
	fields[a.Key] = a.Value.Any()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &nh
}

// WithGroup qualifies later keys as "group.key".
func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func callerOf(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if f.File == "" {
		return ""
	}
	return f.File + ":" + strconv.Itoa(f.Line)
}

var slogLevels = [...]slog.Level{
	DebugLevel: slog.LevelDebug,
	InfoLevel:  slog.LevelInfo,
	WarnLevel:  slog.LevelWarn,
	ErrorLevel: slog.LevelError,
	FatalLevel: slog.LevelError + 4,
}

func toSlogLevel(level Level) slog.Level {
	if level < DebugLevel || int(level) >= len(slogLevels) {
		return slog.LevelInfo
	}
	return slogLevels[level]
}

func fromSlogLevel(level slog.Level) Level {
	for l := DebugLevel; l < FatalLevel; l++ {
		if level <= slogLevels[l] {
			return l
		}
	}
	return FatalLevel
}

func attrsFromMap(m Fields) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(m))
	for k, v := range m {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func attrsFromFieldSlice(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

// attrsToAny converts attrs for slog.Logger.With.
func attrsToAny(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i := range attrs {
		out[i] = attrs[i]
	}
	return out
}
