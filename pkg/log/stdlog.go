package log

import (
	stdlog "log"
	"strings"
)

type stdWriter struct {
	logger Logger
	level  Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg, f := strings.TrimRight(string(p), "\n"), Str("source", "stdlog")
	switch w.level {
	case DebugLevel:
		w.logger.Debug(msg, f)
	case WarnLevel:
		w.logger.Warn(msg, f)
	case ErrorLevel, FatalLevel:
		w.logger.Error(msg, f)
	default:
		w.logger.Info(msg, f)
	}
	return len(p), nil
}

// ToStdLogger adapts a Logger for libraries that expect *log.Logger, such as
// http.Server.ErrorLog. Every line is logged at level.
func ToStdLogger(l Logger, level Level) *stdlog.Logger {
	return stdlog.New(stdWriter{logger: l, level: level}, "", 0)
}

// RedirectStdLog routes the standard library's default logger through l.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: l, level: InfoLevel})
}
